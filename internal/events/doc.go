// Package events provides types and interfaces for an event-driven architecture.
//
// This package defines event types and handler interfaces that allow for loose coupling
// between components in the system. The learning service emits events after each
// fold-in without knowing which handlers will process them: the background question
// generator and the outbound broker publisher both subscribe here.
//
// The primary components are:
// - Event: An envelope carrying a typed JSON payload
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
