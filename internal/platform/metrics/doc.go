// Package metrics exposes Prometheus instruments for the adaptive engine and
// the HTTP API. Instruments are registered on an injected registry so tests
// and multiple servers in one process do not collide.
package metrics
