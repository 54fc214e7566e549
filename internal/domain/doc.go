// Package domain contains the core business entities, value objects, and
// domain logic of the application. It represents the heart of the system,
// independent of any specific infrastructure or delivery mechanism.
//
// The central entity is TopicPerformance, the rolling record of one learner's
// results for a (subject, topic, grade) tuple. The adaptive engine in the
// adaptive subpackage derives mastery, difficulty and review schedules from it.
package domain
