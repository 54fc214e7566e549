// Package service contains the learning use cases that sit between the HTTP
// API and the adaptive engine.
//
// LearningService folds graded attempts into per-topic performance records,
// persists the resulting difficulty and review schedule in one transaction,
// records metrics and emits events for downstream consumers. Folds for the
// same (learner, subject, topic, grade) are serialized by a KeyLocker in
// addition to the row lock taken inside the transaction.
//
// The service depends on store interfaces and the engine interface only; the
// concrete Postgres, Redis and broker implementations are wired in cmd/server.
package service
