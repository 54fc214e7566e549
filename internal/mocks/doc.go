// Package mocks provides hand-written test doubles for the store, generation
// and service interfaces.
//
// Stores are in-memory fakes that behave like their Postgres counterparts
// (sentinel errors, WithTx returning the same state) and expose Fn fields and
// error fields for injecting failures. Every mock records its calls so tests
// can assert on them:
//
//	perfs := mocks.NewMockPerformanceStore()
//	perfs.UpsertErr = errors.New("disk full")
//	svc, _ := service.NewLearningService(service.Dependencies{Performance: perfs, ...})
package mocks
