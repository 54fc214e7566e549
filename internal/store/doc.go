// Package store declares the persistence ports of the mastery engine:
// topic performance records, graded attempts, review schedules and generated
// questions. Implementations live in internal/platform/postgres; the service
// layer composes them inside RunInTransaction so a fold-in is atomic.
package store
