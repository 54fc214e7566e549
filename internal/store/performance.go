package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
)

// PerformanceStore defines the interface for topic performance persistence.
// Records are identified by their PerformanceKey.
type PerformanceStore interface {
	// Get retrieves the performance record for a key.
	// Returns ErrPerformanceNotFound if the topic was never attempted.
	// NOTE: This method does NOT lock the row; use GetForUpdate before a fold-in.
	Get(ctx context.Context, key domain.PerformanceKey) (*domain.TopicPerformance, error)

	// GetForUpdate retrieves the record with a row-level lock using SELECT FOR UPDATE.
	// It must be called inside a transaction so concurrent fold-ins for the same key
	// are serialized, including the first one for a key that has no record yet.
	// Returns ErrPerformanceNotFound if the topic was never attempted.
	GetForUpdate(ctx context.Context, key domain.PerformanceKey) (*domain.TopicPerformance, error)

	// Upsert inserts the record or replaces the stored one with the same key.
	// Returns validation errors from the domain TopicPerformance if data is invalid.
	Upsert(ctx context.Context, perf *domain.TopicPerformance) error

	// ListByLearner returns every performance record of a learner ordered by
	// subject, topic and grade. An unknown learner yields an empty slice.
	ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]*domain.TopicPerformance, error)

	// WithTx returns a new PerformanceStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) PerformanceStore
}
