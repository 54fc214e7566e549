package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
)

// ReviewStore defines the interface for the spaced-repetition review queue.
// Each performance key has at most one scheduled review; rescheduling replaces it.
type ReviewStore interface {
	// Upsert stores the review item for its key, replacing any earlier schedule.
	Upsert(ctx context.Context, item *domain.SpacedRepetitionItem) error

	// ListDue returns the learner's review items due at or before now,
	// earliest first, at most limit items.
	ListDue(
		ctx context.Context,
		learnerID uuid.UUID,
		now time.Time,
		limit int,
	) ([]domain.SpacedRepetitionItem, error)

	// WithTx returns a new ReviewStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewStore
}
