package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
)

// AttemptStore defines the interface for graded attempt persistence.
// Attempts are append-only.
type AttemptStore interface {
	// Create records a graded attempt.
	// Returns ErrAttemptExists if an attempt with the same ID was already recorded.
	Create(ctx context.Context, attempt *domain.Attempt) error

	// ListByLearnerSince returns the learner's attempts completed at or after since,
	// oldest first. An empty subject matches every subject.
	ListByLearnerSince(
		ctx context.Context,
		learnerID uuid.UUID,
		subject string,
		since time.Time,
	) ([]domain.Attempt, error)

	// WithTx returns a new AttemptStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AttemptStore
}
