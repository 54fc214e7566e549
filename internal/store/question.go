package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/mastery-api/internal/domain"
)

// QuestionStore defines the interface for generated question persistence.
type QuestionStore interface {
	// CreateMultiple saves a batch of generated questions.
	// Every question is validated first; one invalid question rejects the whole batch.
	CreateMultiple(ctx context.Context, questions []*domain.Question) error

	// WithTx returns a new QuestionStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) QuestionStore
}
