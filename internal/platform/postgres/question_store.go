package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/platform/logger"
	"github.com/phrazzld/mastery-api/internal/store"
)

// PostgresQuestionStore implements the store.QuestionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuestionStore creates a new PostgreSQL implementation of the QuestionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresQuestionStore(db store.DBTX, logger *slog.Logger) *PostgresQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "question_store")),
	}
}

// Ensure PostgresQuestionStore implements store.QuestionStore interface
var _ store.QuestionStore = (*PostgresQuestionStore)(nil)

// CreateMultiple implements store.QuestionStore.CreateMultiple
// All questions are validated before the first insert.
func (s *PostgresQuestionStore) CreateMultiple(ctx context.Context, questions []*domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(questions) == 0 {
		return nil
	}

	for _, q := range questions {
		if err := q.Validate(); err != nil {
			log.Warn("question validation failed during batch create",
				slog.String("error", err.Error()),
				slog.String("question_id", q.ID.String()))
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	query := `
		INSERT INTO questions (
			id, learner_id, subject, topic, grade, difficulty, bloom_level,
			prompt, choices, answer, explanation, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	for _, q := range questions {
		choices := q.Choices
		if choices == nil {
			choices = []string{}
		}
		encoded, err := json.Marshal(choices)
		if err != nil {
			return fmt.Errorf("failed to encode question choices: %w", err)
		}

		if _, err := s.db.ExecContext(ctx, query,
			q.ID,
			q.LearnerID,
			q.Subject,
			q.Topic,
			q.Grade,
			q.Difficulty,
			q.BloomLevel,
			q.Prompt,
			encoded,
			q.Answer,
			q.Explanation,
			q.CreatedAt,
		); err != nil {
			log.Error("failed to create question",
				slog.String("error", err.Error()),
				slog.String("question_id", q.ID.String()))
			return MapError(err)
		}
	}

	log.Info("questions created",
		slog.Int("count", len(questions)),
		slog.String("learner_id", questions[0].LearnerID.String()))
	return nil
}

// WithTx implements store.QuestionStore.WithTx
func (s *PostgresQuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	return &PostgresQuestionStore{
		db:     tx,
		logger: s.logger,
	}
}
