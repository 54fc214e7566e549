package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/platform/logger"
	"github.com/phrazzld/mastery-api/internal/store"
)

// PostgresAttemptStore implements the store.AttemptStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAttemptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAttemptStore creates a new PostgreSQL implementation of the AttemptStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresAttemptStore(db store.DBTX, logger *slog.Logger) *PostgresAttemptStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAttemptStore{
		db:     db,
		logger: logger.With(slog.String("component", "attempt_store")),
	}
}

// Ensure PostgresAttemptStore implements store.AttemptStore interface
var _ store.AttemptStore = (*PostgresAttemptStore)(nil)

// Create implements store.AttemptStore.Create
// Returns store.ErrAttemptExists if the attempt ID is already recorded.
func (s *PostgresAttemptStore) Create(ctx context.Context, attempt *domain.Attempt) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := attempt.Validate(); err != nil {
		log.Warn("attempt validation failed during create",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attempt.ID.String()))
		return err
	}

	query := `
		INSERT INTO attempts (
			id, learner_id, subject, topic, grade, score, max_score, difficulty_level, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.LearnerID,
		attempt.Subject,
		attempt.Topic,
		attempt.Grade,
		attempt.Score,
		attempt.MaxScore,
		attempt.DifficultyLevel,
		attempt.CompletedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Info("attempt already recorded",
				slog.String("attempt_id", attempt.ID.String()))
			return MapUniqueViolation(err, "attempt", store.ErrAttemptExists)
		}
		log.Error("failed to create attempt",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attempt.ID.String()),
			slog.String("learner_id", attempt.LearnerID.String()))
		return MapError(err)
	}

	log.Debug("attempt recorded",
		slog.String("attempt_id", attempt.ID.String()),
		slog.String("key", attempt.Key().String()))
	return nil
}

// ListByLearnerSince implements store.AttemptStore.ListByLearnerSince
func (s *PostgresAttemptStore) ListByLearnerSince(
	ctx context.Context,
	learnerID uuid.UUID,
	subject string,
	since time.Time,
) ([]domain.Attempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, learner_id, subject, topic, grade, score, max_score, difficulty_level, completed_at
		FROM attempts
		WHERE learner_id = $1
			AND completed_at >= $2
			AND ($3 = '' OR subject = $3)
		ORDER BY completed_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, learnerID, since, subject)
	if err != nil {
		log.Error("failed to list attempts",
			slog.String("error", err.Error()),
			slog.String("learner_id", learnerID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	attempts := []domain.Attempt{}
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(
			&a.ID,
			&a.LearnerID,
			&a.Subject,
			&a.Topic,
			&a.Grade,
			&a.Score,
			&a.MaxScore,
			&a.DifficultyLevel,
			&a.CompletedAt,
		); err != nil {
			return nil, MapError(err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("attempts listed",
		slog.String("learner_id", learnerID.String()),
		slog.Int("count", len(attempts)))
	return attempts, nil
}

// WithTx implements store.AttemptStore.WithTx
func (s *PostgresAttemptStore) WithTx(tx *sql.Tx) store.AttemptStore {
	return &PostgresAttemptStore{
		db:     tx,
		logger: s.logger,
	}
}
