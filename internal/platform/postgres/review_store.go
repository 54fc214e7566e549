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

// PostgresReviewStore implements the store.ReviewStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewStore creates a new PostgreSQL implementation of the ReviewStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresReviewStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_store")),
	}
}

// Ensure PostgresReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*PostgresReviewStore)(nil)

// Upsert implements store.ReviewStore.Upsert
func (s *PostgresReviewStore) Upsert(ctx context.Context, item *domain.SpacedRepetitionItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Key().Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO review_items (
			learner_id, subject, topic, grade, next_review_date, interval_days,
			ease_factor, repetition_count, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (learner_id, subject, topic, grade) DO UPDATE SET
			next_review_date = EXCLUDED.next_review_date,
			interval_days = EXCLUDED.interval_days,
			ease_factor = EXCLUDED.ease_factor,
			repetition_count = EXCLUDED.repetition_count,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		item.LearnerID,
		item.Subject,
		item.Topic,
		item.Grade,
		item.NextReviewDate,
		item.IntervalDays,
		item.EaseFactor,
		item.RepetitionCount,
		time.Now().UTC(),
	)
	if err != nil {
		log.Error("failed to upsert review item",
			slog.String("error", err.Error()),
			slog.String("key", item.Key().String()))
		return MapError(err)
	}

	log.Debug("review scheduled",
		slog.String("key", item.Key().String()),
		slog.Time("next_review_date", item.NextReviewDate),
		slog.Int("interval_days", item.IntervalDays))
	return nil
}

// ListDue implements store.ReviewStore.ListDue
func (s *PostgresReviewStore) ListDue(
	ctx context.Context,
	learnerID uuid.UUID,
	now time.Time,
	limit int,
) ([]domain.SpacedRepetitionItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT learner_id, subject, topic, grade, next_review_date, interval_days,
			ease_factor, repetition_count
		FROM review_items
		WHERE learner_id = $1 AND next_review_date <= $2
		ORDER BY next_review_date ASC, subject, topic, grade
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, learnerID, now, limit)
	if err != nil {
		log.Error("failed to list due reviews",
			slog.String("error", err.Error()),
			slog.String("learner_id", learnerID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	items := []domain.SpacedRepetitionItem{}
	for rows.Next() {
		var item domain.SpacedRepetitionItem
		if err := rows.Scan(
			&item.LearnerID,
			&item.Subject,
			&item.Topic,
			&item.Grade,
			&item.NextReviewDate,
			&item.IntervalDays,
			&item.EaseFactor,
			&item.RepetitionCount,
		); err != nil {
			return nil, MapError(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return items, nil
}

// WithTx implements store.ReviewStore.WithTx
func (s *PostgresReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &PostgresReviewStore{
		db:     tx,
		logger: s.logger,
	}
}
