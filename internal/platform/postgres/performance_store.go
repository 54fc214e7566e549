package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/platform/logger"
	"github.com/phrazzld/mastery-api/internal/store"
)

const performanceColumns = `
	learner_id, subject, topic, grade, attempts, total_score, max_possible_score,
	current_difficulty, recent_scores, last_attempt, mastery_level, created_at, updated_at`

// PostgresPerformanceStore implements the store.PerformanceStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPerformanceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPerformanceStore creates a new PostgreSQL implementation of the PerformanceStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresPerformanceStore(db store.DBTX, logger *slog.Logger) *PostgresPerformanceStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPerformanceStore{
		db:     db,
		logger: logger.With(slog.String("component", "performance_store")),
	}
}

// Ensure PostgresPerformanceStore implements store.PerformanceStore interface
var _ store.PerformanceStore = (*PostgresPerformanceStore)(nil)

// Get implements store.PerformanceStore.Get
func (s *PostgresPerformanceStore) Get(
	ctx context.Context,
	key domain.PerformanceKey,
) (*domain.TopicPerformance, error) {
	query := `SELECT` + performanceColumns + `
		FROM topic_performance
		WHERE learner_id = $1 AND subject = $2 AND topic = $3 AND grade = $4`
	return s.getOne(ctx, query, key)
}

// GetForUpdate implements store.PerformanceStore.GetForUpdate
// The row stays locked until the surrounding transaction ends.
func (s *PostgresPerformanceStore) GetForUpdate(
	ctx context.Context,
	key domain.PerformanceKey,
) (*domain.TopicPerformance, error) {
	// FOR UPDATE locks nothing while the row does not exist yet, so the first
	// fold-in of a key is serialized by a transaction-scoped advisory lock.
	if _, err := s.db.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key.String()); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to take topic performance lock",
			slog.String("error", err.Error()),
			slog.String("key", key.String()))
		return nil, MapError(err)
	}

	query := `SELECT` + performanceColumns + `
		FROM topic_performance
		WHERE learner_id = $1 AND subject = $2 AND topic = $3 AND grade = $4
		FOR UPDATE`
	return s.getOne(ctx, query, key)
}

func (s *PostgresPerformanceStore) getOne(
	ctx context.Context,
	query string,
	key domain.PerformanceKey,
) (*domain.TopicPerformance, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, query, key.LearnerID, key.Subject, key.Topic, key.Grade)
	perf, err := scanPerformance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("topic performance not found", slog.String("key", key.String()))
			return nil, store.ErrPerformanceNotFound
		}
		log.Error("failed to get topic performance",
			slog.String("error", err.Error()),
			slog.String("key", key.String()))
		return nil, MapError(err)
	}
	return perf, nil
}

// Upsert implements store.PerformanceStore.Upsert
func (s *PostgresPerformanceStore) Upsert(ctx context.Context, perf *domain.TopicPerformance) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := perf.Validate(); err != nil {
		log.Warn("topic performance validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("key", perf.Key.String()))
		return err
	}

	scores, err := json.Marshal(perf.RecentScores)
	if err != nil {
		return fmt.Errorf("failed to encode recent scores: %w", err)
	}

	var lastAttempt sql.NullTime
	if !perf.LastAttempt.IsZero() {
		lastAttempt = sql.NullTime{Time: perf.LastAttempt, Valid: true}
	}

	query := `
		INSERT INTO topic_performance (` + performanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (learner_id, subject, topic, grade) DO UPDATE SET
			attempts = EXCLUDED.attempts,
			total_score = EXCLUDED.total_score,
			max_possible_score = EXCLUDED.max_possible_score,
			current_difficulty = EXCLUDED.current_difficulty,
			recent_scores = EXCLUDED.recent_scores,
			last_attempt = EXCLUDED.last_attempt,
			mastery_level = EXCLUDED.mastery_level,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		perf.Key.LearnerID,
		perf.Key.Subject,
		perf.Key.Topic,
		perf.Key.Grade,
		perf.Attempts,
		perf.TotalScore,
		perf.MaxPossibleScore,
		perf.CurrentDifficulty,
		scores,
		lastAttempt,
		string(perf.MasteryLevel),
		perf.CreatedAt,
		perf.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert topic performance",
			slog.String("error", err.Error()),
			slog.String("key", perf.Key.String()))
		return MapError(err)
	}

	log.Debug("topic performance saved",
		slog.String("key", perf.Key.String()),
		slog.Int("attempts", perf.Attempts),
		slog.Int("difficulty", perf.CurrentDifficulty),
		slog.String("mastery_level", string(perf.MasteryLevel)))
	return nil
}

// ListByLearner implements store.PerformanceStore.ListByLearner
func (s *PostgresPerformanceStore) ListByLearner(
	ctx context.Context,
	learnerID uuid.UUID,
) ([]*domain.TopicPerformance, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT` + performanceColumns + `
		FROM topic_performance
		WHERE learner_id = $1
		ORDER BY subject, topic, grade`

	rows, err := s.db.QueryContext(ctx, query, learnerID)
	if err != nil {
		log.Error("failed to list topic performance",
			slog.String("error", err.Error()),
			slog.String("learner_id", learnerID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	perfs := []*domain.TopicPerformance{}
	for rows.Next() {
		perf, err := scanPerformance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic performance: %w", err)
		}
		perfs = append(perfs, perf)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return perfs, nil
}

// WithTx implements store.PerformanceStore.WithTx
func (s *PostgresPerformanceStore) WithTx(tx *sql.Tx) store.PerformanceStore {
	return &PostgresPerformanceStore{
		db:     tx,
		logger: s.logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerformance(row rowScanner) (*domain.TopicPerformance, error) {
	var (
		perf        domain.TopicPerformance
		scores      []byte
		lastAttempt sql.NullTime
		mastery     string
	)
	err := row.Scan(
		&perf.Key.LearnerID,
		&perf.Key.Subject,
		&perf.Key.Topic,
		&perf.Key.Grade,
		&perf.Attempts,
		&perf.TotalScore,
		&perf.MaxPossibleScore,
		&perf.CurrentDifficulty,
		&scores,
		&lastAttempt,
		&mastery,
		&perf.CreatedAt,
		&perf.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &perf.RecentScores); err != nil {
			return nil, err
		}
	}
	if lastAttempt.Valid {
		perf.LastAttempt = lastAttempt.Time
	}
	perf.MasteryLevel = domain.MasteryLevel(mastery)
	return &perf, nil
}
