package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/domain/adaptive"
	"github.com/phrazzld/mastery-api/internal/events"
	"github.com/phrazzld/mastery-api/internal/platform/logger"
	"github.com/phrazzld/mastery-api/internal/store"
)

const (
	// DefaultAnalyticsWindow is used when GetRecommendations receives no window.
	DefaultAnalyticsWindow = 30 * 24 * time.Hour

	// MaxAnalyticsWindow bounds how far back GetRecommendations looks.
	MaxAnalyticsWindow = 365 * 24 * time.Hour

	// DefaultDueReviewLimit caps ListDueReviews.
	DefaultDueReviewLimit = 50

	// DefaultLockTimeout bounds how long SubmitAttempt waits for a busy topic.
	DefaultLockTimeout = 10 * time.Second
)

// MetricsRecorder receives the outcome of every fold-in.
type MetricsRecorder interface {
	ObserveFoldIn(
		subject string,
		adj domain.DifficultyAdjustment,
		before, after domain.MasteryLevel,
		intervalDays int,
	)
}

// SubmissionResult is everything a fold-in decided.
type SubmissionResult struct {
	AttemptID   uuid.UUID                   `json:"attempt_id"`
	Performance *domain.TopicPerformance    `json:"performance"`
	Adjustment  domain.DifficultyAdjustment `json:"adjustment"`
	Review      domain.SpacedRepetitionItem `json:"review"`
}

// RecommendationReport is the cross-topic analytics of a window plus the
// guidance derived from it.
type RecommendationReport struct {
	Analytics       adaptive.Analytics `json:"analytics"`
	Recommendations []string           `json:"recommendations"`
}

// LearningService provides the learner-facing operations of the engine.
type LearningService interface {
	// SubmitAttempt folds a graded attempt into its topic performance, decides the
	// next difficulty and review date, and persists all of it atomically.
	// Returns store.ErrAttemptExists when the attempt ID was already folded in.
	// The caller's attempt is not modified; an ID assigned for it is reported
	// in SubmissionResult.AttemptID.
	SubmitAttempt(ctx context.Context, attempt *domain.Attempt) (*SubmissionResult, error)

	// GetPerformance returns the performance record for a key.
	// Returns store.ErrPerformanceNotFound when the topic was never attempted.
	GetPerformance(ctx context.Context, key domain.PerformanceKey) (*domain.TopicPerformance, error)

	// ListPerformance returns every performance record of a learner.
	ListPerformance(ctx context.Context, learnerID uuid.UUID) ([]*domain.TopicPerformance, error)

	// GetRecommendations analyses the learner's attempts completed within window
	// (optionally limited to one subject) and returns recommendations.
	// A zero window uses the configured default.
	GetRecommendations(
		ctx context.Context,
		learnerID uuid.UUID,
		subject string,
		window time.Duration,
	) (*RecommendationReport, error)

	// ListDueReviews returns the learner's review items due at or before now.
	ListDueReviews(ctx context.Context, learnerID uuid.UUID, now time.Time) ([]domain.SpacedRepetitionItem, error)
}

// Dependencies lists what NewLearningService needs. DB, Performance, Attempts,
// Reviews and Engine are required; the rest fall back to in-process defaults.
type Dependencies struct {
	DB          *sql.DB
	Performance store.PerformanceStore
	Attempts    store.AttemptStore
	Reviews     store.ReviewStore
	Engine      adaptive.Engine

	Locker          KeyLocker
	Emitter         events.EventEmitter
	Metrics         MetricsRecorder
	Logger          *slog.Logger
	AnalyticsWindow time.Duration
	LockTimeout     time.Duration
	Now             func() time.Time
}

// learningServiceImpl implements the LearningService interface
type learningServiceImpl struct {
	db              *sql.DB
	perfStore       store.PerformanceStore
	attemptStore    store.AttemptStore
	reviewStore     store.ReviewStore
	engine          adaptive.Engine
	locker          KeyLocker
	emitter         events.EventEmitter
	metrics         MetricsRecorder
	logger          *slog.Logger
	analyticsWindow time.Duration
	lockTimeout     time.Duration
	now             func() time.Time
}

// NewLearningService creates a new LearningService.
// It returns an error if any of the required dependencies are nil.
func NewLearningService(deps Dependencies) (LearningService, error) {
	if deps.DB == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if deps.Performance == nil {
		return nil, domain.NewValidationError("performanceStore", "cannot be nil", domain.ErrValidation)
	}
	if deps.Attempts == nil {
		return nil, domain.NewValidationError("attemptStore", "cannot be nil", domain.ErrValidation)
	}
	if deps.Reviews == nil {
		return nil, domain.NewValidationError("reviewStore", "cannot be nil", domain.ErrValidation)
	}
	if deps.Engine == nil {
		return nil, domain.NewValidationError("engine", "cannot be nil", domain.ErrValidation)
	}

	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	locker := deps.Locker
	if locker == nil {
		locker = NewLocalLocker()
	}
	window := deps.AnalyticsWindow
	if window <= 0 {
		window = DefaultAnalyticsWindow
	}
	lockTimeout := deps.LockTimeout
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &learningServiceImpl{
		db:              deps.DB,
		perfStore:       deps.Performance,
		attemptStore:    deps.Attempts,
		reviewStore:     deps.Reviews,
		engine:          deps.Engine,
		locker:          locker,
		emitter:         deps.Emitter,
		metrics:         deps.Metrics,
		logger:          log.With(slog.String("component", "learning_service")),
		analyticsWindow: window,
		lockTimeout:     lockTimeout,
		now:             now,
	}, nil
}

// SubmitAttempt implements LearningService.SubmitAttempt
func (s *learningServiceImpl) SubmitAttempt(
	ctx context.Context,
	attempt *domain.Attempt,
) (*SubmissionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if attempt == nil {
		return nil, ErrNilAttempt
	}
	copied := *attempt
	attempt = &copied
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if err := attempt.Validate(); err != nil {
		log.Debug("rejected invalid attempt",
			slog.String("attempt_id", attempt.ID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	key := attempt.Key()
	log = log.With(slog.String("key", key.String()), slog.String("attempt_id", attempt.ID.String()))
	ctx = logger.WithLogger(ctx, log)

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	unlock, err := s.locker.Lock(lockCtx, key.String())
	cancel()
	if err != nil {
		log.Warn("could not lock topic for fold-in", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrLockUnavailable, err)
	}
	defer unlock()

	now := s.now()
	var (
		result *SubmissionResult
		before = domain.MasteryBeginner
	)

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txPerf := s.perfStore.WithTx(tx)
		txAttempts := s.attemptStore.WithTx(tx)
		txReviews := s.reviewStore.WithTx(tx)

		if err := txAttempts.Create(ctx, attempt); err != nil {
			return err
		}

		current, err := txPerf.GetForUpdate(ctx, key)
		switch {
		case errors.Is(err, store.ErrPerformanceNotFound):
			current = nil
		case err != nil:
			return NewLearningServiceError("submit_attempt", "failed to load performance", err)
		default:
			before = current.MasteryLevel
		}

		next, err := s.engine.FoldIn(current, attempt)
		if err != nil {
			return err
		}

		adj, err := s.engine.CalculateNextDifficulty(next)
		if err != nil {
			return NewLearningServiceError("submit_attempt", "failed to decide difficulty", err)
		}
		next.CurrentDifficulty = adj.NewDifficulty

		review, err := s.engine.Schedule(next, now)
		if err != nil {
			return NewLearningServiceError("submit_attempt", "failed to schedule review", err)
		}

		if err := txPerf.Upsert(ctx, next); err != nil {
			return NewLearningServiceError("submit_attempt", "failed to save performance", err)
		}
		if err := txReviews.Upsert(ctx, &review); err != nil {
			return NewLearningServiceError("submit_attempt", "failed to save review", err)
		}

		result = &SubmissionResult{AttemptID: attempt.ID, Performance: next, Adjustment: adj, Review: review}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrAttemptExists) {
			log.Info("attempt already folded in")
		} else {
			log.Error("fold-in failed", slog.String("error", err.Error()))
		}
		return nil, err
	}

	log.Info("attempt folded in",
		slog.Int("attempts", result.Performance.Attempts),
		slog.Int("old_difficulty", result.Adjustment.OldDifficulty),
		slog.Int("new_difficulty", result.Adjustment.NewDifficulty),
		slog.String("mastery_level", string(result.Performance.MasteryLevel)),
		slog.Int("interval_days", result.Review.IntervalDays))

	if s.metrics != nil {
		s.metrics.ObserveFoldIn(key.Subject, result.Adjustment, before,
			result.Performance.MasteryLevel, result.Review.IntervalDays)
	}
	s.emitFoldInEvents(ctx, result)

	return result, nil
}

// emitFoldInEvents publishes the outcome of a committed fold-in. Failures are
// logged; the fold-in itself already succeeded.
func (s *learningServiceImpl) emitFoldInEvents(ctx context.Context, result *SubmissionResult) {
	if s.emitter == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)
	perf := result.Performance

	payloads := []struct {
		eventType string
		payload   any
	}{
		{
			eventType: events.TypeDifficultyAdjusted,
			payload: events.DifficultyAdjustedPayload{
				Key:          perf.Key,
				Adjustment:   result.Adjustment,
				Direction:    result.Adjustment.Direction(),
				MasteryLevel: perf.MasteryLevel,
				NextReview:   result.Review.NextReviewDate,
			},
		},
		{
			eventType: events.TypeQuestionGenerationRequested,
			payload: events.QuestionGenerationPayload{
				LearnerID:    perf.Key.LearnerID,
				Subject:      perf.Key.Subject,
				Topic:        perf.Key.Topic,
				Grade:        perf.Key.Grade,
				Difficulty:   result.Adjustment.NewDifficulty,
				BloomLevel:   result.Adjustment.RecommendedBloomLevel,
				MasteryLevel: perf.MasteryLevel,
			},
		},
	}

	for _, p := range payloads {
		event, err := events.NewEvent(p.eventType, p.payload)
		if err != nil {
			log.Error("failed to build event",
				slog.String("event_type", p.eventType),
				slog.String("error", err.Error()))
			continue
		}
		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			log.Error("failed to emit event",
				slog.String("event_type", p.eventType),
				slog.String("event_id", event.ID.String()),
				slog.String("error", err.Error()))
		}
	}
}

// GetPerformance implements LearningService.GetPerformance
func (s *learningServiceImpl) GetPerformance(
	ctx context.Context,
	key domain.PerformanceKey,
) (*domain.TopicPerformance, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return s.perfStore.Get(ctx, key)
}

// ListPerformance implements LearningService.ListPerformance
func (s *learningServiceImpl) ListPerformance(
	ctx context.Context,
	learnerID uuid.UUID,
) ([]*domain.TopicPerformance, error) {
	if learnerID == uuid.Nil {
		return nil, domain.NewValidationError("learner_id", "cannot be empty", domain.ErrInvalidID)
	}
	perfs, err := s.perfStore.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, NewLearningServiceError("list_performance", "failed to list performance", err)
	}
	return perfs, nil
}

// GetRecommendations implements LearningService.GetRecommendations
func (s *learningServiceImpl) GetRecommendations(
	ctx context.Context,
	learnerID uuid.UUID,
	subject string,
	window time.Duration,
) (*RecommendationReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if learnerID == uuid.Nil {
		return nil, domain.NewValidationError("learner_id", "cannot be empty", domain.ErrInvalidID)
	}
	if window == 0 {
		window = s.analyticsWindow
	}
	if window < 0 || window > MaxAnalyticsWindow {
		return nil, ErrInvalidWindow
	}

	since := s.now().Add(-window)
	attempts, err := s.attemptStore.ListByLearnerSince(ctx, learnerID, subject, since)
	if err != nil {
		return nil, NewLearningServiceError("get_recommendations", "failed to list attempts", err)
	}

	analytics := s.engine.BuildAnalytics(attempts, since)
	recs := s.engine.RecommendFor(analytics)

	log.Debug("recommendations built",
		slog.String("learner_id", learnerID.String()),
		slog.Int("attempts", analytics.TotalAttempts),
		slog.String("trend", string(analytics.Trend)),
		slog.Int("recommendations", len(recs)))

	return &RecommendationReport{Analytics: analytics, Recommendations: recs}, nil
}

// ListDueReviews implements LearningService.ListDueReviews
func (s *learningServiceImpl) ListDueReviews(
	ctx context.Context,
	learnerID uuid.UUID,
	now time.Time,
) ([]domain.SpacedRepetitionItem, error) {
	if learnerID == uuid.Nil {
		return nil, domain.NewValidationError("learner_id", "cannot be empty", domain.ErrInvalidID)
	}
	if now.IsZero() {
		now = s.now()
	}
	items, err := s.reviewStore.ListDue(ctx, learnerID, now, DefaultDueReviewLimit)
	if err != nil {
		return nil, NewLearningServiceError("list_due_reviews", "failed to list due reviews", err)
	}
	return items, nil
}
