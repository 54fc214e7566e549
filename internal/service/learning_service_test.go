package service_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/domain/adaptive"
	"github.com/phrazzld/mastery-api/internal/events"
	"github.com/phrazzld/mastery-api/internal/mocks"
	"github.com/phrazzld/mastery-api/internal/service"
	"github.com/phrazzld/mastery-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (e *recordingEmitter) EmitEvent(ctx context.Context, event *events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

func (e *recordingEmitter) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

type foldInObservation struct {
	subject       string
	before, after domain.MasteryLevel
	intervalDays  int
}

type recordingMetrics struct {
	mu           sync.Mutex
	observations []foldInObservation
}

func (m *recordingMetrics) ObserveFoldIn(
	subject string,
	adj domain.DifficultyAdjustment,
	before, after domain.MasteryLevel,
	intervalDays int,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations = append(m.observations, foldInObservation{subject, before, after, intervalDays})
}

type failingLocker struct{ err error }

func (l failingLocker) Lock(ctx context.Context, key string) (func(), error) {
	return nil, l.err
}

type fixture struct {
	svc      service.LearningService
	mock     sqlmock.Sqlmock
	perf     *mocks.MockPerformanceStore
	attempts *mocks.MockAttemptStore
	reviews  *mocks.MockReviewStore
	emitter  *recordingEmitter
	metrics  *recordingMetrics
}

func newFixture(t *testing.T, mutate func(deps *service.Dependencies)) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		mock:     mock,
		perf:     mocks.NewMockPerformanceStore(),
		attempts: mocks.NewMockAttemptStore(),
		reviews:  mocks.NewMockReviewStore(),
		emitter:  &recordingEmitter{},
		metrics:  &recordingMetrics{},
	}

	deps := service.Dependencies{
		DB:          db,
		Performance: f.perf,
		Attempts:    f.attempts,
		Reviews:     f.reviews,
		Engine:      adaptive.NewDefaultEngine(),
		Emitter:     f.emitter,
		Metrics:     f.metrics,
		Now:         func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&deps)
	}

	f.svc, err = service.NewLearningService(deps)
	require.NoError(t, err)
	return f
}

func testAttempt(learnerID uuid.UUID, score, maxScore int) *domain.Attempt {
	return &domain.Attempt{
		ID:              uuid.New(),
		LearnerID:       learnerID,
		Subject:         "math",
		Topic:           "fractions",
		Grade:           5,
		Score:           score,
		MaxScore:        maxScore,
		DifficultyLevel: 5,
		CompletedAt:     fixedNow.Add(-time.Minute),
	}
}

func seededPerformance(t *testing.T, key domain.PerformanceKey, ratios ...float64) *domain.TopicPerformance {
	t.Helper()
	perf, err := domain.NewTopicPerformance(key)
	require.NoError(t, err)
	for _, r := range ratios {
		perf.Attempts++
		perf.TotalScore += int(r * 10)
		perf.MaxPossibleScore += 10
		perf.RecentScores.Push(r)
	}
	perf.LastAttempt = fixedNow.Add(-24 * time.Hour)
	return perf
}

func TestNewLearningService(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	full := service.Dependencies{
		DB:          db,
		Performance: mocks.NewMockPerformanceStore(),
		Attempts:    mocks.NewMockAttemptStore(),
		Reviews:     mocks.NewMockReviewStore(),
		Engine:      adaptive.NewDefaultEngine(),
	}

	tests := []struct {
		name    string
		mutate  func(d *service.Dependencies)
		wantErr bool
	}{
		{name: "optional dependencies may be nil", mutate: func(d *service.Dependencies) {}},
		{name: "nil db", mutate: func(d *service.Dependencies) { d.DB = nil }, wantErr: true},
		{name: "nil performance store", mutate: func(d *service.Dependencies) { d.Performance = nil }, wantErr: true},
		{name: "nil attempt store", mutate: func(d *service.Dependencies) { d.Attempts = nil }, wantErr: true},
		{name: "nil review store", mutate: func(d *service.Dependencies) { d.Reviews = nil }, wantErr: true},
		{name: "nil engine", mutate: func(d *service.Dependencies) { d.Engine = nil }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			deps := full
			tt.mutate(&deps)
			svc, err := service.NewLearningService(deps)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				assert.Nil(t, svc)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestSubmitAttempt_FirstAttemptCreatesRecord(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	attempt := testAttempt(uuid.New(), 8, 10)
	result, err := f.svc.SubmitAttempt(context.Background(), attempt)
	require.NoError(t, err)

	assert.Equal(t, attempt.ID, result.AttemptID)
	assert.Equal(t, 1, result.Performance.Attempts)
	assert.Equal(t, 8, result.Performance.TotalScore)
	assert.Equal(t, 10, result.Performance.MaxPossibleScore)
	assert.Equal(t, domain.MasteryBeginner, result.Performance.MasteryLevel)
	assert.Equal(t, domain.DefaultDifficulty, result.Adjustment.OldDifficulty)
	assert.Equal(t, domain.DefaultDifficulty, result.Adjustment.NewDifficulty)
	assert.Contains(t, result.Adjustment.Reason, "Insufficient attempts")

	assert.Equal(t, attempt.Key(), result.Review.Key())
	assert.GreaterOrEqual(t, result.Review.IntervalDays, 1)
	assert.Equal(t, fixedNow.AddDate(0, 0, result.Review.IntervalDays), result.Review.NextReviewDate)

	stored, err := f.perf.Get(context.Background(), attempt.Key())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Attempts)
	review, ok := f.reviews.Item(attempt.Key())
	require.True(t, ok)
	assert.Equal(t, result.Review, review)
	assert.Equal(t, 1, f.attempts.Len())

	assert.Equal(t,
		[]string{events.TypeDifficultyAdjusted, events.TypeQuestionGenerationRequested},
		f.emitter.types())
	require.Len(t, f.metrics.observations, 1)
	assert.Equal(t, "math", f.metrics.observations[0].subject)
	assert.Equal(t, domain.MasteryBeginner, f.metrics.observations[0].before)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSubmitAttempt_AssignsIDWithoutTouchingInput(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	attempt := testAttempt(uuid.New(), 6, 10)
	attempt.ID = uuid.Nil
	before := *attempt

	result, err := f.svc.SubmitAttempt(context.Background(), attempt)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, result.AttemptID)
	assert.Equal(t, before, *attempt)
	assert.Equal(t, 1, f.attempts.Len())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSubmitAttempt_AdjustsDifficulty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		history  []float64
		score    int
		wantNext int
	}{
		{name: "consistent high scores raise difficulty", history: []float64{1, 1}, score: 10, wantNext: 6},
		{name: "consistent low scores lower difficulty", history: []float64{0.2, 0.2}, score: 2, wantNext: 4},
		{name: "scores on target keep difficulty", history: []float64{0.65, 0.65}, score: 6, wantNext: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, nil)
			attempt := testAttempt(uuid.New(), tt.score, 10)
			f.perf.Put(seededPerformance(t, attempt.Key(), tt.history...))
			f.mock.ExpectBegin()
			f.mock.ExpectCommit()

			result, err := f.svc.SubmitAttempt(context.Background(), attempt)
			require.NoError(t, err)

			assert.Equal(t, 3, result.Performance.Attempts)
			assert.Equal(t, domain.DefaultDifficulty, result.Adjustment.OldDifficulty)
			assert.Equal(t, tt.wantNext, result.Adjustment.NewDifficulty)
			assert.Equal(t, tt.wantNext, result.Performance.CurrentDifficulty)

			stored, err := f.perf.Get(context.Background(), attempt.Key())
			require.NoError(t, err)
			assert.Equal(t, tt.wantNext, stored.CurrentDifficulty)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestSubmitAttempt_Rejections(t *testing.T) {
	t.Parallel()

	learner := uuid.New()
	tests := []struct {
		name    string
		attempt *domain.Attempt
		wantErr error
	}{
		{name: "nil attempt", attempt: nil, wantErr: service.ErrNilAttempt},
		{
			name:    "score above max",
			attempt: testAttempt(learner, 11, 10),
			wantErr: domain.ErrValidation,
		},
		{
			name:    "missing learner",
			attempt: testAttempt(uuid.Nil, 5, 10),
			wantErr: domain.ErrInvalidID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, nil)
			result, err := f.svc.SubmitAttempt(context.Background(), tt.attempt)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
			assert.Zero(t, f.attempts.CreateCalls)
			assert.Empty(t, f.emitter.types())
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestSubmitAttempt_DuplicateAttemptIsNotFoldedTwice(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	attempt := testAttempt(uuid.New(), 7, 10)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	_, err := f.svc.SubmitAttempt(context.Background(), attempt)
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = f.svc.SubmitAttempt(context.Background(), attempt)
	assert.ErrorIs(t, err, store.ErrAttemptExists)

	stored, err := f.perf.Get(context.Background(), attempt.Key())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, 1, f.perf.GetForUpdateCalls)
	assert.Len(t, f.emitter.types(), 2)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSubmitAttempt_StoreFailureRollsBack(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("connection reset")
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{
			name: "load fails",
			setup: func(f *fixture) {
				f.perf.GetForUpdateFn = func(ctx context.Context, key domain.PerformanceKey) (*domain.TopicPerformance, error) {
					return nil, dbErr
				}
			},
		},
		{name: "performance save fails", setup: func(f *fixture) { f.perf.UpsertErr = dbErr }},
		{name: "review save fails", setup: func(f *fixture) { f.reviews.UpsertErr = dbErr }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, nil)
			tt.setup(f)
			f.mock.ExpectBegin()
			f.mock.ExpectRollback()

			result, err := f.svc.SubmitAttempt(context.Background(), testAttempt(uuid.New(), 5, 10))
			assert.ErrorIs(t, err, dbErr)
			var svcErr *service.LearningServiceError
			assert.ErrorAs(t, err, &svcErr)
			assert.Nil(t, result)
			assert.Empty(t, f.emitter.types(), "no events for a rolled back fold-in")
			assert.Empty(t, f.metrics.observations)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestSubmitAttempt_LockUnavailable(t *testing.T) {
	t.Parallel()

	lockErr := context.DeadlineExceeded
	f := newFixture(t, func(d *service.Dependencies) { d.Locker = failingLocker{err: lockErr} })

	result, err := f.svc.SubmitAttempt(context.Background(), testAttempt(uuid.New(), 5, 10))
	assert.ErrorIs(t, err, service.ErrLockUnavailable)
	assert.ErrorIs(t, err, lockErr)
	assert.Nil(t, result)
	assert.Zero(t, f.attempts.CreateCalls)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSubmitAttempt_BusyTopicTimesOut(t *testing.T) {
	t.Parallel()

	locker := service.NewLocalLocker()
	f := newFixture(t, func(d *service.Dependencies) {
		d.Locker = locker
		d.LockTimeout = 20 * time.Millisecond
	})

	attempt := testAttempt(uuid.New(), 5, 10)
	unlock, err := locker.Lock(context.Background(), attempt.Key().String())
	require.NoError(t, err)
	defer unlock()

	result, err := f.svc.SubmitAttempt(context.Background(), attempt)
	assert.ErrorIs(t, err, service.ErrLockUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, result)
	assert.Zero(t, f.attempts.CreateCalls)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSubmitAttempt_EmitFailureDoesNotFailFoldIn(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.emitter.err = errors.New("broker down")
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.svc.SubmitAttempt(context.Background(), testAttempt(uuid.New(), 9, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Performance.Attempts)
	assert.Len(t, f.emitter.types(), 2)
}

func TestSubmitAttempt_ConcurrentSubmissionsAreSerialized(t *testing.T) {
	t.Parallel()

	const n = 8
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	perfStore := mocks.NewMockPerformanceStore()
	svc, err := service.NewLearningService(service.Dependencies{
		DB:          db,
		Performance: perfStore,
		Attempts:    mocks.NewMockAttemptStore(),
		Reviews:     mocks.NewMockReviewStore(),
		Engine:      adaptive.NewDefaultEngine(),
		Locker:      service.NewLocalLocker(),
		Now:         func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	learner := uuid.New()
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitAttempt(context.Background(), testAttempt(learner, 5, 10))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	key := testAttempt(learner, 5, 10).Key()
	stored, err := perfStore.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, n, stored.Attempts, "every attempt is folded in exactly once")
	assert.Equal(t, n*5, stored.TotalScore)
}

func TestGetPerformance(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	key := testAttempt(uuid.New(), 1, 1).Key()
	f.perf.Put(seededPerformance(t, key, 0.5))

	got, err := f.svc.GetPerformance(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)

	other := key
	other.Topic = "decimals"
	_, err = f.svc.GetPerformance(context.Background(), other)
	assert.ErrorIs(t, err, store.ErrPerformanceNotFound)

	invalid := key
	invalid.Subject = " "
	_, err = f.svc.GetPerformance(context.Background(), invalid)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListPerformance(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	learner := uuid.New()
	k1 := testAttempt(learner, 1, 1).Key()
	k2 := k1
	k2.Topic = "decimals"
	f.perf.Put(seededPerformance(t, k1, 0.5))
	f.perf.Put(seededPerformance(t, k2, 0.9))
	f.perf.Put(seededPerformance(t, testAttempt(uuid.New(), 1, 1).Key(), 0.1))

	got, err := f.svc.ListPerformance(context.Background(), learner)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "decimals", got[0].Key.Topic)
	assert.Equal(t, "fractions", got[1].Key.Topic)

	_, err = f.svc.ListPerformance(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	f.perf.ListErr = sql.ErrConnDone
	_, err = f.svc.ListPerformance(context.Background(), learner)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestGetRecommendations(t *testing.T) {
	t.Parallel()

	t.Run("builds analytics over the window", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		learner := uuid.New()
		for i, score := range []int{2, 3, 2} {
			a := testAttempt(learner, score, 10)
			a.CompletedAt = fixedNow.Add(-time.Duration(3-i) * time.Hour)
			require.NoError(t, f.attempts.Create(context.Background(), a))
		}
		old := testAttempt(learner, 10, 10)
		old.CompletedAt = fixedNow.AddDate(0, 0, -60)
		require.NoError(t, f.attempts.Create(context.Background(), old))

		report, err := f.svc.GetRecommendations(context.Background(), learner, "", 0)
		require.NoError(t, err)

		assert.Equal(t, fixedNow.Add(-service.DefaultAnalyticsWindow), f.attempts.LastSince)
		assert.Equal(t, 3, report.Analytics.TotalAttempts)
		assert.InDelta(t, 0.2333, report.Analytics.OverallSuccessRate, 0.001)
		require.Len(t, report.Analytics.WeakAreas, 1)
		assert.Equal(t, "fractions", report.Analytics.WeakAreas[0].Topic)
		require.NotEmpty(t, report.Recommendations)
		assert.Contains(t, report.Recommendations[0], "Focus on fractions in math")
	})

	t.Run("no attempts yields fallback guidance", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		report, err := f.svc.GetRecommendations(context.Background(), uuid.New(), "math", 7*24*time.Hour)
		require.NoError(t, err)
		assert.Zero(t, report.Analytics.TotalAttempts)
		assert.Equal(t, []string{adaptive.NoActivityRecommendation}, report.Recommendations)
		assert.Equal(t, fixedNow.AddDate(0, 0, -7), f.attempts.LastSince)
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		_, err := f.svc.GetRecommendations(context.Background(), uuid.Nil, "", 0)
		assert.ErrorIs(t, err, domain.ErrInvalidID)

		_, err = f.svc.GetRecommendations(context.Background(), uuid.New(), "", -time.Hour)
		assert.ErrorIs(t, err, service.ErrInvalidWindow)

		_, err = f.svc.GetRecommendations(context.Background(), uuid.New(), "", service.MaxAnalyticsWindow+time.Hour)
		assert.ErrorIs(t, err, service.ErrInvalidWindow)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		f.attempts.ListErr = sql.ErrConnDone
		_, err := f.svc.GetRecommendations(context.Background(), uuid.New(), "", 0)
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestListDueReviews(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	learner := uuid.New()

	due := domain.SpacedRepetitionItem{
		LearnerID: learner, Subject: "math", Topic: "fractions", Grade: 5,
		NextReviewDate: fixedNow.Add(-time.Hour), IntervalDays: 1, EaseFactor: 2.5,
	}
	later := due
	later.Topic = "decimals"
	later.NextReviewDate = fixedNow.AddDate(0, 0, 3)
	require.NoError(t, f.reviews.Upsert(context.Background(), &due))
	require.NoError(t, f.reviews.Upsert(context.Background(), &later))

	items, err := f.svc.ListDueReviews(context.Background(), learner, time.Time{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fractions", items[0].Topic)

	items, err = f.svc.ListDueReviews(context.Background(), learner, fixedNow.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = f.svc.ListDueReviews(context.Background(), uuid.Nil, fixedNow)
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
