package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/service"
)

// mockLearningService implements service.LearningService for handler tests.
type mockLearningService struct {
	SubmitAttemptFn      func(ctx context.Context, attempt *domain.Attempt) (*service.SubmissionResult, error)
	GetPerformanceFn     func(ctx context.Context, key domain.PerformanceKey) (*domain.TopicPerformance, error)
	ListPerformanceFn    func(ctx context.Context, learnerID uuid.UUID) ([]*domain.TopicPerformance, error)
	GetRecommendationsFn func(
		ctx context.Context,
		learnerID uuid.UUID,
		subject string,
		window time.Duration,
	) (*service.RecommendationReport, error)
	ListDueReviewsFn func(ctx context.Context, learnerID uuid.UUID, now time.Time) ([]domain.SpacedRepetitionItem, error)
}

var _ service.LearningService = (*mockLearningService)(nil)

func (m *mockLearningService) SubmitAttempt(
	ctx context.Context,
	attempt *domain.Attempt,
) (*service.SubmissionResult, error) {
	return m.SubmitAttemptFn(ctx, attempt)
}

func (m *mockLearningService) GetPerformance(
	ctx context.Context,
	key domain.PerformanceKey,
) (*domain.TopicPerformance, error) {
	return m.GetPerformanceFn(ctx, key)
}

func (m *mockLearningService) ListPerformance(
	ctx context.Context,
	learnerID uuid.UUID,
) ([]*domain.TopicPerformance, error) {
	return m.ListPerformanceFn(ctx, learnerID)
}

func (m *mockLearningService) GetRecommendations(
	ctx context.Context,
	learnerID uuid.UUID,
	subject string,
	window time.Duration,
) (*service.RecommendationReport, error) {
	return m.GetRecommendationsFn(ctx, learnerID, subject, window)
}

func (m *mockLearningService) ListDueReviews(
	ctx context.Context,
	learnerID uuid.UUID,
	now time.Time,
) ([]domain.SpacedRepetitionItem, error) {
	return m.ListDueReviewsFn(ctx, learnerID, now)
}
