package adaptive

import (
	"errors"
	"time"

	"github.com/phrazzld/mastery-api/internal/domain"
)

// Common errors
var (
	ErrNilPerformance = errors.New("topic performance cannot be nil")
	ErrNilAttempt     = errors.New("attempt cannot be nil")
)

// Engine defines the adaptive learning calculations.
// Every method is a pure function of its arguments and the engine's Params; an Engine is safe
// for concurrent use, but folds for the same performance key must be serialized by the caller.
type Engine interface {
	// FoldIn applies a graded attempt to a performance record and returns the updated copy.
	// A nil perf starts a new record for the attempt's key.
	FoldIn(perf *domain.TopicPerformance, attempt *domain.Attempt) (*domain.TopicPerformance, error)

	// ClassifyMastery derives the mastery level of a record.
	ClassifyMastery(perf *domain.TopicPerformance) domain.MasteryLevel

	// AnalyzeTrend classifies a chronologically ordered sequence of score ratios.
	AnalyzeTrend(scores []float64) domain.Trend

	// AnalyzeAttemptTrend orders attempts by completion time and classifies their ratios.
	AnalyzeAttemptTrend(attempts []domain.Attempt) domain.Trend

	// CalculateNextDifficulty decides the difficulty of the next question.
	CalculateNextDifficulty(perf *domain.TopicPerformance) (domain.DifficultyAdjustment, error)

	// Schedule computes the next spaced-repetition review relative to now.
	Schedule(perf *domain.TopicPerformance, now time.Time) (domain.SpacedRepetitionItem, error)

	// BuildAnalytics reduces attempts completed at or after since into cross-topic analytics.
	BuildAnalytics(attempts []domain.Attempt, since time.Time) Analytics

	// Recommend turns weak and strong areas, the overall rate and the trend into guidance.
	Recommend(weak, strong []domain.TopicSummary, overall float64, trend domain.Trend) []string

	// RecommendFor is Recommend over built analytics. A window without attempts
	// yields only NoActivityRecommendation.
	RecommendFor(analytics Analytics) []string
}

// defaultEngine is the standard implementation of the Engine interface
type defaultEngine struct {
	params *Params
}

// NewDefaultEngine creates a new engine with default parameters
func NewDefaultEngine() Engine {
	return &defaultEngine{
		params: NewDefaultParams(),
	}
}

// NewEngineWithParams creates a new engine with custom parameters.
// The parameters are validated once here so the calculations can trust them.
func NewEngineWithParams(params *Params) (Engine, error) {
	if params == nil {
		return nil, ErrInvalidParams
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultEngine{
		params: params,
	}, nil
}

// FoldIn implements the Engine interface
func (e *defaultEngine) FoldIn(
	perf *domain.TopicPerformance,
	attempt *domain.Attempt,
) (*domain.TopicPerformance, error) {
	if attempt == nil {
		return nil, ErrNilAttempt
	}
	if err := attempt.Validate(); err != nil {
		return nil, err
	}
	return foldIn(perf, attempt, e.params)
}

// ClassifyMastery implements the Engine interface
func (e *defaultEngine) ClassifyMastery(perf *domain.TopicPerformance) domain.MasteryLevel {
	if perf == nil {
		return domain.MasteryBeginner
	}
	return classifyMastery(perf, e.params)
}

// AnalyzeTrend implements the Engine interface
func (e *defaultEngine) AnalyzeTrend(scores []float64) domain.Trend {
	return analyzeTrend(scores, e.params)
}

// AnalyzeAttemptTrend implements the Engine interface
func (e *defaultEngine) AnalyzeAttemptTrend(attempts []domain.Attempt) domain.Trend {
	return analyzeTrend(attemptRatios(attempts), e.params)
}

// CalculateNextDifficulty implements the Engine interface
func (e *defaultEngine) CalculateNextDifficulty(
	perf *domain.TopicPerformance,
) (domain.DifficultyAdjustment, error) {
	if perf == nil {
		return domain.DifficultyAdjustment{}, ErrNilPerformance
	}
	return calculateNextDifficulty(perf, e.params), nil
}

// Schedule implements the Engine interface
func (e *defaultEngine) Schedule(
	perf *domain.TopicPerformance,
	now time.Time,
) (domain.SpacedRepetitionItem, error) {
	if perf == nil {
		return domain.SpacedRepetitionItem{}, ErrNilPerformance
	}
	return schedule(perf, now, e.params), nil
}

// BuildAnalytics implements the Engine interface
func (e *defaultEngine) BuildAnalytics(attempts []domain.Attempt, since time.Time) Analytics {
	return buildAnalytics(attempts, since, e.params)
}

// Recommend implements the Engine interface
func (e *defaultEngine) Recommend(
	weak, strong []domain.TopicSummary,
	overall float64,
	trend domain.Trend,
) []string {
	return recommend(weak, strong, overall, trend, e.params)
}

// RecommendFor implements the Engine interface
func (e *defaultEngine) RecommendFor(analytics Analytics) []string {
	if analytics.TotalAttempts == 0 {
		return []string{NoActivityRecommendation}
	}
	return recommend(analytics.WeakAreas, analytics.StrongAreas,
		analytics.OverallSuccessRate, analytics.Trend, e.params)
}
