package adaptive

import (
	"errors"
	"fmt"

	"github.com/phrazzld/mastery-api/internal/domain"
)

// ErrInvalidParams is returned when a policy fails validation.
var ErrInvalidParams = errors.New("invalid adaptive params")

// IntervalSource selects how CalculateNextDifficulty fills in the
// spaced-repetition interval of its result.
type IntervalSource string

const (
	// IntervalFromScheduler reports the interval of the full scheduler.
	IntervalFromScheduler IntervalSource = "scheduler"

	// IntervalBucketEstimate reports the cheap bucketed estimate.
	IntervalBucketEstimate IntervalSource = "bucket"
)

// MasteryRule is one row of the mastery decision table.
type MasteryRule struct {
	Level          domain.MasteryLevel
	MinSuccessRate float64
	MinConsistency float64
}

// IntervalBucket maps a minimum recent average to a value.
type IntervalBucket struct {
	MinScore float64
	Value    float64
}

// Params defines the policy of the adaptive engine.
// A Params value is never mutated after construction; the engine holds it by pointer
// and all calculations read from it.
type Params struct {
	// Difficulty control loop
	MinDifficulty            int
	MaxDifficulty            int
	TargetSuccessRate        float64
	Tolerance                float64
	MinAttemptsForAdjustment int
	IncreaseThreshold        float64
	DecreaseThreshold        float64

	// Mastery classification. Rules are evaluated in order; first match wins.
	MinAttemptsForMastery int
	MasteryRules          []MasteryRule
	BloomOffsets          map[domain.MasteryLevel]int

	// Spaced repetition
	IntervalSource     IntervalSource
	IntervalMultiplier []IntervalBucket
	EstimateBuckets    []IntervalBucket
	MaxIntervalDays    int
	MaxEstimateDays    int
	DefaultEaseFactor  float64
	MinEaseFactor      float64
	MaxEaseFactor      float64
	EaseHighBoundary   float64
	EaseLowBoundary    float64
	EaseGain           float64
	EasePenalty        float64

	// Trend detection
	TrendWindow         int
	TrendMinPoints      int
	TrendSlopeThreshold float64

	// Recommendations
	WeakAreaThreshold   float64
	StrongAreaThreshold float64
	MaxRecommendations  int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the default.
type ParamsConfig struct {
	MinDifficulty            int
	MaxDifficulty            int
	TargetSuccessRate        float64
	Tolerance                float64
	MinAttemptsForAdjustment int
	IncreaseThreshold        float64
	DecreaseThreshold        float64

	MinAttemptsForMastery int

	IntervalSource    IntervalSource
	MaxIntervalDays   int
	DefaultEaseFactor float64
	MinEaseFactor     float64
	MaxEaseFactor     float64

	TrendSlopeThreshold float64

	WeakAreaThreshold   float64
	StrongAreaThreshold float64
	MaxRecommendations  int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinDifficulty:            domain.MinDifficulty,
		MaxDifficulty:            domain.MaxDifficulty,
		TargetSuccessRate:        0.65,
		Tolerance:                0.05,
		MinAttemptsForAdjustment: 3,
		IncreaseThreshold:        0.80,
		DecreaseThreshold:        0.50,

		MinAttemptsForMastery: 3,
		MasteryRules: []MasteryRule{
			{Level: domain.MasteryMastered, MinSuccessRate: 0.9, MinConsistency: 0.8},
			{Level: domain.MasteryAdvanced, MinSuccessRate: 0.8, MinConsistency: 0.7},
			{Level: domain.MasteryIntermediate, MinSuccessRate: 0.6, MinConsistency: 0.6},
		},
		BloomOffsets: map[domain.MasteryLevel]int{
			domain.MasteryBeginner:     0,
			domain.MasteryIntermediate: 1,
			domain.MasteryAdvanced:     2,
			domain.MasteryMastered:     3,
		},

		IntervalSource: IntervalFromScheduler,
		// Review soon when struggling
		IntervalMultiplier: []IntervalBucket{
			{MinScore: 0.9, Value: 2.5},
			{MinScore: 0.8, Value: 2.0},
			{MinScore: 0.7, Value: 1.5},
			{MinScore: 0.6, Value: 1.2},
			{MinScore: 0, Value: 1.0},
		},
		EstimateBuckets: []IntervalBucket{
			{MinScore: 0.9, Value: 7},
			{MinScore: 0.8, Value: 5},
			{MinScore: 0.7, Value: 3},
			{MinScore: 0.6, Value: 2},
			{MinScore: 0, Value: 1},
		},
		MaxIntervalDays:   180,
		MaxEstimateDays:   30,
		DefaultEaseFactor: 2.5,
		MinEaseFactor:     1.3,
		MaxEaseFactor:     3.0,
		EaseHighBoundary:  0.8,
		EaseLowBoundary:   0.6,
		EaseGain:          1.5,
		EasePenalty:       2.0,

		TrendWindow:         domain.ScoreWindowCapacity,
		TrendMinPoints:      3,
		TrendSlopeThreshold: 0.02,

		WeakAreaThreshold:   0.6,
		StrongAreaThreshold: 0.8,
		MaxRecommendations:  5,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	// Difficulty control loop
	if config.MinDifficulty > 0 {
		params.MinDifficulty = config.MinDifficulty
	}
	if config.MaxDifficulty > 0 {
		params.MaxDifficulty = config.MaxDifficulty
	}
	if config.TargetSuccessRate > 0 {
		params.TargetSuccessRate = config.TargetSuccessRate
	}
	if config.Tolerance > 0 {
		params.Tolerance = config.Tolerance
	}
	if config.MinAttemptsForAdjustment > 0 {
		params.MinAttemptsForAdjustment = config.MinAttemptsForAdjustment
	}
	if config.IncreaseThreshold > 0 {
		params.IncreaseThreshold = config.IncreaseThreshold
	}
	if config.DecreaseThreshold > 0 {
		params.DecreaseThreshold = config.DecreaseThreshold
	}

	// Mastery
	if config.MinAttemptsForMastery > 0 {
		params.MinAttemptsForMastery = config.MinAttemptsForMastery
	}

	// Spaced repetition
	if config.IntervalSource != "" {
		params.IntervalSource = config.IntervalSource
	}
	if config.MaxIntervalDays > 0 {
		params.MaxIntervalDays = config.MaxIntervalDays
	}
	if config.DefaultEaseFactor > 0 {
		params.DefaultEaseFactor = config.DefaultEaseFactor
	}
	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 {
		params.MaxEaseFactor = config.MaxEaseFactor
	}

	// Trend
	if config.TrendSlopeThreshold > 0 {
		params.TrendSlopeThreshold = config.TrendSlopeThreshold
	}

	// Recommendations
	if config.WeakAreaThreshold > 0 {
		params.WeakAreaThreshold = config.WeakAreaThreshold
	}
	if config.StrongAreaThreshold > 0 {
		params.StrongAreaThreshold = config.StrongAreaThreshold
	}
	if config.MaxRecommendations > 0 {
		params.MaxRecommendations = config.MaxRecommendations
	}

	return params
}

// Validate checks that the policy is internally consistent.
func (p *Params) Validate() error {
	switch {
	case p.MinDifficulty < 1 || p.MinDifficulty >= p.MaxDifficulty:
		return fmt.Errorf("%w: difficulty range [%d, %d]", ErrInvalidParams, p.MinDifficulty, p.MaxDifficulty)
	case !isRate(p.TargetSuccessRate) || !isRate(p.Tolerance):
		return fmt.Errorf("%w: target %.2f tolerance %.2f", ErrInvalidParams, p.TargetSuccessRate, p.Tolerance)
	case !isRate(p.IncreaseThreshold) || !isRate(p.DecreaseThreshold) ||
		p.DecreaseThreshold >= p.IncreaseThreshold:
		return fmt.Errorf("%w: thresholds decrease %.2f increase %.2f",
			ErrInvalidParams, p.DecreaseThreshold, p.IncreaseThreshold)
	case p.MinAttemptsForAdjustment < 1 || p.MinAttemptsForMastery < 1:
		return fmt.Errorf("%w: minimum attempts must be positive", ErrInvalidParams)
	case len(p.MasteryRules) == 0:
		return fmt.Errorf("%w: no mastery rules", ErrInvalidParams)
	case p.IntervalSource != IntervalFromScheduler && p.IntervalSource != IntervalBucketEstimate:
		return fmt.Errorf("%w: unknown interval source %q", ErrInvalidParams, p.IntervalSource)
	case len(p.IntervalMultiplier) == 0 || len(p.EstimateBuckets) == 0:
		return fmt.Errorf("%w: interval buckets cannot be empty", ErrInvalidParams)
	case p.MaxIntervalDays < 1 || p.MaxEstimateDays < 1:
		return fmt.Errorf("%w: interval caps must be positive", ErrInvalidParams)
	case p.MinEaseFactor <= 1.0 || p.MinEaseFactor > p.MaxEaseFactor ||
		p.DefaultEaseFactor < p.MinEaseFactor || p.DefaultEaseFactor > p.MaxEaseFactor:
		return fmt.Errorf("%w: ease factor default %.2f range [%.2f, %.2f]",
			ErrInvalidParams, p.DefaultEaseFactor, p.MinEaseFactor, p.MaxEaseFactor)
	case p.TrendWindow < p.TrendMinPoints || p.TrendMinPoints < 2:
		return fmt.Errorf("%w: trend window %d min points %d", ErrInvalidParams, p.TrendWindow, p.TrendMinPoints)
	case !isRate(p.WeakAreaThreshold) || !isRate(p.StrongAreaThreshold) ||
		p.WeakAreaThreshold > p.StrongAreaThreshold:
		return fmt.Errorf("%w: weak %.2f strong %.2f", ErrInvalidParams, p.WeakAreaThreshold, p.StrongAreaThreshold)
	case p.MaxRecommendations < 1:
		return fmt.Errorf("%w: max recommendations must be positive", ErrInvalidParams)
	}

	for _, rule := range p.MasteryRules {
		if !rule.Level.IsValid() {
			return fmt.Errorf("%w: %w %q", ErrInvalidParams, domain.ErrInvalidMasteryLevel, rule.Level)
		}
	}
	return nil
}

func isRate(v float64) bool {
	return v >= 0 && v <= 1
}
