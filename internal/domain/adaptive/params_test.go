package adaptive

import (
	"testing"

	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultParams(t *testing.T) {
	t.Parallel()

	params := NewDefaultParams()
	require.NoError(t, params.Validate())

	assert.Equal(t, 1, params.MinDifficulty)
	assert.Equal(t, 10, params.MaxDifficulty)
	assert.Equal(t, 0.65, params.TargetSuccessRate)
	assert.Equal(t, 0.05, params.Tolerance)
	assert.Equal(t, 3, params.MinAttemptsForAdjustment)
	assert.Equal(t, 0.80, params.IncreaseThreshold)
	assert.Equal(t, 0.50, params.DecreaseThreshold)
	assert.Equal(t, 180, params.MaxIntervalDays)
	assert.Equal(t, 2.5, params.DefaultEaseFactor)
	assert.Equal(t, IntervalFromScheduler, params.IntervalSource)
	assert.Equal(t, 5, params.MaxRecommendations)

	require.Len(t, params.MasteryRules, 3)
	assert.Equal(t, domain.MasteryMastered, params.MasteryRules[0].Level)
	assert.Equal(t, domain.MasteryIntermediate, params.MasteryRules[2].Level)
}

func TestNewParams(t *testing.T) {
	t.Parallel()

	t.Run("overrides non-zero fields only", func(t *testing.T) {
		t.Parallel()

		params := NewParams(ParamsConfig{
			TargetSuccessRate: 0.7,
			MaxIntervalDays:   90,
			IntervalSource:    IntervalBucketEstimate,
		})

		assert.Equal(t, 0.7, params.TargetSuccessRate)
		assert.Equal(t, 90, params.MaxIntervalDays)
		assert.Equal(t, IntervalBucketEstimate, params.IntervalSource)
		assert.Equal(t, 0.05, params.Tolerance, "unset fields keep defaults")
		assert.NoError(t, params.Validate())
	})

	t.Run("does not share state with defaults", func(t *testing.T) {
		t.Parallel()

		a := NewParams(ParamsConfig{})
		b := NewDefaultParams()
		a.MasteryRules[0].MinSuccessRate = 0.5

		assert.Equal(t, 0.9, b.MasteryRules[0].MinSuccessRate)
	})
}

func TestParams_Validate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		mutate func(p *Params)
	}{
		{name: "min difficulty equals max", mutate: func(p *Params) { p.MinDifficulty = 10 }},
		{name: "min difficulty zero", mutate: func(p *Params) { p.MinDifficulty = 0 }},
		{name: "target above one", mutate: func(p *Params) { p.TargetSuccessRate = 1.2 }},
		{name: "decrease above increase", mutate: func(p *Params) { p.DecreaseThreshold = 0.9 }},
		{name: "no mastery rules", mutate: func(p *Params) { p.MasteryRules = nil }},
		{name: "unknown mastery level", mutate: func(p *Params) { p.MasteryRules[0].Level = "expert" }},
		{name: "unknown interval source", mutate: func(p *Params) { p.IntervalSource = "magic" }},
		{name: "empty multiplier buckets", mutate: func(p *Params) { p.IntervalMultiplier = nil }},
		{name: "ease default outside range", mutate: func(p *Params) { p.DefaultEaseFactor = 3.5 }},
		{name: "trend window too small", mutate: func(p *Params) { p.TrendWindow = 2 }},
		{name: "weak above strong", mutate: func(p *Params) { p.WeakAreaThreshold = 0.9 }},
		{name: "no recommendations", mutate: func(p *Params) { p.MaxRecommendations = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			params := NewDefaultParams()
			tc.mutate(params)
			assert.ErrorIs(t, params.Validate(), ErrInvalidParams)
		})
	}
}
