package adaptive

import (
	"sort"

	"github.com/phrazzld/mastery-api/internal/domain"
)

// analyzeTrend classifies the direction of a chronologically ordered score sequence.
//
// Only the last params.TrendWindow scores are considered. The ordinary least squares slope of
// score against attempt index decides the trend; a slope within the threshold is stable.
func analyzeTrend(scores []float64, params *Params) domain.Trend {
	if len(scores) > params.TrendWindow {
		scores = scores[len(scores)-params.TrendWindow:]
	}
	if len(scores) < params.TrendMinPoints {
		return domain.TrendInsufficientData
	}

	slope, ok := olsSlope(scores)
	if !ok {
		return domain.TrendStable
	}

	switch {
	case slope > params.TrendSlopeThreshold:
		return domain.TrendImproving
	case slope < -params.TrendSlopeThreshold:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

// olsSlope regresses ys against 0..n-1. ok is false when the index has no variance.
func olsSlope(ys []float64) (slope float64, ok bool) {
	n := float64(len(ys))
	meanX := (n - 1) / 2
	meanY := average(ys)

	var num, den float64
	for i, y := range ys {
		dx := float64(i) - meanX
		num += dx * (y - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}

// attemptRatios returns the score ratios of attempts ordered by completion time.
// The input slice is not reordered.
func attemptRatios(attempts []domain.Attempt) []float64 {
	ordered := make([]domain.Attempt, len(attempts))
	copy(ordered, attempts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CompletedAt.Before(ordered[j].CompletedAt)
	})

	ratios := make([]float64, len(ordered))
	for i := range ordered {
		ratios[i] = ordered[i].Ratio()
	}
	return ratios
}
