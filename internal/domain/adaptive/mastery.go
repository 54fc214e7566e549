package adaptive

import (
	"math"

	"github.com/phrazzld/mastery-api/internal/domain"
)

// classifyMastery derives the mastery level of a performance record.
//
// Records with fewer than MinAttemptsForMastery attempts are always beginners. Otherwise the
// ordered rules in params.MasteryRules are checked top-down against the cumulative success
// rate and the consistency of the recent scores; the first rule satisfied wins.
func classifyMastery(perf *domain.TopicPerformance, params *Params) domain.MasteryLevel {
	if perf.Attempts < params.MinAttemptsForMastery {
		return domain.MasteryBeginner
	}

	rate := perf.SuccessRate()
	cons := consistency(perf.RecentScores.Values())

	for _, rule := range params.MasteryRules {
		if rate >= rule.MinSuccessRate && cons >= rule.MinConsistency {
			return rule.Level
		}
	}
	return domain.MasteryBeginner
}

// consistency is the inverse coefficient of variation of the scores, clamped to [0, 1].
// Fewer than two samples or a zero mean count as fully inconsistent.
func consistency(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}

	mean := average(scores)
	if mean == 0 {
		return 0
	}

	return clampFloat(1-sampleStdDev(scores, mean)/mean, 0, 1)
}

// sampleStdDev uses the n-1 denominator.
func sampleStdDev(values []float64, mean float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
