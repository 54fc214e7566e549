package adaptive

import (
	"fmt"

	"github.com/phrazzld/mastery-api/internal/domain"
)

// Fixed values reported while a topic has too few attempts to adjust.
const (
	insufficientConfidence = 0.3
	insufficientBloomLevel = 2
	insufficientInterval   = 1
)

// Confidence reported by the two inner branches of the control loop.
const (
	nudgeConfidence  = 0.6
	steadyConfidence = 0.5
	maxConfidence    = 0.9
)

// Bloom level bounds and the difficulty around which the Bloom level is centred.
const (
	minBloomLevel  = 1
	maxBloomLevel  = 6
	baseBloomLevel = 2
)

// calculateNextDifficulty decides the difficulty of the next question for a topic.
//
// The decision is a banded control loop around params.TargetSuccessRate driven by the
// average of the most recent scores:
//   - above IncreaseThreshold the difficulty goes up one step
//   - below DecreaseThreshold it goes down one step
//   - outside the tolerance band it is nudged one step toward the target
//   - inside the band it is left alone
//
// At most one step is taken per decision and the result is always within
// [params.MinDifficulty, params.MaxDifficulty].
func calculateNextDifficulty(perf *domain.TopicPerformance, params *Params) domain.DifficultyAdjustment {
	old := perf.CurrentDifficulty

	if perf.Attempts < params.MinAttemptsForAdjustment {
		return domain.DifficultyAdjustment{
			OldDifficulty: old,
			NewDifficulty: old,
			Reason: fmt.Sprintf("Insufficient attempts (%d of %d) to adjust difficulty",
				perf.Attempts, params.MinAttemptsForAdjustment),
			Confidence:               insufficientConfidence,
			RecommendedBloomLevel:    insufficientBloomLevel,
			SpacedRepetitionInterval: insufficientInterval,
		}
	}

	r := perf.AverageRecentScore()
	next := old
	var reason string
	var confidence float64

	switch {
	case r > params.IncreaseThreshold:
		next = old + 1
		confidence = min(maxConfidence, r)
		reason = fmt.Sprintf("High success rate (%.0f%%), increasing difficulty", r*100)
	case r < params.DecreaseThreshold:
		next = old - 1
		confidence = min(maxConfidence, 1-r)
		reason = fmt.Sprintf("Low success rate (%.0f%%), decreasing difficulty", r*100)
	case r-params.TargetSuccessRate > params.Tolerance:
		next = old + 1
		confidence = nudgeConfidence
		reason = fmt.Sprintf("Success rate (%.0f%%) above target (%.0f%%), nudging difficulty up",
			r*100, params.TargetSuccessRate*100)
	case params.TargetSuccessRate-r > params.Tolerance:
		next = old - 1
		confidence = nudgeConfidence
		reason = fmt.Sprintf("Success rate (%.0f%%) below target (%.0f%%), nudging difficulty down",
			r*100, params.TargetSuccessRate*100)
	default:
		confidence = steadyConfidence
		reason = fmt.Sprintf("Success rate (%.0f%%) within target band, keeping difficulty", r*100)
	}
	next = clampInt(next, params.MinDifficulty, params.MaxDifficulty)

	var interval int
	switch params.IntervalSource {
	case IntervalBucketEstimate:
		interval = estimateInterval(perf, params)
	default:
		interval = scheduleInterval(perf, params)
	}

	return domain.DifficultyAdjustment{
		OldDifficulty:            old,
		NewDifficulty:            next,
		Reason:                   reason,
		Confidence:               confidence,
		RecommendedBloomLevel:    bloomLevel(perf.MasteryLevel, next, params),
		SpacedRepetitionInterval: interval,
	}
}

// bloomLevel ties cognitive demand to both mastery and numeric difficulty so a learner on hard
// questions without mastery is not pushed into create or evaluate tasks.
func bloomLevel(mastery domain.MasteryLevel, difficulty int, params *Params) int {
	level := baseBloomLevel + params.BloomOffsets[mastery] + floorDiv(difficulty-domain.DefaultDifficulty, 2)
	return clampInt(level, minBloomLevel, maxBloomLevel)
}

// estimateInterval is the bucketed interval estimate, scaled by experience and capped at
// params.MaxEstimateDays.
func estimateInterval(perf *domain.TopicPerformance, params *Params) int {
	base := bucketValue(params.EstimateBuckets, perf.AverageRecentScore())
	scale := min(3, 1+perf.Attempts/5)
	return min(params.MaxEstimateDays, int(base)*scale)
}

// bucketValue returns the value of the first bucket whose minimum r reaches.
// Buckets are ordered from the highest minimum down.
func bucketValue(buckets []IntervalBucket, r float64) float64 {
	for _, b := range buckets {
		if r >= b.MinScore {
			return b.Value
		}
	}
	return buckets[len(buckets)-1].Value
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
