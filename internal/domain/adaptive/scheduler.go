package adaptive

import (
	"math"
	"time"

	"github.com/phrazzld/mastery-api/internal/domain"
)

// schedule produces the next review of a topic.
//
// Parameters:
//   - perf: The performance record after the latest fold-in
//   - now: The reference time the interval is added to
//   - params: Policy holding the multiplier buckets, interval cap and ease bounds
//
// Returns:
//   - A SpacedRepetitionItem whose interval is at least one day and at most
//     params.MaxIntervalDays, and whose ease factor lies within the configured bounds
//
// Algorithm behavior:
//   - The base interval grows with experience: max(1, attempts/2) days
//   - A recent average near perfect multiplies the base by up to 2.5; struggling keeps it at 1.0
//   - The ease factor moves away from the default in proportion to how far the recent
//     average sits above the high boundary or below the low boundary
func schedule(perf *domain.TopicPerformance, now time.Time, params *Params) domain.SpacedRepetitionItem {
	interval := scheduleInterval(perf, params)

	return domain.SpacedRepetitionItem{
		LearnerID:       perf.Key.LearnerID,
		Subject:         perf.Key.Subject,
		Topic:           perf.Key.Topic,
		Grade:           perf.Key.Grade,
		NextReviewDate:  now.AddDate(0, 0, interval),
		IntervalDays:    interval,
		EaseFactor:      easeFactor(perf.AverageRecentScore(), params),
		RepetitionCount: perf.Attempts,
	}
}

func scheduleInterval(perf *domain.TopicPerformance, params *Params) int {
	multiplier := bucketValue(params.IntervalMultiplier, perf.AverageRecentScore())
	base := max(1, perf.Attempts/2)

	interval := int(math.Round(float64(base) * multiplier))
	return clampInt(interval, 1, params.MaxIntervalDays)
}

func easeFactor(r float64, params *Params) float64 {
	ef := params.DefaultEaseFactor
	switch {
	case r >= params.EaseHighBoundary:
		ef += (r - params.EaseHighBoundary) * params.EaseGain
	case r < params.EaseLowBoundary:
		ef -= (params.EaseLowBoundary - r) * params.EasePenalty
	}
	return clampFloat(ef, params.MinEaseFactor, params.MaxEaseFactor)
}
