package adaptive

import (
	"sort"
	"time"

	"github.com/phrazzld/mastery-api/internal/domain"
)

// Analytics is the cross-topic view of a learner's attempts within a window.
type Analytics struct {
	Since              time.Time             `json:"since"`
	TotalAttempts      int                   `json:"total_attempts"`
	OverallSuccessRate float64               `json:"overall_success_rate"`
	Trend              domain.Trend          `json:"trend"`
	Topics             []domain.TopicSummary `json:"topics"`
	WeakAreas          []domain.TopicSummary `json:"weak_areas"`
	StrongAreas        []domain.TopicSummary `json:"strong_areas"`
}

type topicKey struct {
	subject string
	topic   string
}

// buildAnalytics reduces attempts completed at or after since into per-topic summaries.
// Weak areas are sorted weakest first and strong areas strongest first.
func buildAnalytics(attempts []domain.Attempt, since time.Time, params *Params) Analytics {
	result := Analytics{
		Since:       since,
		Topics:      []domain.TopicSummary{},
		WeakAreas:   []domain.TopicSummary{},
		StrongAreas: []domain.TopicSummary{},
	}

	window := make([]domain.Attempt, 0, len(attempts))
	for _, a := range attempts {
		if !a.CompletedAt.Before(since) {
			window = append(window, a)
		}
	}
	result.TotalAttempts = len(window)

	sums := make(map[topicKey]*domain.TopicSummary)
	var totalScore, totalMax int
	for i := range window {
		a := &window[i]
		totalScore += a.Score
		totalMax += a.MaxScore

		k := topicKey{subject: a.Subject, topic: a.Topic}
		s, ok := sums[k]
		if !ok {
			s = &domain.TopicSummary{Subject: a.Subject, Topic: a.Topic}
			sums[k] = s
		}
		s.Attempts++
		// running total of ratios, divided below
		s.AverageScore += a.Ratio()
	}

	for _, s := range sums {
		s.AverageScore /= float64(s.Attempts)
		result.Topics = append(result.Topics, *s)
	}
	sort.Slice(result.Topics, func(i, j int) bool {
		if result.Topics[i].Subject != result.Topics[j].Subject {
			return result.Topics[i].Subject < result.Topics[j].Subject
		}
		return result.Topics[i].Topic < result.Topics[j].Topic
	})

	for _, s := range result.Topics {
		switch {
		case s.AverageScore < params.WeakAreaThreshold:
			result.WeakAreas = append(result.WeakAreas, s)
		case s.AverageScore > params.StrongAreaThreshold:
			result.StrongAreas = append(result.StrongAreas, s)
		}
	}
	sort.SliceStable(result.WeakAreas, func(i, j int) bool {
		return result.WeakAreas[i].AverageScore < result.WeakAreas[j].AverageScore
	})
	sort.SliceStable(result.StrongAreas, func(i, j int) bool {
		return result.StrongAreas[i].AverageScore > result.StrongAreas[j].AverageScore
	})

	if totalMax > 0 {
		result.OverallSuccessRate = float64(totalScore) / float64(totalMax)
	}
	result.Trend = analyzeTrend(attemptRatios(window), params)

	return result
}
