package adaptive

import (
	"fmt"

	"github.com/phrazzld/mastery-api/internal/domain"
)

// NoActivityRecommendation is returned when nothing more specific applies.
const NoActivityRecommendation = "Keep practising consistently to build a clearer picture of your progress"

// recommend turns analytics into prioritised guidance, at most params.MaxRecommendations lines.
//
// Priority order:
//  1. the weakest weak area
//  2. trend guidance
//  3. overall success rate guidance
//  4. the strongest areas, when there are at least two
func recommend(
	weak, strong []domain.TopicSummary,
	overall float64,
	trend domain.Trend,
	params *Params,
) []string {
	recs := make([]string, 0, params.MaxRecommendations)

	if w, ok := weakest(weak); ok {
		recs = append(recs, fmt.Sprintf(
			"Focus on %s in %s: your average score is %.0f%%", w.Topic, w.Subject, w.AverageScore*100))
	}

	switch trend {
	case domain.TrendDeclining:
		recs = append(recs,
			"Your recent scores are declining; review earlier material and take short breaks between sessions")
	case domain.TrendImproving:
		recs = append(recs, "Your scores are improving; try more challenging material")
	}

	switch {
	case overall < params.WeakAreaThreshold:
		recs = append(recs, fmt.Sprintf(
			"Strengthen the fundamentals: your overall success rate is %.0f%%", overall*100))
	case overall > params.StrongAreaThreshold:
		recs = append(recs, fmt.Sprintf(
			"With an overall success rate of %.0f%% you are ready for advanced topics", overall*100))
	}

	if len(strong) >= 2 {
		first, second := strongestTwo(strong)
		recs = append(recs, fmt.Sprintf(
			"Build on your strengths in %s and %s", first.Topic, second.Topic))
	}

	if len(recs) == 0 {
		recs = append(recs, NoActivityRecommendation)
	}
	if len(recs) > params.MaxRecommendations {
		recs = recs[:params.MaxRecommendations]
	}
	return recs
}

func weakest(areas []domain.TopicSummary) (domain.TopicSummary, bool) {
	if len(areas) == 0 {
		return domain.TopicSummary{}, false
	}
	w := areas[0]
	for _, a := range areas[1:] {
		if a.AverageScore < w.AverageScore {
			w = a
		}
	}
	return w, true
}

// strongestTwo expects at least two areas.
func strongestTwo(areas []domain.TopicSummary) (domain.TopicSummary, domain.TopicSummary) {
	first, second := areas[0], areas[1]
	if second.AverageScore > first.AverageScore {
		first, second = second, first
	}
	for _, a := range areas[2:] {
		switch {
		case a.AverageScore > first.AverageScore:
			first, second = a, first
		case a.AverageScore > second.AverageScore:
			second = a
		}
	}
	return first, second
}
