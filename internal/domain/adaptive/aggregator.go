package adaptive

import (
	"fmt"
	"time"

	"github.com/phrazzld/mastery-api/internal/domain"
)

// foldIn folds a graded attempt into a performance record and returns the updated copy.
//
// The input record is never modified. When perf is nil a fresh record is created for the
// attempt's key, which is how a topic's record comes into existence on its first attempt.
//
// Parameters:
//   - perf: The current performance record, or nil for a topic never attempted before
//   - attempt: A validated attempt whose key matches perf.Key
//   - params: Policy used to recompute the mastery level
//
// Returns:
//   - A new TopicPerformance with the attempt applied
//   - domain.ErrKeyMismatch when the attempt belongs to a different record
func foldIn(
	perf *domain.TopicPerformance,
	attempt *domain.Attempt,
	params *Params,
) (*domain.TopicPerformance, error) {
	if perf == nil {
		created, err := domain.NewTopicPerformance(attempt.Key())
		if err != nil {
			return nil, err
		}
		perf = created
	}

	if perf.Key != attempt.Key() {
		return nil, fmt.Errorf("%w: attempt %s, record %s",
			domain.ErrKeyMismatch, attempt.Key(), perf.Key)
	}

	next := perf.Clone()
	next.Attempts++
	next.TotalScore += attempt.Score
	next.MaxPossibleScore += attempt.MaxScore
	next.RecentScores.Push(attempt.Ratio())
	next.LastAttempt = attempt.CompletedAt
	next.MasteryLevel = classifyMastery(next, params)
	next.UpdatedAt = time.Now().UTC()

	return next, nil
}
