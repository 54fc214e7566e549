package domain

import (
	"time"

	"github.com/google/uuid"
)

// Direction describes how a difficulty adjustment moved the difficulty.
type Direction string

// Possible adjustment directions
const (
	DirectionIncrease  Direction = "increase"
	DirectionDecrease  Direction = "decrease"
	DirectionUnchanged Direction = "unchanged"
)

// DifficultyAdjustment is the outcome of one difficulty decision.
// It is a value object; the engine returns a fresh one per call.
type DifficultyAdjustment struct {
	OldDifficulty            int     `json:"old_difficulty"`
	NewDifficulty            int     `json:"new_difficulty"`
	Reason                   string  `json:"reason"`
	Confidence               float64 `json:"confidence"`
	RecommendedBloomLevel    int     `json:"recommended_bloom_level"`
	SpacedRepetitionInterval int     `json:"spaced_repetition_interval"` // days
}

// Direction reports whether the difficulty went up, down or stayed put.
func (a DifficultyAdjustment) Direction() Direction {
	switch {
	case a.NewDifficulty > a.OldDifficulty:
		return DirectionIncrease
	case a.NewDifficulty < a.OldDifficulty:
		return DirectionDecrease
	default:
		return DirectionUnchanged
	}
}

// SpacedRepetitionItem is the review schedule produced for one topic.
type SpacedRepetitionItem struct {
	LearnerID       uuid.UUID `json:"learner_id"`
	Subject         string    `json:"subject"`
	Topic           string    `json:"topic"`
	Grade           int       `json:"grade"`
	NextReviewDate  time.Time `json:"next_review_date"`
	IntervalDays    int       `json:"interval_days"`
	EaseFactor      float64   `json:"ease_factor"`
	RepetitionCount int       `json:"repetition_count"`
}

// Key returns the performance key the item was scheduled for.
func (s *SpacedRepetitionItem) Key() PerformanceKey {
	return PerformanceKey{
		LearnerID: s.LearnerID,
		Subject:   s.Subject,
		Topic:     s.Topic,
		Grade:     s.Grade,
	}
}

// TopicSummary is one row of cross-topic analytics.
type TopicSummary struct {
	Subject      string  `json:"subject"`
	Topic        string  `json:"topic"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"average_score"`
}
