package domain

import (
	"errors"
	"time"
)

// DefaultDifficulty is the difficulty a new topic starts at.
const DefaultDifficulty = 5

// RecentAverageWindow is the number of most recent ratios averaged by
// AverageRecentScore.
const RecentAverageWindow = 5

// Common validation errors for TopicPerformance
var (
	ErrInvalidDifficulty  = errors.New("difficulty must be between 1 and 10")
	ErrInvalidTotals      = errors.New("total score must be between 0 and max possible score")
	ErrInvalidAttemptsNum = errors.New("attempts must be greater than or equal to 0")
)

// TopicPerformance is the rolling performance record for one
// (learner, subject, topic, grade) tuple.
//
// Only the adaptive engine mutates CurrentDifficulty and MasteryLevel; the
// service layer persists the record after each fold-in.
type TopicPerformance struct {
	Key               PerformanceKey `json:"key"`
	Attempts          int            `json:"attempts"`
	TotalScore        int            `json:"total_score"`
	MaxPossibleScore  int            `json:"max_possible_score"`
	CurrentDifficulty int            `json:"current_difficulty"`
	RecentScores      ScoreWindow    `json:"recent_scores"`
	LastAttempt       time.Time      `json:"last_attempt"`
	MasteryLevel      MasteryLevel   `json:"mastery_level"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewTopicPerformance creates an empty record for the given key.
func NewTopicPerformance(key PerformanceKey) (*TopicPerformance, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &TopicPerformance{
		Key:               key,
		CurrentDifficulty: DefaultDifficulty,
		MasteryLevel:      MasteryBeginner,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// SuccessRate is the cumulative fraction of points earned, or 0 before any
// points were possible.
func (p *TopicPerformance) SuccessRate() float64 {
	if p.MaxPossibleScore == 0 {
		return 0
	}
	return float64(p.TotalScore) / float64(p.MaxPossibleScore)
}

// AverageRecentScore is the mean of the last five score ratios.
func (p *TopicPerformance) AverageRecentScore() float64 {
	return p.RecentScores.MeanOfLast(RecentAverageWindow)
}

// Clone returns a deep copy of the record.
func (p *TopicPerformance) Clone() *TopicPerformance {
	c := *p
	return &c
}

// Validate checks the record's invariants.
func (p *TopicPerformance) Validate() error {
	if err := p.Key.Validate(); err != nil {
		return err
	}
	if p.Attempts < 0 {
		return ErrInvalidAttemptsNum
	}
	if p.MaxPossibleScore < 0 || p.TotalScore < 0 || p.TotalScore > p.MaxPossibleScore {
		return ErrInvalidTotals
	}
	if p.CurrentDifficulty < MinDifficulty || p.CurrentDifficulty > MaxDifficulty {
		return ErrInvalidDifficulty
	}
	if !p.MasteryLevel.IsValid() {
		return ErrInvalidMasteryLevel
	}
	return nil
}
