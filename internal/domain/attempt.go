package domain

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Difficulty bounds shared by attempts and performance records.
const (
	MinDifficulty = 1
	MaxDifficulty = 10
)

// PerformanceKey identifies one TopicPerformance record.
type PerformanceKey struct {
	LearnerID uuid.UUID `json:"learner_id"`
	Subject   string    `json:"subject"`
	Topic     string    `json:"topic"`
	Grade     int       `json:"grade"`
}

// String renders the key in a stable form suitable for lock names and logs.
// Subject and topic are path-escaped so distinct keys never render alike.
func (k PerformanceKey) String() string {
	var b strings.Builder
	b.WriteString(k.LearnerID.String())
	b.WriteByte('/')
	b.WriteString(url.PathEscape(k.Subject))
	b.WriteByte('/')
	b.WriteString(url.PathEscape(k.Topic))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(k.Grade))
	return b.String()
}

// Validate checks that every component of the key is present.
func (k PerformanceKey) Validate() error {
	if k.LearnerID == uuid.Nil {
		return NewValidationError("learner_id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(k.Subject) == "" {
		return NewValidationError("subject", "cannot be empty", nil)
	}
	if strings.TrimSpace(k.Topic) == "" {
		return NewValidationError("topic", "cannot be empty", nil)
	}
	if k.Grade < 0 {
		return NewValidationError("grade", "must be greater than or equal to 0", nil)
	}
	return nil
}

// Attempt is a graded quiz attempt as delivered by the quiz-submission flow.
type Attempt struct {
	ID              uuid.UUID `json:"id"`
	LearnerID       uuid.UUID `json:"learner_id"`
	Subject         string    `json:"subject"`
	Topic           string    `json:"topic"`
	Grade           int       `json:"grade"`
	Score           int       `json:"score"`
	MaxScore        int       `json:"max_score"`
	DifficultyLevel int       `json:"difficulty_level"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Key returns the performance key this attempt contributes to.
func (a *Attempt) Key() PerformanceKey {
	return PerformanceKey{
		LearnerID: a.LearnerID,
		Subject:   a.Subject,
		Topic:     a.Topic,
		Grade:     a.Grade,
	}
}

// Ratio returns score/max_score, or 0 when max_score is 0.
func (a *Attempt) Ratio() float64 {
	if a.MaxScore == 0 {
		return 0
	}
	return float64(a.Score) / float64(a.MaxScore)
}

// Validate checks that the attempt can be folded into a performance record.
// Invalid grades are rejected rather than coerced.
func (a *Attempt) Validate() error {
	if err := a.Key().Validate(); err != nil {
		return err
	}
	if a.Score < 0 {
		return NewValidationError("score", "must be greater than or equal to 0", nil)
	}
	if a.MaxScore < 0 {
		return NewValidationError("max_score", "must be greater than or equal to 0", nil)
	}
	if a.Score > a.MaxScore {
		return NewValidationError("score", "cannot exceed max_score", nil)
	}
	if a.DifficultyLevel < MinDifficulty || a.DifficultyLevel > MaxDifficulty {
		return NewValidationError("difficulty_level", "must be between 1 and 10", nil)
	}
	if a.CompletedAt.IsZero() {
		return NewValidationError("completed_at", "must be a valid timestamp", ErrInvalidFormat)
	}
	return nil
}
