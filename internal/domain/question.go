package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Bloom level bounds of a generated question.
const (
	MinBloomLevel = 1
	MaxBloomLevel = 6
)

// Common validation errors for Question
var (
	ErrEmptyQuestionPrompt = errors.New("question prompt cannot be empty")
	ErrEmptyQuestionAnswer = errors.New("question answer cannot be empty")
	ErrInvalidBloomLevel   = errors.New("bloom level must be between 1 and 6")
)

// Question is a practice question generated for a learner at a given difficulty
// and Bloom level.
type Question struct {
	ID          uuid.UUID `json:"id"`
	LearnerID   uuid.UUID `json:"learner_id"`
	Subject     string    `json:"subject"`
	Topic       string    `json:"topic"`
	Grade       int       `json:"grade"`
	Difficulty  int       `json:"difficulty"`
	BloomLevel  int       `json:"bloom_level"`
	Prompt      string    `json:"prompt"`
	Choices     []string  `json:"choices,omitempty"`
	Answer      string    `json:"answer"`
	Explanation string    `json:"explanation,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewQuestion creates a question for the given key at the given difficulty and Bloom level.
func NewQuestion(
	key PerformanceKey,
	difficulty, bloomLevel int,
	prompt, answer string,
	choices []string,
) (*Question, error) {
	q := &Question{
		ID:         uuid.New(),
		LearnerID:  key.LearnerID,
		Subject:    key.Subject,
		Topic:      key.Topic,
		Grade:      key.Grade,
		Difficulty: difficulty,
		BloomLevel: bloomLevel,
		Prompt:     strings.TrimSpace(prompt),
		Choices:    choices,
		Answer:     strings.TrimSpace(answer),
		CreatedAt:  time.Now().UTC(),
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Validate checks that the question is usable.
func (q *Question) Validate() error {
	if q.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	key := PerformanceKey{LearnerID: q.LearnerID, Subject: q.Subject, Topic: q.Topic, Grade: q.Grade}
	if err := key.Validate(); err != nil {
		return err
	}
	if q.Difficulty < MinDifficulty || q.Difficulty > MaxDifficulty {
		return ErrInvalidDifficulty
	}
	if q.BloomLevel < MinBloomLevel || q.BloomLevel > MaxBloomLevel {
		return ErrInvalidBloomLevel
	}
	if q.Prompt == "" {
		return ErrEmptyQuestionPrompt
	}
	if q.Answer == "" {
		return ErrEmptyQuestionAnswer
	}
	return nil
}
