package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
)

// Event types emitted by the learning service.
const (
	// TypeQuestionGenerationRequested asks for new practice questions at the
	// difficulty and Bloom level chosen by the latest adjustment.
	TypeQuestionGenerationRequested = "question_generation.requested"

	// TypeDifficultyAdjusted reports the outcome of a fold-in.
	TypeDifficultyAdjusted = "difficulty.adjusted"
)

// Event is a typed envelope passed from emitters to handlers.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type selects which handlers act on the event
	Type string `json:"type"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// QuestionGenerationPayload is the payload of TypeQuestionGenerationRequested.
type QuestionGenerationPayload struct {
	LearnerID    uuid.UUID           `json:"learner_id"`
	Subject      string              `json:"subject"`
	Topic        string              `json:"topic"`
	Grade        int                 `json:"grade"`
	Difficulty   int                 `json:"difficulty"`
	BloomLevel   int                 `json:"bloom_level"`
	MasteryLevel domain.MasteryLevel `json:"mastery_level"`
}

// Key returns the performance key the questions are requested for.
func (p QuestionGenerationPayload) Key() domain.PerformanceKey {
	return domain.PerformanceKey{
		LearnerID: p.LearnerID,
		Subject:   p.Subject,
		Topic:     p.Topic,
		Grade:     p.Grade,
	}
}

// DifficultyAdjustedPayload is the payload of TypeDifficultyAdjusted.
type DifficultyAdjustedPayload struct {
	Key          domain.PerformanceKey       `json:"key"`
	Adjustment   domain.DifficultyAdjustment `json:"adjustment"`
	Direction    domain.Direction            `json:"direction"`
	MasteryLevel domain.MasteryLevel         `json:"mastery_level"`
	NextReview   time.Time                   `json:"next_review"`
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}
