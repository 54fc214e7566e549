package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/generation"
)

// Common errors
var (
	ErrNilGenerator     = errors.New("generator cannot be nil")
	ErrNilQuestionStore = errors.New("question store cannot be nil")
	ErrNilLogger        = errors.New("logger cannot be nil")
)

// QuestionStore is the persistence the task needs for generated questions
type QuestionStore interface {
	CreateMultiple(ctx context.Context, questions []*domain.Question) error
}

// questionGenerationPayload represents the serialized data stored in the task
type questionGenerationPayload struct {
	LearnerID    uuid.UUID           `json:"learner_id"`
	Subject      string              `json:"subject"`
	Topic        string              `json:"topic"`
	Grade        int                 `json:"grade"`
	Difficulty   int                 `json:"difficulty"`
	BloomLevel   int                 `json:"bloom_level"`
	MasteryLevel domain.MasteryLevel `json:"mastery_level"`
	Count        int                 `json:"count"`
}

func payloadFromRequest(req generation.QuestionRequest) questionGenerationPayload {
	return questionGenerationPayload{
		LearnerID:    req.Key.LearnerID,
		Subject:      req.Key.Subject,
		Topic:        req.Key.Topic,
		Grade:        req.Key.Grade,
		Difficulty:   req.Difficulty,
		BloomLevel:   req.BloomLevel,
		MasteryLevel: req.MasteryLevel,
		Count:        req.Count,
	}
}

func (p questionGenerationPayload) request() generation.QuestionRequest {
	return generation.QuestionRequest{
		Key: domain.PerformanceKey{
			LearnerID: p.LearnerID,
			Subject:   p.Subject,
			Topic:     p.Topic,
			Grade:     p.Grade,
		},
		Difficulty:   p.Difficulty,
		BloomLevel:   p.BloomLevel,
		MasteryLevel: p.MasteryLevel,
		Count:        p.Count,
	}
}

// QuestionGenerationTask implements the Task interface for generating practice
// questions at the difficulty and Bloom level of the latest adjustment
type QuestionGenerationTask struct {
	id        uuid.UUID
	request   generation.QuestionRequest
	generator generation.Generator
	questions QuestionStore
	logger    *slog.Logger
	status    TaskStatus
}

// NewQuestionGenerationTask creates a new question generation task
func NewQuestionGenerationTask(
	id uuid.UUID,
	req generation.QuestionRequest,
	generator generation.Generator,
	questions QuestionStore,
	logger *slog.Logger,
) (*QuestionGenerationTask, error) {
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if questions == nil {
		return nil, ErrNilQuestionStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &QuestionGenerationTask{
		id:        id,
		request:   req,
		generator: generator,
		questions: questions,
		logger: logger.With(
			"task_type", TaskTypeQuestionGeneration,
			"performance_key", req.Key.String(),
		),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *QuestionGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *QuestionGenerationTask) Type() string {
	return TaskTypeQuestionGeneration
}

// Payload returns the task data as a byte slice
func (t *QuestionGenerationTask) Payload() []byte {
	data, err := json.Marshal(payloadFromRequest(t.request))
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *QuestionGenerationTask) Status() TaskStatus {
	return t.status
}

// Request returns what the task will ask the generator for.
func (t *QuestionGenerationTask) Request() generation.QuestionRequest {
	return t.request
}

// Execute asks the generator for questions and saves them.
func (t *QuestionGenerationTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting question generation task",
		"difficulty", t.request.Difficulty,
		"bloom_level", t.request.BloomLevel,
		"count", t.request.Count)

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	questions, err := t.generator.GenerateQuestions(ctx, t.request)
	if err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("failed to generate questions: %w", err)
	}

	if len(questions) == 0 {
		t.status = TaskStatusCompleted
		t.logger.Warn("question generation completed but no questions were generated")
		return nil
	}

	if err := t.questions.CreateMultiple(ctx, questions); err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("failed to save generated questions: %w", err)
	}

	t.status = TaskStatusCompleted
	t.logger.Info("question generation task completed successfully",
		"questions_generated", len(questions))
	return nil
}

var _ Task = (*QuestionGenerationTask)(nil)
