package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/generation"
)

// QuestionGenerationTaskFactory creates QuestionGenerationTask instances, both
// for new requests and for tasks recovered from the store
type QuestionGenerationTaskFactory struct {
	generator generation.Generator
	questions QuestionStore
	logger    *slog.Logger
}

// NewQuestionGenerationTaskFactory creates a new factory for QuestionGenerationTasks
func NewQuestionGenerationTaskFactory(
	generator generation.Generator,
	questions QuestionStore,
	logger *slog.Logger,
) *QuestionGenerationTaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionGenerationTaskFactory{
		generator: generator,
		questions: questions,
		logger:    logger.With(slog.String("component", "question_generation_task_factory")),
	}
}

// CreateTask creates a new QuestionGenerationTask for the request
func (f *QuestionGenerationTaskFactory) CreateTask(req generation.QuestionRequest) (Task, error) {
	return NewQuestionGenerationTask(uuid.New(), req, f.generator, f.questions, f.logger)
}

// Rehydrate rebuilds a stored QuestionGenerationTask from its payload
func (f *QuestionGenerationTaskFactory) Rehydrate(id uuid.UUID, payload []byte) (Task, error) {
	var p questionGenerationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal question generation payload: %w", err)
	}
	return NewQuestionGenerationTask(id, p.request(), f.generator, f.questions, f.logger)
}

var _ Rehydrator = (*QuestionGenerationTaskFactory)(nil)
