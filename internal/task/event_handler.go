package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/mastery-api/internal/events"
	"github.com/phrazzld/mastery-api/internal/generation"
)

// TaskCreator builds tasks from question requests
type TaskCreator interface {
	CreateTask(req generation.QuestionRequest) (Task, error)
}

// TaskSubmitter accepts tasks for background execution
type TaskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler implements the events.EventHandler interface
// to turn question generation events into submitted tasks.
type TaskFactoryEventHandler struct {
	taskFactory   TaskCreator
	taskRunner    TaskSubmitter
	questionCount int
	logger        *slog.Logger
}

// NewTaskFactoryEventHandler creates a new event handler that uses the given task factory
// to create tasks, and submits them to the provided task runner. questionCount is the
// number of questions requested per event.
func NewTaskFactoryEventHandler(
	taskFactory TaskCreator,
	taskRunner TaskSubmitter,
	questionCount int,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if questionCount <= 0 {
		questionCount = generation.DefaultQuestionCount
	}
	return &TaskFactoryEventHandler{
		taskFactory:   taskFactory,
		taskRunner:    taskRunner,
		questionCount: questionCount,
		logger:        logger.With(slog.String("component", "task_factory_event_handler")),
	}
}

// HandleEvent processes question generation events by creating and submitting tasks.
// Other event types are ignored.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeQuestionGenerationRequested {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload events.QuestionGenerationPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	req := generation.QuestionRequest{
		Key:          payload.Key(),
		Difficulty:   payload.Difficulty,
		BloomLevel:   payload.BloomLevel,
		MasteryLevel: payload.MasteryLevel,
		Count:        h.questionCount,
	}

	task, err := h.taskFactory.CreateTask(req)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"performance_key", req.Key.String(),
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.taskRunner.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted successfully",
		"task_id", task.ID(),
		"performance_key", req.Key.String(),
		"event_id", event.ID)
	return nil
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
