package task

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/generation"
	"github.com/phrazzld/mastery-api/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() generation.QuestionRequest {
	return generation.QuestionRequest{
		Key: domain.PerformanceKey{
			LearnerID: uuid.New(),
			Subject:   "math",
			Topic:     "fractions",
			Grade:     5,
		},
		Difficulty:   6,
		BloomLevel:   3,
		MasteryLevel: domain.MasteryIntermediate,
		Count:        2,
	}
}

func testQuestions(t *testing.T, req generation.QuestionRequest, n int) []*domain.Question {
	t.Helper()
	out := make([]*domain.Question, 0, n)
	for i := 0; i < n; i++ {
		q, err := domain.NewQuestion(req.Key, req.Difficulty, req.BloomLevel, "What is 1/2 + 1/4?", "3/4", nil)
		require.NoError(t, err)
		out = append(out, q)
	}
	return out
}

func TestNewQuestionGenerationTask(t *testing.T) {
	t.Parallel()

	req := testRequest()
	gen := &mocks.MockGenerator{}
	questions := &mockQuestionStore{}

	testCases := []struct {
		name      string
		generator generation.Generator
		store     QuestionStore
		mutate    func(r *generation.QuestionRequest)
		wantErr   error
	}{
		{name: "valid", generator: gen, store: questions},
		{name: "nil generator", store: questions, wantErr: ErrNilGenerator},
		{name: "nil store", generator: gen, wantErr: ErrNilQuestionStore},
		{
			name:      "invalid request",
			generator: gen,
			store:     questions,
			mutate:    func(r *generation.QuestionRequest) { r.BloomLevel = 9 },
			wantErr:   generation.ErrInvalidRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := req
			if tc.mutate != nil {
				tc.mutate(&r)
			}
			task, err := NewQuestionGenerationTask(uuid.Nil, r, tc.generator, tc.store, discardLogger())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, task.ID())
			assert.Equal(t, TaskTypeQuestionGeneration, task.Type())
			assert.Equal(t, TaskStatusPending, task.Status())
		})
	}
}

func TestQuestionGenerationTask_Execute(t *testing.T) {
	t.Parallel()

	t.Run("generates and saves questions", func(t *testing.T) {
		t.Parallel()

		req := testRequest()
		gen := mocks.NewMockGeneratorWithQuestions(testQuestions(t, req, 2))
		questions := &mockQuestionStore{}
		task, err := NewQuestionGenerationTask(uuid.New(), req, gen, questions, discardLogger())
		require.NoError(t, err)

		require.NoError(t, task.Execute(context.Background()))
		assert.Equal(t, TaskStatusCompleted, task.Status())
		require.Len(t, gen.Requests(), 1)
		assert.Equal(t, req, gen.Requests()[0])
		assert.Len(t, questions.saved, 2)
	})

	t.Run("empty generation completes", func(t *testing.T) {
		t.Parallel()

		questions := &mockQuestionStore{}
		task, err := NewQuestionGenerationTask(uuid.New(), testRequest(), &mocks.MockGenerator{}, questions, discardLogger())
		require.NoError(t, err)

		require.NoError(t, task.Execute(context.Background()))
		assert.Equal(t, TaskStatusCompleted, task.Status())
		assert.Empty(t, questions.saved)
	})

	t.Run("generator failure", func(t *testing.T) {
		t.Parallel()

		gen := mocks.NewMockGeneratorWithError(generation.ErrTransientFailure)
		task, err := NewQuestionGenerationTask(uuid.New(), testRequest(), gen, &mockQuestionStore{}, discardLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())
		assert.ErrorIs(t, err, generation.ErrTransientFailure)
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()

		req := testRequest()
		storeErr := errors.New("insert failed")
		gen := mocks.NewMockGeneratorWithQuestions(testQuestions(t, req, 1))
		task, err := NewQuestionGenerationTask(uuid.New(), req, gen, &mockQuestionStore{err: storeErr}, discardLogger())
		require.NoError(t, err)

		assert.ErrorIs(t, task.Execute(context.Background()), storeErr)
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		gen := &mocks.MockGenerator{}
		task, err := NewQuestionGenerationTask(uuid.New(), testRequest(), gen, &mockQuestionStore{}, discardLogger())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, task.Execute(ctx), context.Canceled)
		assert.Empty(t, gen.Requests())
	})
}

func TestQuestionGenerationTaskFactory_RoundTrip(t *testing.T) {
	t.Parallel()

	factory := NewQuestionGenerationTaskFactory(&mocks.MockGenerator{}, &mockQuestionStore{}, discardLogger())
	req := testRequest()

	created, err := factory.CreateTask(req)
	require.NoError(t, err)

	restored, err := factory.Rehydrate(created.ID(), created.Payload())
	require.NoError(t, err)

	assert.Equal(t, created.ID(), restored.ID())
	qgt, ok := restored.(*QuestionGenerationTask)
	require.True(t, ok)
	assert.Equal(t, req, qgt.Request())

	_, err = factory.Rehydrate(uuid.New(), []byte("not json"))
	assert.Error(t, err)
}
