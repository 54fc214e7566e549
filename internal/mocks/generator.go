package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/generation"
)

// MockGenerator implements generation.Generator for testing
type MockGenerator struct {
	// GenerateQuestionsFn allows test cases to mock the GenerateQuestions behavior
	GenerateQuestionsFn func(ctx context.Context, req generation.QuestionRequest) ([]*domain.Question, error)

	// Default response values
	Questions []*domain.Question
	Err       error

	mu       sync.Mutex
	requests []generation.QuestionRequest
}

var _ generation.Generator = (*MockGenerator)(nil)

// GenerateQuestions implements the generation.Generator interface
func (m *MockGenerator) GenerateQuestions(
	ctx context.Context,
	req generation.QuestionRequest,
) ([]*domain.Question, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateQuestionsFn != nil {
		return m.GenerateQuestionsFn(ctx, req)
	}
	return m.Questions, m.Err
}

// Requests returns the requests received so far.
func (m *MockGenerator) Requests() []generation.QuestionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]generation.QuestionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// NewMockGeneratorWithQuestions creates a MockGenerator that returns the specified questions
func NewMockGeneratorWithQuestions(questions []*domain.Question) *MockGenerator {
	return &MockGenerator{Questions: questions}
}

// NewMockGeneratorWithError creates a MockGenerator that returns the specified error
func NewMockGeneratorWithError(err error) *MockGenerator {
	return &MockGenerator{Err: err}
}
