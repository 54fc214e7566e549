package generation

import (
	"context"
	"fmt"

	"github.com/phrazzld/mastery-api/internal/domain"
)

// DefaultQuestionCount is used when a request does not ask for a specific number.
const DefaultQuestionCount = 5

// QuestionRequest describes the questions to generate for one topic.
type QuestionRequest struct {
	Key          domain.PerformanceKey
	Difficulty   int
	BloomLevel   int
	MasteryLevel domain.MasteryLevel
	Count        int
}

// NewQuestionRequest builds a request from the outcome of a fold-in.
// A count of zero or less selects DefaultQuestionCount.
func NewQuestionRequest(
	perf *domain.TopicPerformance,
	adj domain.DifficultyAdjustment,
	count int,
) (QuestionRequest, error) {
	if perf == nil {
		return QuestionRequest{}, fmt.Errorf("%w: performance cannot be nil", ErrInvalidRequest)
	}
	if count <= 0 {
		count = DefaultQuestionCount
	}

	req := QuestionRequest{
		Key:          perf.Key,
		Difficulty:   adj.NewDifficulty,
		BloomLevel:   adj.RecommendedBloomLevel,
		MasteryLevel: perf.MasteryLevel,
		Count:        count,
	}
	return req, req.Validate()
}

// Validate checks that the request can be sent to a generator.
func (r QuestionRequest) Validate() error {
	if err := r.Key.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if r.Difficulty < domain.MinDifficulty || r.Difficulty > domain.MaxDifficulty {
		return fmt.Errorf("%w: difficulty %d out of range", ErrInvalidRequest, r.Difficulty)
	}
	if r.BloomLevel < domain.MinBloomLevel || r.BloomLevel > domain.MaxBloomLevel {
		return fmt.Errorf("%w: bloom level %d out of range", ErrInvalidRequest, r.BloomLevel)
	}
	if r.Count <= 0 {
		return fmt.Errorf("%w: count must be positive", ErrInvalidRequest)
	}
	return nil
}

// Generator defines the interface for generating practice questions.
// This interface serves as a boundary between the application core and
// external AI/LLM services, following the hexagonal architecture pattern.
type Generator interface {
	// GenerateQuestions creates questions matching the request's topic,
	// difficulty and Bloom level.
	//
	// Parameters:
	//   - ctx: Context for the operation, which can be used for cancellation
	//   - req: What to generate and for whom
	//
	// Returns:
	//   - The generated questions, each already validated
	//   - An error if the generation fails for any reason (see errors.go for specific types)
	GenerateQuestions(ctx context.Context, req QuestionRequest) ([]*domain.Question, error)
}
