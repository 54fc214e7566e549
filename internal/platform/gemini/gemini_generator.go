package gemini

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/phrazzld/mastery-api/internal/config"
	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/generation"
)

//go:embed prompts/question.tmpl
var defaultPromptTemplate string

// Retry defaults applied when the configuration carries invalid values.
const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 2 * time.Second
)

// contentModel is the part of the Gemini API the generator needs: a single
// JSON-mode completion for a prompt.
type contentModel interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API to write practice questions.
type GeminiGenerator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// model performs the API calls
	model contentModel

	maxRetries int
	baseDelay  time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGeminiGenerator creates a new instance of GeminiGenerator with the provided dependencies.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing API key, model name, and other settings
//
// Returns:
//   - A properly initialized GeminiGenerator or an error if initialization fails
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	model, err := newGenaiModel(ctx, cfg.GeminiAPIKey, cfg.ModelName)
	if err != nil {
		return nil, err
	}

	return newGenerator(logger, cfg, model)
}

// newGenerator wires a generator around any contentModel.
func newGenerator(logger *slog.Logger, cfg config.LLMConfig, model contentModel) (*GeminiGenerator, error) {
	if model == nil {
		return nil, ErrNilModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		logger.Warn("invalid max retries value, using default", "max_retries", defaultMaxRetries)
		maxRetries = defaultMaxRetries
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	return &GeminiGenerator{
		logger:         logger.With("component", "gemini_generator"),
		promptTemplate: tmpl,
		model:          model,
		maxRetries:     maxRetries,
		baseDelay:      baseDelay,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// loadPromptTemplate parses the template at path, or the embedded default when path is empty.
func loadPromptTemplate(path string) (*template.Template, error) {
	content := defaultPromptTemplate
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, path, err)
		}
		content = string(data)
	}

	tmpl, err := template.New("question").Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// GenerateQuestions creates practice questions for the request.
func (g *GeminiGenerator) GenerateQuestions(
	ctx context.Context,
	req generation.QuestionRequest,
) ([]*domain.Question, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prompt, err := g.createPrompt(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	response, err := g.callGeminiWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return g.parseResponse(ctx, response, req)
}

// createPrompt renders the prompt template for the request.
func (g *GeminiGenerator) createPrompt(ctx context.Context, req generation.QuestionRequest) (string, error) {
	data := promptData{
		Subject:      req.Key.Subject,
		Topic:        req.Key.Topic,
		Grade:        req.Key.Grade,
		Difficulty:   req.Difficulty,
		BloomLevel:   req.BloomLevel,
		BloomVerb:    bloomVerb(req.BloomLevel),
		MasteryLevel: req.MasteryLevel,
		Count:        req.Count,
	}

	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	prompt := buf.String()
	g.logger.DebugContext(ctx, "prompt generated",
		"template_name", g.promptTemplate.Name(),
		"prompt_length", len(prompt))
	return prompt, nil
}

// callGeminiWithRetry calls the model, retrying transient failures with
// exponential backoff and jitter: delay = base * 2^attempt * [0.5, 1.0).
// Permanent errors (blocked content, unparseable output) are returned immediately.
func (g *GeminiGenerator) callGeminiWithRetry(ctx context.Context, prompt string) (*ResponseSchema, error) {
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		attemptNum := attempt + 1
		g.logger.InfoContext(ctx, "making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", g.maxRetries+1)

		text, err := g.model.GenerateJSON(ctx, prompt)
		if err == nil {
			var parsed ResponseSchema
			if jsonErr := json.Unmarshal([]byte(stripCodeFence(text)), &parsed); jsonErr != nil {
				return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
					generation.ErrInvalidResponse, jsonErr)
			}
			g.logger.InfoContext(ctx, "Gemini API call successful", "attempt", attemptNum)
			return &parsed, nil
		}

		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			g.logger.WarnContext(ctx, "permanent error occurred, not retrying", "error", err)
			return nil, err
		}
		if !generation.IsRetryable(err) {
			if errors.Is(err, generation.ErrGenerationFailed) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
		}

		lastErr = err
		g.logger.ErrorContext(ctx, "Gemini API call failed", "attempt", attemptNum, "error", err)
		if attempt == g.maxRetries {
			break
		}

		delay := g.backoff(attempt)
		g.logger.InfoContext(ctx, "retrying after delay",
			"attempt", attemptNum,
			"delay", delay.String())

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}

	return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
		generation.ErrTransientFailure, g.maxRetries, lastErr)
}

func (g *GeminiGenerator) backoff(attempt int) time.Duration {
	g.rngMu.Lock()
	jitter := 0.5 + g.rng.Float64()*0.5
	g.rngMu.Unlock()

	return time.Duration(float64(g.baseDelay) * math.Pow(2, float64(attempt)) * jitter)
}

// stripCodeFence removes a Markdown code fence some models wrap JSON output in.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// parseResponse converts the API response into validated domain questions.
// One invalid question rejects the whole response. Extra questions beyond the
// requested count are dropped.
func (g *GeminiGenerator) parseResponse(
	ctx context.Context,
	response *ResponseSchema,
	req generation.QuestionRequest,
) ([]*domain.Question, error) {
	if response == nil || len(response.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions in response", generation.ErrInvalidResponse)
	}

	items := response.Questions
	if len(items) > req.Count {
		g.logger.WarnContext(ctx, "model returned more questions than requested",
			"requested", req.Count,
			"returned", len(items))
		items = items[:req.Count]
	}

	questions := make([]*domain.Question, 0, len(items))
	for i, item := range items {
		q, err := domain.NewQuestion(req.Key, req.Difficulty, req.BloomLevel, item.Prompt, item.Answer, item.Choices)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", generation.ErrInvalidResponse, i, err)
		}
		q.Explanation = strings.TrimSpace(item.Explanation)
		questions = append(questions, q)
	}

	g.logger.InfoContext(ctx, "parsed Gemini API response", "question_count", len(questions))
	return questions, nil
}

var _ generation.Generator = (*GeminiGenerator)(nil)
