package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/mastery-api/internal/api/shared"
	"github.com/phrazzld/mastery-api/internal/platform/logger"
	"github.com/phrazzld/mastery-api/internal/service"
	"github.com/phrazzld/mastery-api/internal/store"
)

// LearningHandler serves the learner-facing routes under /api/learners/{learnerID}.
type LearningHandler struct {
	learningService service.LearningService
	logger          *slog.Logger
	now             func() time.Time
}

// NewLearningHandler creates a new LearningHandler
func NewLearningHandler(learningService service.LearningService, logger *slog.Logger) *LearningHandler {
	if learningService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("learningService cannot be nil for LearningHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for LearningHandler")
	}

	return &LearningHandler{
		learningService: learningService,
		logger:          logger.With(slog.String("component", "learning_handler")),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// SubmitAttempt handles POST /api/learners/{learnerID}/attempts.
// It folds a graded attempt into the learner's topic performance and returns
// the updated record, the difficulty decision and the next review date.
func (h *LearningHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, err := getPathUUID(r, "learnerID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req SubmitAttemptRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	attempt := req.toAttempt(learnerID, h.now())
	result, err := h.learningService.SubmitAttempt(r.Context(), attempt)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit attempt")
		return
	}

	log.Debug("attempt submitted",
		slog.String("learner_id", learnerID.String()),
		slog.String("attempt_id", result.AttemptID.String()),
		slog.String("direction", string(result.Adjustment.Direction())))
	shared.RespondWithJSON(w, r, http.StatusCreated, submissionToResponse(result))
}

// ListPerformance handles GET /api/learners/{learnerID}/performance.
func (h *LearningHandler) ListPerformance(w http.ResponseWriter, r *http.Request) {
	learnerID, err := getPathUUID(r, "learnerID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	perfs, err := h.learningService.ListPerformance(r.Context(), learnerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list performance")
		return
	}

	resp := make([]PerformanceResponse, 0, len(perfs))
	for _, p := range perfs {
		resp = append(resp, performanceToResponse(p))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetPerformance handles GET /api/learners/{learnerID}/performance/{subject}/{topic}/{grade}.
func (h *LearningHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	key, err := getPerformanceKey(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	perf, err := h.learningService.GetPerformance(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrPerformanceNotFound) {
			logger.FromContextOrDefault(r.Context(), h.logger).
				Debug("no performance for topic", slog.String("key", key.String()))
		}
		HandleAPIError(w, r, err, "Failed to get performance")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, performanceToResponse(perf))
}

// GetRecommendations handles GET /api/learners/{learnerID}/recommendations?subject=&days=.
func (h *LearningHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	learnerID, err := getPathUUID(r, "learnerID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	window, err := getDaysQuery(r, "days")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	subject := r.URL.Query().Get("subject")

	report, err := h.learningService.GetRecommendations(r.Context(), learnerID, subject, window)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build recommendations")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, reportToResponse(report))
}

// ListDueReviews handles GET /api/learners/{learnerID}/reviews/due.
func (h *LearningHandler) ListDueReviews(w http.ResponseWriter, r *http.Request) {
	learnerID, err := getPathUUID(r, "learnerID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	items, err := h.learningService.ListDueReviews(r.Context(), learnerID, h.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list due reviews")
		return
	}

	resp := make([]ReviewResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, reviewToResponse(item))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Routes mounts the handler's routes on r. r is expected to be scoped to
// /api/learners/{learnerID}.
func (h *LearningHandler) Routes(r chi.Router) {
	r.Post("/attempts", h.SubmitAttempt)
	r.Get("/performance", h.ListPerformance)
	r.Get("/performance/{subject}/{topic}/{grade}", h.GetPerformance)
	r.Get("/recommendations", h.GetRecommendations)
	r.Get("/reviews/due", h.ListDueReviews)
}
