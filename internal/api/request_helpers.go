package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
)

// getPathUUID extracts and parses a UUID path parameter.
//
// Returns:
//   - (uuid.UUID, nil): The parsed UUID if valid
//   - (uuid.Nil, error): A validation error if the parameter is missing or malformed
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// getPerformanceKey builds a PerformanceKey from the learnerID, subject,
// topic and grade path parameters.
func getPerformanceKey(r *http.Request) (domain.PerformanceKey, error) {
	learnerID, err := getPathUUID(r, "learnerID")
	if err != nil {
		return domain.PerformanceKey{}, err
	}

	grade, err := strconv.Atoi(chi.URLParam(r, "grade"))
	if err != nil {
		return domain.PerformanceKey{}, domain.NewValidationError("grade", "must be an integer", domain.ErrInvalidFormat)
	}

	key := domain.PerformanceKey{
		LearnerID: learnerID,
		Subject:   strings.TrimSpace(chi.URLParam(r, "subject")),
		Topic:     strings.TrimSpace(chi.URLParam(r, "topic")),
		Grade:     grade,
	}
	if err := key.Validate(); err != nil {
		return domain.PerformanceKey{}, err
	}
	return key, nil
}

// getDaysQuery parses an optional whole-day count from the query string.
// A missing parameter yields 0, which callers treat as "use the default".
func getDaysQuery(r *http.Request, name string) (time.Duration, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		return 0, domain.NewValidationError(name, "must be a positive whole number of days", domain.ErrInvalidFormat)
	}
	return time.Duration(days) * 24 * time.Hour, nil
}
