package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/service"
)

// SubmitAttemptRequest is the payload of POST /api/learners/{learnerID}/attempts.
// AttemptID makes retries idempotent; when omitted the server assigns one.
// CompletedAt defaults to the time the request is received.
type SubmitAttemptRequest struct {
	AttemptID       *uuid.UUID `json:"attempt_id,omitempty"`
	Subject         string     `json:"subject"          validate:"required,max=100"`
	Topic           string     `json:"topic"            validate:"required,max=200"`
	Grade           int        `json:"grade"            validate:"min=0,max=20"`
	Score           int        `json:"score"            validate:"min=0,ltefield=MaxScore"`
	MaxScore        int        `json:"max_score"        validate:"min=0"`
	DifficultyLevel int        `json:"difficulty_level" validate:"required,min=1,max=10"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// toAttempt builds the domain attempt for learnerID.
func (r SubmitAttemptRequest) toAttempt(learnerID uuid.UUID, now time.Time) *domain.Attempt {
	attempt := &domain.Attempt{
		ID:              uuid.New(),
		LearnerID:       learnerID,
		Subject:         r.Subject,
		Topic:           r.Topic,
		Grade:           r.Grade,
		Score:           r.Score,
		MaxScore:        r.MaxScore,
		DifficultyLevel: r.DifficultyLevel,
		CompletedAt:     now,
	}
	if r.AttemptID != nil && *r.AttemptID != uuid.Nil {
		attempt.ID = *r.AttemptID
	}
	if r.CompletedAt != nil && !r.CompletedAt.IsZero() {
		attempt.CompletedAt = r.CompletedAt.UTC()
	}
	return attempt
}

// PerformanceResponse is the client view of a TopicPerformance.
type PerformanceResponse struct {
	LearnerID          string    `json:"learner_id"`
	Subject            string    `json:"subject"`
	Topic              string    `json:"topic"`
	Grade              int       `json:"grade"`
	Attempts           int       `json:"attempts"`
	TotalScore         int       `json:"total_score"`
	MaxPossibleScore   int       `json:"max_possible_score"`
	SuccessRate        float64   `json:"success_rate"`
	AverageRecentScore float64   `json:"average_recent_score"`
	RecentScores       []float64 `json:"recent_scores"`
	CurrentDifficulty  int       `json:"current_difficulty"`
	MasteryLevel       string    `json:"mastery_level"`
	LastAttempt        time.Time `json:"last_attempt"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// AdjustmentResponse is the client view of a DifficultyAdjustment.
type AdjustmentResponse struct {
	OldDifficulty         int     `json:"old_difficulty"`
	NewDifficulty         int     `json:"new_difficulty"`
	Direction             string  `json:"direction"`
	Reason                string  `json:"reason"`
	Confidence            float64 `json:"confidence"`
	RecommendedBloomLevel int     `json:"recommended_bloom_level"`
	IntervalDays          int     `json:"interval_days"`
}

// ReviewResponse is the client view of a SpacedRepetitionItem.
type ReviewResponse struct {
	Subject         string    `json:"subject"`
	Topic           string    `json:"topic"`
	Grade           int       `json:"grade"`
	NextReviewDate  time.Time `json:"next_review_date"`
	IntervalDays    int       `json:"interval_days"`
	EaseFactor      float64   `json:"ease_factor"`
	RepetitionCount int       `json:"repetition_count"`
}

// SubmitAttemptResponse is returned after an attempt is folded in.
type SubmitAttemptResponse struct {
	AttemptID   string              `json:"attempt_id"`
	Performance PerformanceResponse `json:"performance"`
	Adjustment  AdjustmentResponse  `json:"adjustment"`
	NextReview  ReviewResponse      `json:"next_review"`
}

// RecommendationsResponse is returned by GET /recommendations.
type RecommendationsResponse struct {
	Since              time.Time             `json:"since"`
	TotalAttempts      int                   `json:"total_attempts"`
	OverallSuccessRate float64               `json:"overall_success_rate"`
	Trend              string                `json:"trend"`
	Topics             []domain.TopicSummary `json:"topics"`
	WeakAreas          []domain.TopicSummary `json:"weak_areas"`
	StrongAreas        []domain.TopicSummary `json:"strong_areas"`
	Recommendations    []string              `json:"recommendations"`
}

func performanceToResponse(p *domain.TopicPerformance) PerformanceResponse {
	return PerformanceResponse{
		LearnerID:          p.Key.LearnerID.String(),
		Subject:            p.Key.Subject,
		Topic:              p.Key.Topic,
		Grade:              p.Key.Grade,
		Attempts:           p.Attempts,
		TotalScore:         p.TotalScore,
		MaxPossibleScore:   p.MaxPossibleScore,
		SuccessRate:        p.SuccessRate(),
		AverageRecentScore: p.AverageRecentScore(),
		RecentScores:       p.RecentScores.Values(),
		CurrentDifficulty:  p.CurrentDifficulty,
		MasteryLevel:       string(p.MasteryLevel),
		LastAttempt:        p.LastAttempt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func adjustmentToResponse(a domain.DifficultyAdjustment) AdjustmentResponse {
	return AdjustmentResponse{
		OldDifficulty:         a.OldDifficulty,
		NewDifficulty:         a.NewDifficulty,
		Direction:             string(a.Direction()),
		Reason:                a.Reason,
		Confidence:            a.Confidence,
		RecommendedBloomLevel: a.RecommendedBloomLevel,
		IntervalDays:          a.SpacedRepetitionInterval,
	}
}

func reviewToResponse(item domain.SpacedRepetitionItem) ReviewResponse {
	return ReviewResponse{
		Subject:         item.Subject,
		Topic:           item.Topic,
		Grade:           item.Grade,
		NextReviewDate:  item.NextReviewDate,
		IntervalDays:    item.IntervalDays,
		EaseFactor:      item.EaseFactor,
		RepetitionCount: item.RepetitionCount,
	}
}

func submissionToResponse(res *service.SubmissionResult) SubmitAttemptResponse {
	return SubmitAttemptResponse{
		AttemptID:   res.AttemptID.String(),
		Performance: performanceToResponse(res.Performance),
		Adjustment:  adjustmentToResponse(res.Adjustment),
		NextReview:  reviewToResponse(res.Review),
	}
}

func reportToResponse(report *service.RecommendationReport) RecommendationsResponse {
	a := report.Analytics
	return RecommendationsResponse{
		Since:              a.Since,
		TotalAttempts:      a.TotalAttempts,
		OverallSuccessRate: a.OverallSuccessRate,
		Trend:              string(a.Trend),
		Topics:             nonNilSummaries(a.Topics),
		WeakAreas:          nonNilSummaries(a.WeakAreas),
		StrongAreas:        nonNilSummaries(a.StrongAreas),
		Recommendations:    report.Recommendations,
	}
}

func nonNilSummaries(s []domain.TopicSummary) []domain.TopicSummary {
	if s == nil {
		return []domain.TopicSummary{}
	}
	return s
}
