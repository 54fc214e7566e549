package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAttempt() Attempt {
	return Attempt{
		ID:              uuid.New(),
		LearnerID:       uuid.New(),
		Subject:         "math",
		Topic:           "fractions",
		Grade:           5,
		Score:           7,
		MaxScore:        10,
		DifficultyLevel: 5,
		CompletedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestAttempt_Validate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		mutate    func(a *Attempt)
		wantField string
		wantErr   error
	}{
		{name: "valid", mutate: func(a *Attempt) {}},
		{name: "zero max score", mutate: func(a *Attempt) { a.Score, a.MaxScore = 0, 0 }},
		{
			name:      "nil learner",
			mutate:    func(a *Attempt) { a.LearnerID = uuid.Nil },
			wantField: "learner_id",
			wantErr:   ErrInvalidID,
		},
		{
			name:      "blank subject",
			mutate:    func(a *Attempt) { a.Subject = "  " },
			wantField: "subject",
			wantErr:   ErrValidation,
		},
		{
			name:      "empty topic",
			mutate:    func(a *Attempt) { a.Topic = "" },
			wantField: "topic",
			wantErr:   ErrValidation,
		},
		{
			name:      "negative grade",
			mutate:    func(a *Attempt) { a.Grade = -1 },
			wantField: "grade",
			wantErr:   ErrValidation,
		},
		{
			name:      "negative score",
			mutate:    func(a *Attempt) { a.Score = -1 },
			wantField: "score",
			wantErr:   ErrValidation,
		},
		{
			name:      "negative max score",
			mutate:    func(a *Attempt) { a.Score, a.MaxScore = 0, -1 },
			wantField: "max_score",
			wantErr:   ErrValidation,
		},
		{
			name:      "score above max",
			mutate:    func(a *Attempt) { a.Score = 11 },
			wantField: "score",
			wantErr:   ErrValidation,
		},
		{
			name:      "points with zero max score",
			mutate:    func(a *Attempt) { a.Score, a.MaxScore = 1, 0 },
			wantField: "score",
			wantErr:   ErrValidation,
		},
		{
			name:      "difficulty too low",
			mutate:    func(a *Attempt) { a.DifficultyLevel = 0 },
			wantField: "difficulty_level",
			wantErr:   ErrValidation,
		},
		{
			name:      "difficulty too high",
			mutate:    func(a *Attempt) { a.DifficultyLevel = 11 },
			wantField: "difficulty_level",
			wantErr:   ErrValidation,
		},
		{
			name:      "missing timestamp",
			mutate:    func(a *Attempt) { a.CompletedAt = time.Time{} },
			wantField: "completed_at",
			wantErr:   ErrInvalidFormat,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a := validAttempt()
			tc.mutate(&a)
			err := a.Validate()

			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.wantField, vErr.Field)
		})
	}
}

func TestAttempt_Ratio(t *testing.T) {
	t.Parallel()

	a := validAttempt()
	assert.InDelta(t, 0.7, a.Ratio(), 1e-9)

	a.Score, a.MaxScore = 0, 0
	assert.Equal(t, 0.0, a.Ratio())
}

func TestPerformanceKey_String(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("3f2b8c1e-8f7a-4c55-9a37-0d6f4c7f1a10")

	tests := []struct {
		name string
		key  PerformanceKey
		want string
	}{
		{
			name: "plain components",
			key:  PerformanceKey{LearnerID: id, Subject: "math", Topic: "fractions", Grade: 5},
			want: "3f2b8c1e-8f7a-4c55-9a37-0d6f4c7f1a10/math/fractions/5",
		},
		{
			name: "separator inside subject is escaped",
			key:  PerformanceKey{LearnerID: id, Subject: "a/b", Topic: "c", Grade: 5},
			want: "3f2b8c1e-8f7a-4c55-9a37-0d6f4c7f1a10/a%2Fb/c/5",
		},
		{
			name: "spaces are escaped",
			key:  PerformanceKey{LearnerID: id, Subject: "social studies", Topic: "maps", Grade: 3},
			want: "3f2b8c1e-8f7a-4c55-9a37-0d6f4c7f1a10/social%20studies/maps/3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.key.String())
		})
	}
}

func TestPerformanceKey_StringIsUnambiguous(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	left := PerformanceKey{LearnerID: id, Subject: "a/b", Topic: "c", Grade: 5}
	right := PerformanceKey{LearnerID: id, Subject: "a", Topic: "b/c", Grade: 5}
	escaped := PerformanceKey{LearnerID: id, Subject: "a%2Fb", Topic: "c", Grade: 5}

	assert.NotEqual(t, left.String(), right.String())
	assert.NotEqual(t, left.String(), escaped.String())
}
