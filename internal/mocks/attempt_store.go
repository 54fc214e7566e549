package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/store"
)

// MockAttemptStore is an in-memory store.AttemptStore.
type MockAttemptStore struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]domain.Attempt

	CreateErr error
	ListErr   error

	CreateCalls int
	LastSince   time.Time
}

// NewMockAttemptStore creates an empty MockAttemptStore.
func NewMockAttemptStore() *MockAttemptStore {
	return &MockAttemptStore{attempts: make(map[uuid.UUID]domain.Attempt)}
}

var _ store.AttemptStore = (*MockAttemptStore)(nil)

// Create implements store.AttemptStore.
func (m *MockAttemptStore) Create(ctx context.Context, attempt *domain.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, ok := m.attempts[attempt.ID]; ok {
		return store.ErrAttemptExists
	}
	m.attempts[attempt.ID] = *attempt
	return nil
}

// ListByLearnerSince implements store.AttemptStore.
func (m *MockAttemptStore) ListByLearnerSince(
	ctx context.Context,
	learnerID uuid.UUID,
	subject string,
	since time.Time,
) ([]domain.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastSince = since
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	out := []domain.Attempt{}
	for _, a := range m.attempts {
		if a.LearnerID != learnerID || a.CompletedAt.Before(since) {
			continue
		}
		if subject != "" && a.Subject != subject {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

// Len returns the number of stored attempts.
func (m *MockAttemptStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attempts)
}

// WithTx returns the same store.
func (m *MockAttemptStore) WithTx(tx *sql.Tx) store.AttemptStore {
	return m
}
