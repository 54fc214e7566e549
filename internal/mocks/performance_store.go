package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery-api/internal/domain"
	"github.com/phrazzld/mastery-api/internal/store"
)

// MockPerformanceStore is an in-memory store.PerformanceStore.
type MockPerformanceStore struct {
	mu      sync.Mutex
	records map[domain.PerformanceKey]*domain.TopicPerformance

	GetForUpdateFn func(ctx context.Context, key domain.PerformanceKey) (*domain.TopicPerformance, error)
	UpsertErr      error
	ListErr        error

	GetForUpdateCalls int
	UpsertCalls       int
}

// NewMockPerformanceStore creates an empty MockPerformanceStore.
func NewMockPerformanceStore() *MockPerformanceStore {
	return &MockPerformanceStore{records: make(map[domain.PerformanceKey]*domain.TopicPerformance)}
}

var _ store.PerformanceStore = (*MockPerformanceStore)(nil)

// Put seeds a record.
func (m *MockPerformanceStore) Put(perf *domain.TopicPerformance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[perf.Key] = perf.Clone()
}

// Get implements store.PerformanceStore.
func (m *MockPerformanceStore) Get(ctx context.Context, key domain.PerformanceKey) (*domain.TopicPerformance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	perf, ok := m.records[key]
	if !ok {
		return nil, store.ErrPerformanceNotFound
	}
	return perf.Clone(), nil
}

// GetForUpdate implements store.PerformanceStore.
func (m *MockPerformanceStore) GetForUpdate(
	ctx context.Context,
	key domain.PerformanceKey,
) (*domain.TopicPerformance, error) {
	m.mu.Lock()
	m.GetForUpdateCalls++
	fn := m.GetForUpdateFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, key)
	}
	return m.Get(ctx, key)
}

// Upsert implements store.PerformanceStore.
func (m *MockPerformanceStore) Upsert(ctx context.Context, perf *domain.TopicPerformance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	if err := perf.Validate(); err != nil {
		return err
	}
	m.records[perf.Key] = perf.Clone()
	return nil
}

// ListByLearner implements store.PerformanceStore.
func (m *MockPerformanceStore) ListByLearner(
	ctx context.Context,
	learnerID uuid.UUID,
) ([]*domain.TopicPerformance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	out := []*domain.TopicPerformance{}
	for key, perf := range m.records {
		if key.LearnerID == learnerID {
			out = append(out, perf.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Topic != b.Topic {
			return a.Topic < b.Topic
		}
		return a.Grade < b.Grade
	})
	return out, nil
}

// WithTx returns the same store; the fake has no transactional state.
func (m *MockPerformanceStore) WithTx(tx *sql.Tx) store.PerformanceStore {
	return m
}
