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

// MockReviewStore is an in-memory store.ReviewStore.
type MockReviewStore struct {
	mu    sync.Mutex
	items map[domain.PerformanceKey]domain.SpacedRepetitionItem

	UpsertErr error
	ListErr   error
}

// NewMockReviewStore creates an empty MockReviewStore.
func NewMockReviewStore() *MockReviewStore {
	return &MockReviewStore{items: make(map[domain.PerformanceKey]domain.SpacedRepetitionItem)}
}

var _ store.ReviewStore = (*MockReviewStore)(nil)

// Upsert implements store.ReviewStore.
func (m *MockReviewStore) Upsert(ctx context.Context, item *domain.SpacedRepetitionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.items[item.Key()] = *item
	return nil
}

// ListDue implements store.ReviewStore.
func (m *MockReviewStore) ListDue(
	ctx context.Context,
	learnerID uuid.UUID,
	now time.Time,
	limit int,
) ([]domain.SpacedRepetitionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	out := []domain.SpacedRepetitionItem{}
	for _, item := range m.items {
		if item.LearnerID == learnerID && !item.NextReviewDate.After(now) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextReviewDate.Before(out[j].NextReviewDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Item returns the stored review item for key.
func (m *MockReviewStore) Item(key domain.PerformanceKey) (domain.SpacedRepetitionItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[key]
	return item, ok
}

// WithTx returns the same store.
func (m *MockReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return m
}
