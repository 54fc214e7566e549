package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelHierarchy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		notFound  bool
		duplicate bool
	}{
		{name: "performance not found", err: ErrPerformanceNotFound, notFound: true},
		{name: "wrapped performance not found", err: fmt.Errorf("get: %w", ErrPerformanceNotFound), notFound: true},
		{name: "attempt exists", err: ErrAttemptExists, duplicate: true},
		{name: "wrapped attempt exists", err: fmt.Errorf("create: %w", ErrAttemptExists), duplicate: true},
		{name: "invalid entity", err: ErrInvalidEntity},
		{name: "unrelated", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.notFound, errors.Is(tt.err, ErrNotFound))
			assert.Equal(t, tt.duplicate, errors.Is(tt.err, ErrDuplicate))
		})
	}
}
