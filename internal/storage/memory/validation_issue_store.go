package memory

import (
	"context"
	"sync"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/storage"
)

// ValidationIssueStore is an in-memory implementation of storage.ValidationIssueStore.
type ValidationIssueStore struct {
	mu   sync.RWMutex
	data map[string][]domain.ValidationIssue // keyed by run_id, insertion order
}

// NewValidationIssueStore creates a new in-memory validation issue store.
func NewValidationIssueStore() *ValidationIssueStore {
	return &ValidationIssueStore{
		data: make(map[string][]domain.ValidationIssue),
	}
}

// InsertBulk appends the issues of a run.
func (s *ValidationIssueStore) InsertBulk(_ context.Context, runID string, issues []domain.ValidationIssue) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[runID] = append(s.data[runID], issues...)
	return nil
}

// GetByRun retrieves the issues of a run in insertion order.
func (s *ValidationIssueStore) GetByRun(_ context.Context, runID string) ([]domain.ValidationIssue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ValidationIssue, len(s.data[runID]))
	copy(result, s.data[runID])
	return result, nil
}

var _ storage.ValidationIssueStore = (*ValidationIssueStore)(nil)
