package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/storage"
)

// ReconciledTradeStore is an in-memory implementation of storage.ReconciledTradeStore.
type ReconciledTradeStore struct {
	mu   sync.RWMutex
	data map[string]map[int]domain.ReconciledTrade // run_id -> trade_index -> trade
}

// NewReconciledTradeStore creates a new in-memory reconciled trade store.
func NewReconciledTradeStore() *ReconciledTradeStore {
	return &ReconciledTradeStore{
		data: make(map[string]map[int]domain.ReconciledTrade),
	}
}

// InsertBulk adds all trades of a run atomically. Fails entire batch on any duplicate.
func (s *ReconciledTradeStore) InsertBulk(_ context.Context, runID string, trades []domain.ReconciledTrade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[runID]

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[int]struct{}, len(trades))

	// First pass: check for duplicates (existing + intra-batch)
	for i := range trades {
		idx := trades[i].Index
		if _, exists := existing[idx]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[idx]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[idx] = struct{}{}
	}

	// Second pass: insert all
	if existing == nil {
		existing = make(map[int]domain.ReconciledTrade, len(trades))
		s.data[runID] = existing
	}
	for i := range trades {
		existing[trades[i].Index] = cloneTrade(trades[i])
	}

	return nil
}

// GetByRun retrieves the trades of a run, ordered by trade_index ASC.
func (s *ReconciledTradeStore) GetByRun(_ context.Context, runID string) ([]domain.ReconciledTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run := s.data[runID]
	result := make([]domain.ReconciledTrade, 0, len(run))
	for _, t := range run {
		result = append(result, cloneTrade(t))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Index < result[j].Index
	})

	return result, nil
}

// cloneTrade copies pointer and slice fields so callers cannot alias stored data.
func cloneTrade(t domain.ReconciledTrade) domain.ReconciledTrade {
	if t.MFECapture != nil {
		v := *t.MFECapture
		t.MFECapture = &v
	}
	if t.EntrySignal != nil {
		v := *t.EntrySignal
		t.EntrySignal = &v
	}
	if t.ExitSignal != nil {
		v := *t.ExitSignal
		t.ExitSignal = &v
	}
	t.Quality.MissingFields = slices.Clone(t.Quality.MissingFields)
	t.Quality.Flags = slices.Clone(t.Quality.Flags)
	return t
}

var _ storage.ReconciledTradeStore = (*ReconciledTradeStore)(nil)
