package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
	"github.com/cognicore/linkaudit/pkg/linkaudit/opportunity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/report"
	"github.com/cognicore/linkaudit/pkg/linkaudit/similarity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu   sync.RWMutex
	runs map[string]store.Snapshot
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{runs: make(map[string]store.Snapshot)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun stores a copy of the snapshot, replacing a run with the same id.
func (s *Store) SaveRun(ctx context.Context, snap store.Snapshot) error {
	if snap.Report.ID == "" {
		return fmt.Errorf("snapshot without run id: %w", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.Opportunities = append([]opportunity.Opportunity(nil), snap.Opportunities...)
	snap.Similarities = append([]similarity.Pair(nil), snap.Similarities...)
	s.runs[snap.Report.ID] = snap
	return nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context) ([]store.RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.RunInfo, 0, len(s.runs))
	for _, snap := range s.runs {
		out = append(out, store.Info(snap.Report))
	}
	// ULIDs sort by creation time
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) get(id string) (store.Snapshot, error) {
	snap, ok := s.runs[id]
	if !ok {
		return store.Snapshot{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return snap, nil
}

// GetRun returns the report of a run.
func (s *Store) GetRun(ctx context.Context, id string) (report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, err := s.get(id)
	return snap.Report, err
}

// DeleteRun removes a run.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(id); err != nil {
		return err
	}
	delete(s.runs, id)
	return nil
}

// Opportunities returns the stored opportunities of a run in saved order.
func (s *Store) Opportunities(ctx context.Context, runID string) ([]opportunity.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, err := s.get(runID)
	if err != nil {
		return nil, err
	}
	return append([]opportunity.Opportunity(nil), snap.Opportunities...), nil
}

// Similarities returns the stored pairs of a run scoring at least minScore.
func (s *Store) Similarities(ctx context.Context, runID string, minScore float64) ([]similarity.Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, err := s.get(runID)
	if err != nil {
		return nil, err
	}
	var out []similarity.Pair
	for _, p := range snap.Similarities {
		if p.Score >= minScore {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ store.Store = (*Store)(nil)
