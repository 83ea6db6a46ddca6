// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/emotion-recognizer/internal/database"
)

// MockPredictionStore is an in-memory implementation of database.PredictionWriter
type MockPredictionStore struct {
	mu      sync.RWMutex
	records []database.PredictionRecord
	now     func() time.Time

	// Error injection
	SaveError   error
	RecentError error
	CountError  error
}

// NewMockPredictionStore creates a new empty mock store
func NewMockPredictionStore() *MockPredictionStore {
	return &MockPredictionStore{now: time.Now}
}

// SavePrediction appends a record
func (m *MockPredictionStore) SavePrediction(ctx context.Context, rec *database.PredictionRecord) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	if err := rec.Prepare(m.now()); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *rec)
	return nil
}

// RecentPredictions returns up to limit records, newest first
func (m *MockPredictionStore) RecentPredictions(ctx context.Context, limit int) ([]database.PredictionRecord, error) {
	if m.RecentError != nil {
		return nil, m.RecentError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Clone(m.records)
	slices.Reverse(out)
	// Newest first; insertion order breaks ties between equal timestamps.
	slices.SortStableFunc(out, func(a, b database.PredictionRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByLabel returns per-label totals, most frequent first
func (m *MockPredictionStore) CountByLabel(ctx context.Context) ([]database.LabelCount, error) {
	if m.CountError != nil {
		return nil, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range m.records {
		counts[r.Label]++
	}
	out := make([]database.LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, database.LabelCount{Label: label, Count: n})
	}
	slices.SortFunc(out, func(a, b database.LabelCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out, nil
}

// Records returns a copy of everything saved, in insertion order
func (m *MockPredictionStore) Records() []database.PredictionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.records)
}
