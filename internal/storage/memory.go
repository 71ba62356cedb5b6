package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/spendguard-dev/spendguard/internal/model"
)

// MemoryStore is an in-process TransactionStore and baseline persister,
// safe for concurrent use. Suitable for single-instance deployments and
// tests; multi-instance deployments use the Postgres store.
type MemoryStore struct {
	mu        sync.RWMutex
	txs       map[string][]model.Transaction // userID -> insertion order
	baselines map[string][]byte              // userID -> encoded baseline
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		txs:       make(map[string][]model.Transaction),
		baselines: make(map[string][]byte),
	}
}

// InsertBatch appends a batch of scored transactions.
func (s *MemoryStore) InsertBatch(ctx context.Context, txs []model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range txs {
		s.txs[tx.UserID] = append(s.txs[tx.UserID], tx)
	}
	return nil
}

// DeleteBatch removes the named transactions, compensating a batch whose
// baseline commit failed after insertion.
func (s *MemoryStore) DeleteBatch(ctx context.Context, userID string, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.txs[userID][:0]
	for _, tx := range s.txs[userID] {
		if !drop[tx.ID] {
			kept = append(kept, tx)
		}
	}
	s.txs[userID] = kept
	return nil
}

// List returns filtered, paged transactions sorted by posted date descending.
func (s *MemoryStore) List(ctx context.Context, userID string, opts ListOptions) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Transaction
	for _, tx := range s.txs[userID] {
		if opts.matches(tx) {
			out = append(out, tx)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].PostedDate.Equal(out[j].PostedDate) {
			return out[i].PostedDate.After(out[j].PostedDate)
		}
		return out[i].ID < out[j].ID
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// All returns a user's transactions in insertion order.
func (s *MemoryStore) All(ctx context.Context, userID string) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Transaction, len(s.txs[userID]))
	copy(out, s.txs[userID])
	return out, nil
}

// SaveBaseline stores a user's committed baseline.
func (s *MemoryStore) SaveBaseline(ctx context.Context, userID string, b *model.UserBaseline) error {
	data, err := b.MarshalJSON()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baselines[userID] = data
	return nil
}

// LoadBaseline returns a user's stored baseline, or nil if none exists.
func (s *MemoryStore) LoadBaseline(ctx context.Context, userID string) (*model.UserBaseline, error) {
	s.mu.RLock()
	data, ok := s.baselines[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	b := model.NewUserBaseline(0)
	if err := b.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return b, nil
}
