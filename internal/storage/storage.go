// Package storage persists scored transactions and committed baselines.
// The engine only depends on the interfaces here; the in-memory
// implementation is the default and the Postgres one is opt-in.
package storage

import (
	"context"
	"time"

	"github.com/spendguard-dev/spendguard/internal/model"
)

// TransactionStore persists scored transactions and serves listings.
type TransactionStore interface {
	// InsertBatch appends a batch of scored transactions atomically.
	InsertBatch(ctx context.Context, txs []model.Transaction) error
	// List returns a user's transactions filtered and paged per opts,
	// sorted by posted date descending (transaction ID breaks ties).
	List(ctx context.Context, userID string, opts ListOptions) ([]model.Transaction, error)
	// All returns a user's full committed transaction set in insertion
	// order, for summary recomputation.
	All(ctx context.Context, userID string) ([]model.Transaction, error)
}

// BatchCommitter writes a scored batch and the user's updated baseline in
// one atomic unit. Stores keeping both in the same database implement it so
// a failure cannot leave the transaction set and the baseline out of sync.
type BatchCommitter interface {
	CommitBatch(ctx context.Context, userID string, txs []model.Transaction, b *model.UserBaseline) error
}

// BatchDeleter removes previously inserted transactions by ID. Stores
// without an atomic batch commit implement it so a failed baseline commit
// can be compensated by withdrawing the batch.
type BatchDeleter interface {
	DeleteBatch(ctx context.Context, userID string, ids []string) error
}

// ListOptions filters and pages a transaction listing. Zero values mean
// "no constraint".
type ListOptions struct {
	Category  string
	RiskLevel model.RiskLevel
	From      time.Time // inclusive
	To        time.Time // inclusive
	Limit     int
	Offset    int
}

func (o ListOptions) matches(tx model.Transaction) bool {
	if o.Category != "" && tx.Category != o.Category {
		return false
	}
	if o.RiskLevel != "" && tx.RiskLevel != o.RiskLevel {
		return false
	}
	if !o.From.IsZero() && tx.PostedDate.Before(o.From) {
		return false
	}
	if !o.To.IsZero() && tx.PostedDate.After(o.To) {
		return false
	}
	return true
}
