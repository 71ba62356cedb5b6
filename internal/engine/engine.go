// Package engine runs the scoring pipeline: normalize raw statement rows,
// detect anomalies against the per-user baseline, score, persist, and
// recompute aggregates.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spendguard-dev/spendguard/internal/baseline"
	"github.com/spendguard-dev/spendguard/internal/categories"
	"github.com/spendguard-dev/spendguard/internal/config"
	"github.com/spendguard-dev/spendguard/internal/detect"
	"github.com/spendguard-dev/spendguard/internal/model"
	"github.com/spendguard-dev/spendguard/internal/normalize"
	"github.com/spendguard-dev/spendguard/internal/score"
	"github.com/spendguard-dev/spendguard/internal/storage"
	"github.com/spendguard-dev/spendguard/internal/summary"
)

// ErrUnknownUser means a batch arrived for a user the system does not know;
// there is no baseline to attach to, so the whole batch fails.
var ErrUnknownUser = errors.New("unknown user")

// UserChecker tests whether a user exists. A nil checker accepts any
// non-empty user ID.
type UserChecker interface {
	Exists(userID string) bool
}

// RejectedRow records one row that failed normalization.
type RejectedRow struct {
	RowIndex int
	Reason   string
}

// Report summarizes one processed batch.
type Report struct {
	AcceptedCount int
	RejectedRows  []RejectedRow
}

// BatchError is a batch-level failure carrying the partial report collected
// before the batch aborted.
type BatchError struct {
	UserID string
	Report Report
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("processing batch for user %s: %v", e.UserID, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Params configures an Engine. Store and Baselines are required; Categories
// and Vendors fall back to the built-in defaults when nil.
type Params struct {
	Config     *config.Config
	Store      storage.TransactionStore
	Baselines  *baseline.Store
	Categories *categories.Service
	Vendors    normalize.VendorNormalizer
	Users      UserChecker
	Log        zerolog.Logger
}

// Engine processes upload batches for any number of users. Batches for
// different users run in parallel; the baseline store serializes batches
// per user.
type Engine struct {
	normalizer *normalize.Normalizer
	categories *categories.Service
	detectors  []detect.Detector
	scorer     *score.Scorer
	baselines  *baseline.Store
	store      storage.TransactionStore
	users      UserChecker
	log        zerolog.Logger
}

// New creates an Engine.
func New(p Params) *Engine {
	vendors := p.Vendors
	if vendors == nil {
		vendors = &normalize.HeuristicNormalizer{}
	}
	cats := p.Categories
	if cats == nil {
		cats = categories.NewService(categories.DefaultRules())
	}
	return &Engine{
		normalizer: normalize.New(vendors),
		categories: cats,
		detectors:  detect.FromConfig(p.Config.Detectors),
		scorer:     score.New(p.Config.Scoring),
		baselines:  p.Baselines,
		store:      p.Store,
		users:      p.Users,
		log:        p.Log,
	}
}

// ProcessBatch runs one upload batch through the pipeline. Rows that fail
// normalization are rejected individually and recorded in the report; the
// rest proceed. Detection for each record runs against the baseline before
// that record is observed, in arrival order, so a transaction is never
// anomalous relative to itself while earlier rows of the same batch are
// visible. The batch commits atomically per user: on any batch-level
// failure the staged baseline is discarded and a BatchError carrying the
// partial report is returned.
func (e *Engine) ProcessBatch(ctx context.Context, userID string, rows []model.RawRow) ([]model.Transaction, Report, error) {
	started := time.Now()
	var report Report

	if userID == "" || (e.users != nil && !e.users.Exists(userID)) {
		return nil, report, &BatchError{UserID: userID, Report: report, Err: ErrUnknownUser}
	}

	sess, err := e.baselines.Begin(ctx, userID)
	if err != nil {
		return nil, report, &BatchError{UserID: userID, Report: report, Err: err}
	}
	defer sess.Abort()

	var txs []model.Transaction
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, report, &BatchError{UserID: userID, Report: report, Err: err}
		}

		tx, err := e.normalizer.Normalize(userID, row)
		if err != nil {
			report.RejectedRows = append(report.RejectedRows, RejectedRow{RowIndex: i, Reason: rejectionReason(err)})
			e.log.Debug().Str("user_id", userID).Int("row", i).Err(err).Msg("row rejected")
			continue
		}

		tx.ID = uuid.NewString()
		if tx.Category == model.CategoryUncategorized {
			tx.Category = e.categories.Categorize(tx.NormalizedVendor)
		}

		signals := make(map[string]detect.Signal, len(e.detectors))
		for _, d := range e.detectors {
			signals[d.Name()] = d.Evaluate(tx, sess.Baseline())
		}

		res := e.scorer.Evaluate(signals)
		tx.RiskScore = res.Score
		tx.RiskLevel = res.Level
		tx.AnomalyFlags = res.Flags

		sess.Observe(tx)
		txs = append(txs, tx)
		report.AcceptedCount++
	}

	if err := e.commit(ctx, userID, txs, sess); err != nil {
		return nil, report, &BatchError{UserID: userID, Report: report, Err: err}
	}

	e.log.Info().
		Str("user_id", userID).
		Int("accepted", report.AcceptedCount).
		Int("rejected", len(report.RejectedRows)).
		Dur("elapsed", time.Since(started)).
		Msg("batch committed")

	return txs, report, nil
}

// commit makes the batch durable: the transaction set and the baseline
// update land together or not at all. A store that can write both in one
// database transaction does so; otherwise the transactions are inserted
// first and withdrawn again if the baseline commit fails, so the committed
// state never desynchronizes.
func (e *Engine) commit(ctx context.Context, userID string, txs []model.Transaction, sess *baseline.Session) error {
	if bc, ok := e.store.(storage.BatchCommitter); ok {
		return sess.CommitWith(ctx, func(ctx context.Context, b *model.UserBaseline) error {
			return bc.CommitBatch(ctx, userID, txs, b)
		})
	}

	if err := e.store.InsertBatch(ctx, txs); err != nil {
		return fmt.Errorf("persisting transactions: %w", err)
	}
	if err := sess.Commit(ctx); err != nil {
		e.withdraw(ctx, userID, txs)
		return err
	}
	return nil
}

// withdraw deletes a just-inserted batch after a failed baseline commit.
// Runs even when the batch context is already cancelled; an inconsistency
// it cannot repair is logged.
func (e *Engine) withdraw(ctx context.Context, userID string, txs []model.Transaction) {
	d, ok := e.store.(storage.BatchDeleter)
	if !ok {
		e.log.Error().Str("user_id", userID).Int("count", len(txs)).
			Msg("store cannot withdraw batch; transactions committed without baseline")
		return
	}

	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	if err := d.DeleteBatch(context.WithoutCancel(ctx), userID, ids); err != nil {
		e.log.Error().Err(err).Str("user_id", userID).Int("count", len(txs)).
			Msg("withdrawing batch failed; transactions committed without baseline")
	}
}

// Summary recomputes the per-user aggregate view from the committed
// transaction set.
func (e *Engine) Summary(ctx context.Context, userID string) (summary.Summary, error) {
	txs, err := e.store.All(ctx, userID)
	if err != nil {
		return summary.Summary{}, fmt.Errorf("loading transactions for %s: %w", userID, err)
	}
	return summary.Compute(userID, txs), nil
}

// List returns a paged, filtered transaction listing sorted by posted date
// descending.
func (e *Engine) List(ctx context.Context, userID string, opts storage.ListOptions) ([]model.Transaction, error) {
	return e.store.List(ctx, userID, opts)
}

// rejectionReason maps a row-level error to its report label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, normalize.ErrMalformedAmount):
		return "MalformedAmount"
	case errors.Is(err, normalize.ErrMalformedDate):
		return "MalformedDate"
	default:
		return "Invalid"
	}
}
