// Package detect implements the anomaly detectors. Each detector is a pure
// function of a transaction and the baseline as it stood before that
// transaction was observed, returning a signal strength in [0, 1] and
// whether the detector's own threshold was crossed. Detectors are
// independent and order-insensitive.
package detect

import (
	"github.com/spendguard-dev/spendguard/internal/config"
	"github.com/spendguard-dev/spendguard/internal/model"
)

// Detector names, recorded in Transaction.AnomalyFlags when fired.
const (
	NameDuplicate   = "duplicate"
	NameLargeAmount = "large_amount"
	NameRareVendor  = "rare_vendor"
)

// Signal is one detector's verdict on a transaction.
type Signal struct {
	Score float64 // strength in [0, 1]
	Fired bool
}

// Detector evaluates a transaction against a pre-update baseline.
type Detector interface {
	Name() string
	Evaluate(tx model.Transaction, b *model.UserBaseline) Signal
}

// FromConfig returns the standard detector set with configured thresholds.
func FromConfig(cfg config.DetectorsConfig) []Detector {
	return []Detector{
		&Duplicate{},
		&LargeAmount{K: cfg.LargeAmountK, DefaultThreshold: cfg.LargeAmountDefault},
		&RareVendor{Floor: cfg.RareVendorFloor},
	}
}

// Duplicate fires when the transaction's signature was already seen.
// Duplication is categorical, so the signal is binary.
type Duplicate struct{}

// Name returns the detector name.
func (d *Duplicate) Name() string { return NameDuplicate }

// Evaluate reports 1.0 when the signature is present in the baseline.
func (d *Duplicate) Evaluate(tx model.Transaction, b *model.UserBaseline) Signal {
	if b.HasSignature(tx.DuplicateSig) {
		return Signal{Score: 1.0, Fired: true}
	}
	return Signal{}
}

// LargeAmount fires when |amount| exceeds mean + K*stddev for the vendor,
// falling back to category stats when the vendor is statistically unseen,
// and to DefaultThreshold when both are. The fallback keeps a brand-new
// user from being flagged on every transaction.
type LargeAmount struct {
	K                float64
	DefaultThreshold float64
}

// minObservations is the history a stats entry needs before its variance is
// trusted for thresholding.
const minObservations = 2

// Name returns the detector name.
func (d *LargeAmount) Name() string { return NameLargeAmount }

// Evaluate scores how far beyond the threshold the amount falls, in standard
// deviations, capped at 1.0.
func (d *LargeAmount) Evaluate(tx model.Transaction, b *model.UserBaseline) Signal {
	amt := tx.Amount.Abs().InexactFloat64()

	stats := b.VendorStats[tx.NormalizedVendor]
	if stats == nil || stats.Count < minObservations {
		stats = b.CategoryStats[tx.Category]
	}

	if stats == nil || stats.Count < minObservations {
		// No usable history: compare against the global default threshold.
		if amt <= d.DefaultThreshold {
			return Signal{}
		}
		score := (amt - d.DefaultThreshold) / d.DefaultThreshold
		return Signal{Score: clamp01(score), Fired: true}
	}

	sd := stats.Stddev()
	threshold := stats.Mean + d.K*sd
	if amt <= threshold {
		return Signal{}
	}
	// Standard deviations beyond the threshold, scaled so that another K
	// deviations saturates the signal.
	score := (amt - threshold) / sd / d.K
	return Signal{Score: clamp01(score), Fired: true}
}

// RareVendor fires when the vendor was seen fewer than Floor times before
// this transaction. The signal decays from 1.0 (never seen) toward 0 as the
// prior count approaches the floor. A user with no history at all is never
// flagged: every vendor is new to a new user.
type RareVendor struct {
	Floor int64
}

// Name returns the detector name.
func (d *RareVendor) Name() string { return NameRareVendor }

// Evaluate scores vendor rarity against the pre-update frequency count.
func (d *RareVendor) Evaluate(tx model.Transaction, b *model.UserBaseline) Signal {
	if b.TotalCount() == 0 {
		return Signal{}
	}
	count := b.VendorFrequency[tx.NormalizedVendor]
	if count >= d.Floor {
		return Signal{}
	}
	score := 1.0 - float64(count)/float64(d.Floor)
	return Signal{Score: clamp01(score), Fired: true}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
