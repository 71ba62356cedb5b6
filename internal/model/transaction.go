package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel classifies a transaction's composite risk score.
type RiskLevel string

const (
	RiskNormal RiskLevel = "normal"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// CategoryUncategorized is the fallback category for vendors no rule matches.
const CategoryUncategorized = "uncategorized"

// RawRow is one statement row as delivered by the upstream parser: column
// name -> raw string value. Column mapping happens upstream; the engine only
// recognizes the canonical column names below.
type RawRow map[string]string

// Canonical RawRow column names.
const (
	ColDate        = "date"
	ColAmount      = "amount"
	ColDescription = "description"
	ColCategory    = "category"
)

// Transaction is one normalized, scored statement row. Immutable once scored;
// a re-score reruns the pipeline rather than mutating in place.
type Transaction struct {
	ID               string
	UserID           string
	PostedDate       time.Time
	Amount           decimal.Decimal // negative = debit
	RawDescription   string
	NormalizedVendor string
	Category         string
	DuplicateSig     uint64
	AnomalyFlags     []string // names of detectors that fired
	RiskScore        float64  // 0.0 - 1.0
	RiskLevel        RiskLevel
}

// Flagged reports whether the named detector fired for this transaction.
func (t Transaction) Flagged(detector string) bool {
	for _, f := range t.AnomalyFlags {
		if f == detector {
			return true
		}
	}
	return false
}
