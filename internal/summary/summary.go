// Package summary rolls committed transactions up into the aggregates the
// dashboard consumes. The summary is a pure derived view over the persisted
// transaction set, never a source of truth: recomputing it on unchanged
// input yields identical output, down to slice ordering.
package summary

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendguard-dev/spendguard/internal/model"
)

// CategoryTotal aggregates one category.
type CategoryTotal struct {
	Category string
	Spend    decimal.Decimal // sum of debit magnitudes
	Count    int
}

// RiskCounts is the transaction count per risk level.
type RiskCounts struct {
	Normal int
	Medium int
	High   int
}

// TimeBucket is one point in a spend series.
type TimeBucket struct {
	Start time.Time // bucket start date (day or first of month)
	Spend decimal.Decimal
	Count int
}

// Summary is the per-user aggregate view.
type Summary struct {
	UserID           string
	TransactionCount int
	TotalSpend       decimal.Decimal
	Categories       []CategoryTotal // sorted by category name
	RiskLevels       RiskCounts
	Daily            []TimeBucket // sorted by date ascending
	Monthly          []TimeBucket
}

// Compute aggregates a user's transaction set. Spend counts debit magnitudes
// only; credits contribute to counts but not to spend.
func Compute(userID string, txs []model.Transaction) Summary {
	s := Summary{
		UserID:           userID,
		TransactionCount: len(txs),
		TotalSpend:       decimal.Zero,
	}

	byCategory := make(map[string]*CategoryTotal)
	daily := make(map[time.Time]*TimeBucket)
	monthly := make(map[time.Time]*TimeBucket)

	for _, tx := range txs {
		spend := decimal.Zero
		if tx.Amount.IsNegative() {
			spend = tx.Amount.Neg()
		}
		s.TotalSpend = s.TotalSpend.Add(spend)

		ct, ok := byCategory[tx.Category]
		if !ok {
			ct = &CategoryTotal{Category: tx.Category, Spend: decimal.Zero}
			byCategory[tx.Category] = ct
		}
		ct.Spend = ct.Spend.Add(spend)
		ct.Count++

		switch tx.RiskLevel {
		case model.RiskHigh:
			s.RiskLevels.High++
		case model.RiskMedium:
			s.RiskLevels.Medium++
		default:
			s.RiskLevels.Normal++
		}

		day := tx.PostedDate
		addBucket(daily, day, spend)
		addBucket(monthly, time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC), spend)
	}

	for _, ct := range byCategory {
		s.Categories = append(s.Categories, *ct)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		return s.Categories[i].Category < s.Categories[j].Category
	})

	s.Daily = sortBuckets(daily)
	s.Monthly = sortBuckets(monthly)
	return s
}

func addBucket(buckets map[time.Time]*TimeBucket, start time.Time, spend decimal.Decimal) {
	b, ok := buckets[start]
	if !ok {
		b = &TimeBucket{Start: start, Spend: decimal.Zero}
		buckets[start] = b
	}
	b.Spend = b.Spend.Add(spend)
	b.Count++
}

func sortBuckets(buckets map[time.Time]*TimeBucket) []TimeBucket {
	out := make([]TimeBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
