package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendguard-dev/spendguard/internal/model"
)

// Row-level normalization failures. Rows failing with either are rejected
// individually; the rest of the batch proceeds.
var (
	ErrMalformedAmount = errors.New("malformed amount")
	ErrMalformedDate   = errors.New("malformed date")
)

// Date formats are tried in fixed order so parsing is deterministic:
// ISO-8601 first, then MM/DD/YYYY, then DD/MM/YYYY. An ambiguous slash date
// (both components <= 12) always resolves as MM/DD/YYYY.
var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"02/01/2006",
}

// Normalizer converts raw statement rows into canonical transactions.
type Normalizer struct {
	vendors VendorNormalizer
}

// New creates a Normalizer using the given vendor strategy.
func New(vendors VendorNormalizer) *Normalizer {
	return &Normalizer{vendors: vendors}
}

// Normalize converts one raw row into a transaction-in-progress: parsed
// amount and date, normalized vendor, duplicate signature. Category defaults
// to uncategorized when the row carries none; anomaly flags and risk fields
// are filled later by the scoring pipeline.
func (n *Normalizer) Normalize(userID string, row model.RawRow) (model.Transaction, error) {
	amount, err := ParseAmount(row[model.ColAmount])
	if err != nil {
		return model.Transaction{}, err
	}

	date, err := ParseDate(row[model.ColDate])
	if err != nil {
		return model.Transaction{}, err
	}

	desc := strings.TrimSpace(row[model.ColDescription])
	vendor := n.vendors.Normalize(desc)

	category := strings.ToLower(strings.TrimSpace(row[model.ColCategory]))
	if category == "" {
		category = model.CategoryUncategorized
	}

	return model.Transaction{
		UserID:           userID,
		PostedDate:       date,
		Amount:           amount,
		RawDescription:   desc,
		NormalizedVendor: vendor,
		Category:         category,
		DuplicateSig:     Signature(userID, vendor, amount, date),
	}, nil
}

// ParseAmount parses a signed decimal amount, tolerating currency symbols,
// thousands separators, and accounting-style parentheses for negatives.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty value", ErrMalformedAmount)
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', '¥', ',', ' ':
			return -1
		}
		return r
	}, s)

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrMalformedAmount, raw)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// ParseDate parses a calendar date using the fixed format precedence.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMalformedDate)
	}
	for _, layout := range dateFormats {
		if d, err := time.Parse(layout, s); err == nil {
			y, m, day := d.Date()
			return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
}
