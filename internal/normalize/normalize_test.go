package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendguard-dev/spendguard/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"-4.50", "-4.50"},
		{"4.50", "4.50"},
		{"$1,234.56", "1234.56"},
		{"-$99.00", "-99.00"},
		{"(45.00)", "-45.00"},
		{"€ 12.30", "12.30"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(dec(tt.want)), "%s -> %s, want %s", tt.in, got, tt.want)
	}
}

func TestParseAmount_Malformed(t *testing.T) {
	for _, in := range []string{"abc", "", "12.3.4", "$"} {
		_, err := ParseAmount(in)
		require.ErrorIs(t, err, ErrMalformedAmount, "input %q", in)
	}
}

func TestParseDate_Precedence(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-15", date(2024, 1, 15)},
		// Ambiguous slash dates resolve as MM/DD/YYYY, never guessed.
		{"01/02/2024", date(2024, 1, 2)},
		// DD/MM/YYYY only when the first component cannot be a month.
		{"25/12/2024", date(2024, 12, 25)},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(tt.want), "%s -> %s, want %s", tt.in, got, tt.want)
	}
}

func TestParseDate_Malformed(t *testing.T) {
	for _, in := range []string{"yesterday", "", "13/13/2024", "2024-13-40"} {
		_, err := ParseDate(in)
		require.ErrorIs(t, err, ErrMalformedDate, "input %q", in)
	}
}

func TestHeuristicNormalizer(t *testing.T) {
	n := &HeuristicNormalizer{}

	tests := []struct {
		in   string
		want string
	}{
		{"COFFEE CO", "coffee co"},
		{"  Coffee   Co  ", "coffee co"},
		{"WALMART #4521", "walmart"},
		{"SQ *BLUE BOTTLE T0345", "blue bottle"},
		{"NETFLIX.COM RECURRING", "netflix.com"},
		{"AMAZON MKTPL 1029384756", "amazon mktpl"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, n.Normalize(tt.in), "input %q", tt.in)
	}
}

func TestHeuristicNormalizer_NeverEmpty(t *testing.T) {
	n := &HeuristicNormalizer{}
	// A description that is nothing but codes still yields a stable name.
	assert.NotEmpty(t, n.Normalize("1234 5678"))
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	require.NotNil(t, r.Get("heuristic"))
	assert.Nil(t, r.Get("fuzzy"))

	assert.Panics(t, func() { r.Register(&HeuristicNormalizer{}) }, "duplicate registration")
}

func TestSignature_Collision(t *testing.T) {
	d := date(2024, 1, 1)
	a := Signature("u1", "coffee co", dec("-4.50"), d)
	b := Signature("u1", "coffee co", dec("-4.50"), d)
	assert.Equal(t, a, b, "identical vendor/amount/date must collide")

	assert.NotEqual(t, a, Signature("u2", "coffee co", dec("-4.50"), d), "different user")
	assert.NotEqual(t, a, Signature("u1", "coffee co", dec("-4.51"), d), "different amount")
	assert.NotEqual(t, a, Signature("u1", "coffee co", dec("-4.50"), date(2024, 1, 2)), "different date")
}

func TestNormalize(t *testing.T) {
	n := New(&HeuristicNormalizer{})

	tx, err := n.Normalize("u1", model.RawRow{
		model.ColDate:        "2024-01-01",
		model.ColAmount:      "-4.50",
		model.ColDescription: "COFFEE CO #12",
	})
	require.NoError(t, err)

	assert.Equal(t, "u1", tx.UserID)
	assert.True(t, tx.Amount.Equal(dec("-4.50")))
	assert.Equal(t, "coffee co", tx.NormalizedVendor)
	assert.Equal(t, model.CategoryUncategorized, tx.Category)
	assert.NotZero(t, tx.DuplicateSig)
}

func TestNormalize_RowErrors(t *testing.T) {
	n := New(&HeuristicNormalizer{})

	_, err := n.Normalize("u1", model.RawRow{
		model.ColDate:        "2024-01-01",
		model.ColAmount:      "abc",
		model.ColDescription: "X",
	})
	require.ErrorIs(t, err, ErrMalformedAmount)

	_, err = n.Normalize("u1", model.RawRow{
		model.ColDate:        "not a date",
		model.ColAmount:      "1.00",
		model.ColDescription: "X",
	})
	require.ErrorIs(t, err, ErrMalformedDate)
}
