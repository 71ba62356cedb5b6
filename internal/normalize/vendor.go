package normalize

import (
	"strings"
	"unicode"
)

// VendorNormalizer collapses a raw statement description into a canonical
// vendor name. Normalization is a lossy heuristic, so it is a replaceable
// strategy: detectors and scoring never depend on which implementation
// produced the name.
type VendorNormalizer interface {
	Normalize(description string) string
	Name() string
}

// Registry holds named vendor normalizers.
type Registry struct {
	normalizers map[string]VendorNormalizer
}

// NewRegistry creates an empty normalizer registry.
func NewRegistry() *Registry {
	return &Registry{normalizers: make(map[string]VendorNormalizer)}
}

// Register adds a normalizer. Panics on duplicate name.
func (r *Registry) Register(n VendorNormalizer) {
	key := strings.ToLower(n.Name())
	if _, ok := r.normalizers[key]; ok {
		panic("duplicate vendor normalizer: " + key)
	}
	r.normalizers[key] = n
}

// Get returns the normalizer for name, or nil.
func (r *Registry) Get(name string) VendorNormalizer {
	return r.normalizers[strings.ToLower(name)]
}

// DefaultRegistry returns a registry with all built-in normalizers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&HeuristicNormalizer{})
	return r
}

// Noise tokens commonly appended to card descriptions by processors.
var noiseTokens = map[string]bool{
	"pos":       true,
	"debit":     true,
	"credit":    true,
	"purchase":  true,
	"payment":   true,
	"terminal":  true,
	"recurring": true,
	"web":       true,
	"id":        true,
}

// Processor prefixes prepended to the merchant name ("SQ *BLUE BOTTLE").
var processorPrefixes = map[string]bool{
	"sq":  true,
	"tst": true,
	"pp":  true,
	"py":  true,
}

// HeuristicNormalizer is the conservative built-in strategy: case-fold,
// collapse whitespace, drop leading processor prefixes and trailing store
// numbers or noise tokens. It deliberately never merges two distinct
// merchant names.
type HeuristicNormalizer struct{}

// Name returns the strategy name.
func (h *HeuristicNormalizer) Name() string { return "heuristic" }

// Normalize collapses a raw description into a canonical vendor name.
func (h *HeuristicNormalizer) Normalize(description string) string {
	s := strings.ToLower(strings.TrimSpace(description))
	if s == "" {
		return "unknown"
	}

	// Split on whitespace and separators like "*" and "#" that card
	// processors use before terminal codes.
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '*' || r == '#'
	})

	if len(fields) > 1 && processorPrefixes[fields[0]] {
		fields = fields[1:]
	}

	// Drop trailing tokens that are store numbers, terminal codes, or noise.
	for len(fields) > 1 {
		last := fields[len(fields)-1]
		if noiseTokens[last] || isStoreCode(last) {
			fields = fields[:len(fields)-1]
			continue
		}
		break
	}

	if len(fields) == 0 {
		return "unknown"
	}
	return strings.Join(fields, " ")
}

// isStoreCode reports whether a token looks like a store or terminal code:
// all digits, or a short mix of letters and digits ("t0345", "sq1234").
func isStoreCode(tok string) bool {
	hasDigit := false
	for _, r := range tok {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r):
			// letters allowed only in short alphanumeric codes
		default:
			return false
		}
	}
	if !hasDigit {
		return false
	}
	// Pure numbers of any length are codes; mixed tokens only when short.
	for _, r := range tok {
		if unicode.IsLetter(r) {
			return len(tok) <= 6
		}
	}
	return true
}
