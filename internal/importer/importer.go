// Package importer reads bank statement files into raw rows for the scoring
// pipeline. Formats are pluggable; each parser maps its source columns onto
// the canonical row keys.
package importer

import (
	"fmt"
	"io"
	"sort"

	"github.com/spendguard-dev/spendguard/internal/model"
)

// Parser reads one statement format.
type Parser interface {
	// Name returns the format identifier used for lookup.
	Name() string
	// Parse reads a statement into raw rows, preserving file order.
	Parse(r io.Reader) ([]model.RawRow, error)
}

// Registry holds the known statement parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on a duplicate name.
func (r *Registry) Register(p Parser) {
	if _, exists := r.parsers[p.Name()]; exists {
		panic(fmt.Sprintf("importer: duplicate parser %q", p.Name()))
	}
	r.parsers[p.Name()] = p
}

// Get returns the parser for a format name.
func (r *Registry) Get(name string) (Parser, error) {
	p, ok := r.parsers[name]
	if !ok {
		return nil, fmt.Errorf("unknown statement format %q (known: %v)", name, r.Names())
	}
	return p, nil
}

// Names returns the registered format names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a Registry with the built-in formats.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CSVParser{})
	return r
}
