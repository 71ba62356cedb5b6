package categories

import (
	"fmt"
	"os"
	"strings"

	"github.com/spendguard-dev/spendguard/internal/model"
)

// Rule maps vendors whose normalized name contains Pattern to Category.
type Rule struct {
	Pattern  string
	Category string
}

// Service assigns categories to vendors from an ordered rule list. First
// match wins; vendors no rule matches stay uncategorized.
type Service struct {
	rules []Rule
}

// NewService creates a Service from an ordered slice of rules.
func NewService(rules []Rule) *Service {
	return &Service{rules: rules}
}

// Load reads a rules CSV file and returns a Service.
func Load(path string) (*Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening category rules: %w", err)
	}
	defer f.Close()

	rules, err := ReadRules(f)
	if err != nil {
		return nil, fmt.Errorf("reading category rules: %w", err)
	}
	return NewService(rules), nil
}

// All returns the rules in match order.
func (s *Service) All() []Rule {
	return s.rules
}

// Categorize returns the category for a normalized vendor name.
func (s *Service) Categorize(vendor string) string {
	for _, r := range s.rules {
		if strings.Contains(vendor, r.Pattern) {
			return r.Category
		}
	}
	return model.CategoryUncategorized
}

// Save writes the rules to a CSV file.
func (s *Service) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating category rules file: %w", err)
	}
	defer f.Close()

	if err := WriteRules(f, s.rules); err != nil {
		return fmt.Errorf("writing category rules: %w", err)
	}
	return nil
}

// DefaultRules returns the built-in rule set. Patterns are matched against
// normalized (lowercased) vendor names.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "coffee", Category: "dining"},
		{Pattern: "restaurant", Category: "dining"},
		{Pattern: "pizza", Category: "dining"},
		{Pattern: "doordash", Category: "dining"},
		{Pattern: "uber eats", Category: "dining"},
		{Pattern: "grocery", Category: "groceries"},
		{Pattern: "market", Category: "groceries"},
		{Pattern: "whole foods", Category: "groceries"},
		{Pattern: "netflix", Category: "subscriptions"},
		{Pattern: "spotify", Category: "subscriptions"},
		{Pattern: "prime", Category: "subscriptions"},
		{Pattern: "uber", Category: "transport"},
		{Pattern: "lyft", Category: "transport"},
		{Pattern: "shell", Category: "transport"},
		{Pattern: "chevron", Category: "transport"},
		{Pattern: "airlines", Category: "travel"},
		{Pattern: "hotel", Category: "travel"},
		{Pattern: "pharmacy", Category: "health"},
		{Pattern: "gym", Category: "health"},
		{Pattern: "amazon", Category: "retail"},
		{Pattern: "walmart", Category: "retail"},
		{Pattern: "target", Category: "retail"},
		{Pattern: "payroll", Category: "income"},
		{Pattern: "salary", Category: "income"},
	}
}
