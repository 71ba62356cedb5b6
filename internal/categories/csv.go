package categories

import (
	"encoding/csv"
	"fmt"
	"io"
)

const (
	numFields   = 2
	colPattern  = 0
	colCategory = 1
)

// ReadRules reads a category rules CSV in match order.
func ReadRules(r io.Reader) ([]Rule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rules CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var rules []Rule
	for i, rec := range records[1:] {
		if rec[colPattern] == "" || rec[colCategory] == "" {
			return nil, fmt.Errorf("row %d: pattern and category must be non-empty", i+2)
		}
		rules = append(rules, Rule{Pattern: rec[colPattern], Category: rec[colCategory]})
	}
	return rules, nil
}

// WriteRules writes rules to a CSV (including header).
func WriteRules(w io.Writer, rules []Rule) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"pattern", "category"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range rules {
		if err := cw.Write([]string{r.Pattern, r.Category}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}
