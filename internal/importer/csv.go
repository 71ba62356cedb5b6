package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/spendguard-dev/spendguard/internal/model"
)

// headerAliases maps the column headings banks actually export to the
// canonical row keys. Matching is case-insensitive; unknown columns are
// carried through under their lowercased heading.
var headerAliases = map[string]string{
	"date":               model.ColDate,
	"posted date":        model.ColDate,
	"posting date":       model.ColDate,
	"transaction date":   model.ColDate,
	"amount":             model.ColAmount,
	"transaction amount": model.ColAmount,
	"description":        model.ColDescription,
	"merchant":           model.ColDescription,
	"payee":              model.ColDescription,
	"details":            model.ColDescription,
	"category":           model.ColCategory,
}

// requiredColumns must all be present in a statement header.
var requiredColumns = []string{model.ColDate, model.ColAmount, model.ColDescription}

// CSVParser reads header-mapped CSV statements. The first row is the header;
// every later row becomes one raw row keyed by canonical column names.
type CSVParser struct{}

// Name returns "csv".
func (p *CSVParser) Name() string { return "csv" }

// Parse reads a CSV statement.
func (p *CSVParser) Parse(r io.Reader) ([]model.RawRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("statement is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := headerAliases[key]; ok {
			key = canonical
		}
		cols[i] = key
	}
	if err := checkRequired(cols); err != nil {
		return nil, err
	}

	var rows []model.RawRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(rows)+2, err)
		}
		row := make(model.RawRow, len(cols))
		for i, v := range rec {
			row[cols[i]] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func checkRequired(cols []string) error {
	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c] = true
	}
	for _, req := range requiredColumns {
		if !present[req] {
			return fmt.Errorf("statement header is missing a %s column", req)
		}
	}
	return nil
}
