// Package synth generates synthetic bank statements for demos and load
// testing. Output is deterministic for a given seed and is shaped so the
// anomaly detectors have something to find: mostly routine spending at
// recurring vendors, plus occasional duplicates, spikes, and one-off
// merchants.
package synth

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/spendguard-dev/spendguard/internal/model"
)

// Options controls statement generation.
type Options struct {
	Rows  int
	Seed  uint64
	Start time.Time // first posting date; zero means 90 days ago
}

// Recurring vendors and their typical price bands. Amounts cluster inside
// the band so per-vendor baselines converge quickly.
var vendors = []struct {
	desc     string
	min, max float64
}{
	{"SQ *BLUE BOTTLE T%04d", 3, 9},
	{"WHOLEFDS MKT #%04d", 20, 140},
	{"SHELL OIL %04d", 30, 70},
	{"NETFLIX.COM", 11.99, 11.99},
	{"UBER TRIP %04d", 8, 45},
	{"AMZN MKTP US*%04d", 5, 90},
	{"CHIPOTLE %04d", 9, 22},
}

const (
	duplicateEvery = 17 // every Nth row repeats the previous one verbatim
	spikeEvery     = 23 // every Nth row is an out-of-band amount
	oneOffEvery    = 11 // every Nth row is a merchant never seen again
)

// Statement generates rows in posting-date order.
func Statement(opts Options) []model.RawRow {
	f := gofakeit.New(opts.Seed)

	start := opts.Start
	if start.IsZero() {
		start = time.Now().UTC().AddDate(0, 0, -90)
	}
	day := start

	rows := make([]model.RawRow, 0, opts.Rows)
	for i := 0; i < opts.Rows; i++ {
		if i > 0 && i%duplicateEvery == 0 {
			rows = append(rows, clone(rows[len(rows)-1]))
			continue
		}

		var desc string
		var amount float64
		switch {
		case i > 0 && i%oneOffEvery == 0:
			desc = f.Company()
			amount = f.Price(5, 120)
		case i > 0 && i%spikeEvery == 0:
			v := vendors[f.IntRange(0, len(vendors)-1)]
			desc = fill(f, v.desc)
			amount = f.Price(v.max*8, v.max*15)
		default:
			v := vendors[f.IntRange(0, len(vendors)-1)]
			desc = fill(f, v.desc)
			amount = f.Price(v.min, v.max)
		}

		rows = append(rows, model.RawRow{
			model.ColDate:        day.Format("2006-01-02"),
			model.ColAmount:      fmt.Sprintf("-%.2f", amount),
			model.ColDescription: desc,
		})

		if f.IntRange(0, 2) == 0 {
			day = day.AddDate(0, 0, 1)
		}
	}
	return rows
}

// WriteCSV writes rows as a statement CSV the csv importer reads back.
func WriteCSV(w io.Writer, rows []model.RawRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{model.ColDate, model.ColAmount, model.ColDescription}); err != nil {
		return err
	}
	for _, r := range rows {
		err := cw.Write([]string{r[model.ColDate], r[model.ColAmount], r[model.ColDescription]})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fill(f *gofakeit.Faker, pattern string) string {
	if !hasVerb(pattern) {
		return pattern
	}
	return fmt.Sprintf(pattern, f.IntRange(0, 9999))
}

func hasVerb(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			return true
		}
	}
	return false
}

func clone(r model.RawRow) model.RawRow {
	out := make(model.RawRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
