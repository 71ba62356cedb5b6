// Package auditlog keeps an append-only CSV record of processed upload
// batches, so every scoring run stays traceable after the fact.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one row in the batch log.
type Entry struct {
	Timestamp time.Time
	BatchID   string
	UserID    string
	Accepted  int
	Rejected  int
	Duration  time.Duration
	Status    string // "committed" or "failed"
}

// Header is the CSV header for batch-log.csv.
const Header = "timestamp,batch_id,user_id,accepted,rejected,duration_ms,status"

const (
	numFields   = 7
	logDir      = "logs"
	logFile     = "logs/batch-log.csv"
	colTS       = 0
	colBatchID  = 1
	colUserID   = 2
	colAccepted = 3
	colRejected = 4
	colDuration = 5
	colStatus   = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTS] = e.Timestamp.Format(time.RFC3339)
	row[colBatchID] = e.BatchID
	row[colUserID] = e.UserID
	row[colAccepted] = strconv.Itoa(e.Accepted)
	row[colRejected] = strconv.Itoa(e.Rejected)
	row[colDuration] = strconv.FormatInt(e.Duration.Milliseconds(), 10)
	row[colStatus] = e.Status
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTS])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTS], err)
	}
	accepted, err := strconv.Atoi(record[colAccepted])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing accepted %q: %w", record[colAccepted], err)
	}
	rejected, err := strconv.Atoi(record[colRejected])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing rejected %q: %w", record[colRejected], err)
	}
	ms, err := strconv.ParseInt(record[colDuration], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing duration_ms %q: %w", record[colDuration], err)
	}

	return Entry{
		Timestamp: ts,
		BatchID:   record[colBatchID],
		UserID:    record[colUserID],
		Accepted:  accepted,
		Rejected:  rejected,
		Duration:  time.Duration(ms) * time.Millisecond,
		Status:    record[colStatus],
	}, nil
}

// Append writes entries to <root>/logs/batch-log.csv, creating the file and
// header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening batch log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <root>/logs/batch-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	path := filepath.Join(root, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening batch log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading batch log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
