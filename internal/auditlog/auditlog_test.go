package auditlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(batchID string) Entry {
	return Entry{
		Timestamp: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		BatchID:   batchID,
		UserID:    "u1",
		Accepted:  48,
		Rejected:  2,
		Duration:  125 * time.Millisecond,
		Status:    "committed",
	}
}

func TestAppendRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Append(dir, []Entry{entry("b1")}))
	require.NoError(t, Append(dir, []Entry{entry("b2")}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b1", entries[0].BatchID)
	assert.Equal(t, "b2", entries[1].BatchID)
	assert.Equal(t, 48, entries[0].Accepted)
	assert.Equal(t, 125*time.Millisecond, entries[0].Duration)
}

func TestAppend_WritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Append(dir, []Entry{entry("b1")}))
	require.NoError(t, Append(dir, []Entry{entry("b2")}))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "batch-log.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, countOccurrences(string(data), "timestamp,batch_id"))
}

func TestRead_NoFile(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnmarshalEntry_BadRow(t *testing.T) {
	_, err := UnmarshalEntry([]string{"not-a-time", "b", "u", "1", "0", "5", "committed"})
	require.Error(t, err)

	_, err = UnmarshalEntry([]string{"short"})
	require.Error(t, err)
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
