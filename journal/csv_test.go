package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traderank/traderank/trade"
)

func sampleClosed() trade.Closed {
	entry := time.Date(2026, 1, 5, 9, 31, 0, 0, time.UTC)
	exit := time.Date(2026, 1, 5, 10, 2, 0, 0, time.UTC)
	return trade.Closed{
		ID:         "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Symbol:     "AAPL",
		Side:       trade.Sell,
		Quantity:   decimal.RequireFromString("100"),
		EntryPrice: decimal.RequireFromString("10"),
		ExitPrice:  decimal.RequireFromString("12"),
		EntryTime:  entry,
		ExitTime:   exit,
		Commission: decimal.RequireFromString("2"),
		GrossPL:    decimal.RequireFromString("200"),
		NetPL:      decimal.RequireFromString("198"),
	}
}

func TestCSVJournalHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	r := csv.NewReader(strings.NewReader(string(data)))
	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, csvHeader, got)
}

func TestCSVJournalRecordClosed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordClosed(sampleClosed()))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	r := csv.NewReader(strings.NewReader(string(data)))
	_, err = r.Read() // header
	require.NoError(t, err)
	row, err := r.Read()
	require.NoError(t, err)

	want := []string{
		"01ARZ3NDEKTSV4RRFFQ69G5FAV",
		"AAPL",
		"sell",
		"100",
		"10",
		"12",
		"2026-01-05T09:31:00Z",
		"2026-01-05T10:02:00Z",
		"2",
		"200",
		"198",
	}
	assert.Equal(t, want, row)
}

func TestCSVJournalAppendsWithoutDuplicateHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordClosed(sampleClosed()))
	require.NoError(t, j.Close())

	// Reopen, as a second analyzer run would.
	j, err = NewCSV(path)
	require.NoError(t, err)
	second := sampleClosed()
	second.ID = "01BX5ZZKBKACTAV9WEVGEMMVRZ"
	require.NoError(t, j.RecordClosed(second))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "one header and two records")
	assert.True(t, strings.HasPrefix(lines[0], "id,"))
	assert.False(t, strings.HasPrefix(lines[2], "id,"))
}
