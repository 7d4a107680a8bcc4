package ingest

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traderank/traderank/journal"
	"github.com/traderank/traderank/metrics"
	"github.com/traderank/traderank/store"
)

const header = "Symbol,Side,Qty,Fill Price,Time,Net Amount,Commission\n"

const (
	rowBuy   = "AAPL,Buy,100,10,2026-01-05 09:31:00,-1000,1\n"
	rowSell  = "AAPL,Sell,100,12,2026-01-05 10:02:00,1200,1\n"
	rowBuy2  = "MSFT,Long,50,20,2026-01-06 09:45:00,-1000,0.5\n"
	rowSell2 = "MSFT,Short,50,21,2026-01-06 11:15:00,1050,0.5\n"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func run(t *testing.T, source, cachePath string, reprocess bool) (*store.Cache, Report) {
	t.Helper()
	r := &Runner{
		Source:    source,
		CachePath: cachePath,
		Params:    metrics.DefaultParams(),
		Reprocess: reprocess,
		Log:       quiet(),
	}
	cache, rep, err := r.Run()
	require.NoError(t, err)
	return cache, rep
}

func TestRunProcessesAndCaches(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	writeCSV(t, source, "day1.csv", header+rowBuy+rowSell)

	cache, rep := run(t, source, cachePath, false)

	assert.Equal(t, 1, rep.FilesProcessed)
	assert.Equal(t, 2, rep.TradesParsed)
	assert.Equal(t, 1, rep.NewClosed)
	assert.Zero(t, rep.DuplicatesDropped)
	assert.Zero(t, rep.RowsRejected)

	require.Len(t, cache.Closed, 1)
	c := cache.Closed[0]
	assert.Equal(t, "AAPL", c.Symbol)
	assert.Equal(t, "200", c.GrossPL.String())
	assert.Equal(t, "198", c.NetPL.String())
	assert.Empty(t, cache.OpenLots)

	require.NotNil(t, cache.Report)
	assert.Equal(t, 1, cache.Report.TotalTrades)

	// The run persisted everything.
	reloaded, err := store.Load(cachePath)
	require.NoError(t, err)
	assert.Len(t, reloaded.Closed, 1)
	assert.Len(t, reloaded.Files, 1)
}

func TestSecondRunSkipsProcessedFiles(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	writeCSV(t, source, "day1.csv", header+rowBuy+rowSell)

	run(t, source, cachePath, false)
	cache, rep := run(t, source, cachePath, false)

	assert.Zero(t, rep.FilesProcessed)
	assert.Equal(t, 1, rep.FilesUnchanged)
	assert.Zero(t, rep.NewClosed)
	assert.Len(t, cache.Closed, 1, "history must not grow on a no-op run")
}

func TestDuplicateRowsWithinFileDropped(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	writeCSV(t, source, "day1.csv", header+rowBuy+rowBuy+rowSell)

	cache, rep := run(t, source, cachePath, false)

	assert.Equal(t, 3, rep.TradesParsed)
	assert.Equal(t, 1, rep.DuplicatesDropped)
	assert.Len(t, cache.Closed, 1, "the duplicated buy must contribute once")
	assert.Empty(t, cache.OpenLots)
}

func TestDedupAcrossRunsWithReexportedFile(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	writeCSV(t, source, "day1.csv", header+rowBuy+rowSell)
	run(t, source, cachePath, false)

	// A later export repeats yesterday's fills and adds a new pair.
	writeCSV(t, source, "day2.csv", header+rowBuy+rowSell+rowBuy2+rowSell2)
	cache, rep := run(t, source, cachePath, false)

	assert.Equal(t, 1, rep.FilesProcessed)
	assert.Equal(t, 1, rep.FilesUnchanged)
	assert.Equal(t, 2, rep.DuplicatesDropped)
	assert.Equal(t, 1, rep.NewClosed)
	assert.Len(t, cache.Closed, 2)
}

func TestConvergenceIncrementalEqualsBatch(t *testing.T) {
	t.Parallel()

	file1 := header + rowBuy + rowBuy2
	file2 := header + rowSell + rowSell2

	// Incremental: one run per file.
	incSource := t.TempDir()
	incCache := filepath.Join(t.TempDir(), "cache.json")
	writeCSV(t, incSource, "f1.csv", file1)
	run(t, incSource, incCache, false)
	writeCSV(t, incSource, "f2.csv", file2)
	inc, _ := run(t, incSource, incCache, false)

	// Batch: both files, one run from an empty cache.
	batchSource := t.TempDir()
	batchCache := filepath.Join(t.TempDir(), "cache.json")
	writeCSV(t, batchSource, "f1.csv", file1)
	writeCSV(t, batchSource, "f2.csv", file2)
	batch, _ := run(t, batchSource, batchCache, false)

	assert.Equal(t, batch.Closed, inc.Closed,
		"incremental processing must produce the same closed-trade history, IDs included")
	assert.Equal(t, batch.Report, inc.Report,
		"incremental processing must produce the same summaries")
	assert.Equal(t, batch.OpenLots, inc.OpenLots)
}

func TestReprocessReplaysFromEmptyState(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	writeCSV(t, source, "day1.csv", header+rowBuy+rowSell)
	writeCSV(t, source, "day2.csv", header+rowBuy2+rowSell2)

	first, _ := run(t, source, cachePath, false)
	require.Len(t, first.Closed, 2)

	second, rep := run(t, source, cachePath, true)

	assert.Equal(t, 2, rep.FilesProcessed, "reprocess must replay every file")
	assert.Zero(t, rep.FilesUnchanged)
	assert.Zero(t, rep.DuplicatesDropped, "fingerprints were cleared first")
	assert.Len(t, second.Closed, 2, "history must not double")
	assert.Equal(t, first.Closed, second.Closed, "replaying the same fills must reproduce the same IDs")
}

func TestReprocessDoesNotDuplicateJournal(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	dbPath := filepath.Join(t.TempDir(), "journal.sqlite")
	writeCSV(t, source, "day1.csv", header+rowBuy+rowSell)

	runWithJournal := func(reprocess bool) {
		j, err := journal.NewSQLite(dbPath)
		require.NoError(t, err)
		defer j.Close()

		r := &Runner{
			Source:    source,
			CachePath: cachePath,
			Params:    metrics.DefaultParams(),
			Journal:   j,
			Reprocess: reprocess,
			Log:       quiet(),
		}
		_, _, err = r.Run()
		require.NoError(t, err)
	}

	runWithJournal(false)
	runWithJournal(true)

	j, err := journal.NewSQLite(dbPath)
	require.NoError(t, err)
	defer j.Close()

	got, err := j.ListClosedBetween(time.Time{}, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, got, 1, "replaying the history must not journal trades twice")
}

func TestPositionsFileSkippedWholesale(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	writeCSV(t, source, "positions.csv",
		"Symbol,Qty,Avg Price,Unrealized P&L\nAAPL,100,150.00,250.00\n")
	writeCSV(t, source, "trades.csv", header+rowBuy+rowSell)

	cache, rep := run(t, source, cachePath, false)

	assert.Equal(t, 1, rep.FilesSkipped)
	assert.Equal(t, 1, rep.FilesProcessed)
	assert.Equal(t, 2, rep.TradesParsed, "zero rows may come from the positions file")
	assert.Len(t, cache.Closed, 1)

	// Skipped files are not marked processed; they are re-checked (and
	// re-skipped) on the next run.
	_, rep = run(t, source, cachePath, false)
	assert.Equal(t, 1, rep.FilesSkipped)
	assert.Equal(t, 1, rep.FilesUnchanged)
}

func TestRejectedRowsReported(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	writeCSV(t, source, "day1.csv", header+
		rowBuy+
		"AAPL,Buy,not-a-number,10,2026-01-05 09:40:00,0,0\n"+
		rowSell)

	cache, rep := run(t, source, cachePath, false)

	assert.Equal(t, 1, rep.RowsRejected)
	assert.Equal(t, 2, rep.TradesParsed)
	assert.Len(t, cache.Closed, 1)
}

func TestChronologicalOrderAcrossFiles(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	// The sell lands in the alphabetically earlier file; matching must
	// still follow trade time, not file order.
	writeCSV(t, source, "a.csv", header+rowSell)
	writeCSV(t, source, "b.csv", header+rowBuy)

	cache, rep := run(t, source, cachePath, false)

	assert.Equal(t, 1, rep.NewClosed)
	require.Len(t, cache.Closed, 1)
	assert.Equal(t, "198", cache.Closed[0].NetPL.String())
	assert.Empty(t, cache.OpenLots)
}

func TestOpenPositionCarriesToNextRun(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	writeCSV(t, source, "day1.csv", header+rowBuy)

	cache, rep := run(t, source, cachePath, false)
	assert.Zero(t, rep.NewClosed)
	require.Len(t, cache.OpenLots["AAPL"], 1)

	writeCSV(t, source, "day2.csv", header+rowSell)
	cache, rep = run(t, source, cachePath, false)

	assert.Equal(t, 1, rep.NewClosed)
	assert.Empty(t, cache.OpenLots, "the earlier lot must close across runs")
	require.Len(t, cache.Closed, 1)
	assert.Equal(t, "198", cache.Closed[0].NetPL.String())
}

func TestCorruptCacheAbortsBeforeMutation(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	cacheDir := t.TempDir()
	cachePath := filepath.Join(cacheDir, "cache.json")
	writeCSV(t, source, "day1.csv", header+rowBuy+rowSell)
	require.NoError(t, os.WriteFile(cachePath, []byte("{broken"), 0o644))

	r := &Runner{
		Source:    source,
		CachePath: cachePath,
		Params:    metrics.DefaultParams(),
		Log:       quiet(),
	}
	_, _, err := r.Run()
	assert.ErrorIs(t, err, store.ErrCorrupt)

	// The unreadable cache file is preserved for inspection.
	data, readErr := os.ReadFile(cachePath)
	require.NoError(t, readErr)
	assert.Equal(t, "{broken", string(data))
}

func TestMissingSourceDirIsAnError(t *testing.T) {
	t.Parallel()

	r := &Runner{
		Source:    filepath.Join(t.TempDir(), "nope"),
		CachePath: filepath.Join(t.TempDir(), "cache.json"),
		Params:    metrics.DefaultParams(),
		Log:       quiet(),
	}
	_, _, err := r.Run()
	assert.Error(t, err)
}
