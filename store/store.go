// Package store persists the analyzer's derived state between runs: the
// fingerprint set, open lots, closed-trade history, processed-file records,
// and the cached report.
//
// The cache is an explicit value: loaded at start, mutated in memory, and
// written back atomically at the end. A failed run leaves the file on disk
// untouched.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/traderank/traderank/metrics"
	"github.com/traderank/traderank/trade"
)

// SchemaVersion is bumped whenever the persisted shape changes
// incompatibly. A cache written under any other version is corrupt as far
// as this build is concerned.
const SchemaVersion = 1

// ErrCorrupt marks a cache that cannot be trusted: unreadable JSON or a
// schema version this build does not understand. It is fatal for the run;
// the on-disk file is left as-is so a matching build can still read it.
var ErrCorrupt = errors.New("cache corrupt")

// FileRecord remembers a processed input file. A file is skipped on later
// runs only when both its path and content signature match.
type FileRecord struct {
	Path        string    `json:"path"`
	Signature   string    `json:"signature"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	Trades      int       `json:"trades"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Cache is the aggregate root of all persisted state. Summaries in Report
// are always derivable by replaying Closed; they are stored for speed, and
// correctness never depends on them being present.
type Cache struct {
	Schema       int                    `json:"schema"`
	Fingerprints []string               `json:"fingerprints"`
	OpenLots     map[string][]trade.Lot `json:"open_lots,omitempty"`
	Closed       []trade.Closed         `json:"closed_trades,omitempty"`
	Files        map[string]FileRecord  `json:"processed_files,omitempty"`
	Report       *metrics.Report        `json:"report,omitempty"`

	seen map[string]struct{}
}

// New returns an empty cache at the current schema version.
func New() *Cache {
	return &Cache{
		Schema: SchemaVersion,
		Files:  map[string]FileRecord{},
		seen:   map[string]struct{}{},
	}
}

// Load reads a cache file. A missing file is a fresh start, not an error.
// Anything unreadable or at the wrong schema version wraps ErrCorrupt.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}

	c := New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCorrupt, path, err)
	}
	if c.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: %s has schema %d, want %d", ErrCorrupt, path, c.Schema, SchemaVersion)
	}

	c.seen = make(map[string]struct{}, len(c.Fingerprints))
	for _, fp := range c.Fingerprints {
		c.seen[fp] = struct{}{}
	}
	if c.Files == nil {
		c.Files = map[string]FileRecord{}
	}
	return c, nil
}

// Save writes the cache atomically: marshal to a temp file in the target
// directory, then rename over the old cache.
func (c *Cache) Save(path string) error {
	sort.Strings(c.Fingerprints)

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace cache %s: %w", path, err)
	}
	return nil
}

// Seen reports whether a trade fingerprint is already known.
func (c *Cache) Seen(fp string) bool {
	_, ok := c.seen[fp]
	return ok
}

// AddFingerprint records a fingerprint. The set only grows; it is cleared
// exclusively by Reset.
func (c *Cache) AddFingerprint(fp string) {
	if _, ok := c.seen[fp]; ok {
		return
	}
	c.seen[fp] = struct{}{}
	c.Fingerprints = append(c.Fingerprints, fp)
}

// FileProcessed reports whether a file with this path and content
// signature has already been ingested.
func (c *Cache) FileProcessed(path, signature string) bool {
	rec, ok := c.Files[path]
	return ok && rec.Signature == signature
}

// Reset drops every piece of derived state, returning the cache to empty.
// Used by force-reprocess before replaying all available files.
func (c *Cache) Reset() {
	c.Fingerprints = nil
	c.OpenLots = nil
	c.Closed = nil
	c.Files = map[string]FileRecord{}
	c.Report = nil
	c.seen = map[string]struct{}{}
}
