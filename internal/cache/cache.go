// Package cache provides a thread-safe, two-tier (memory + disk) cache for
// marketplace listings, keyed by a normalized firearm fingerprint.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elkriver/inventory-cli/internal/model"
)

// DefaultTTL is how long cached listings stay valid.
const DefaultTTL = 24 * time.Hour

// entry is the durable-tier JSON layout: one file per fingerprint. The
// original descriptor fields are kept for diagnostics only.
type entry struct {
	Timestamp    int64                 `json:"timestamp"`
	Listings     []model.MarketListing `json:"listings"`
	Manufacturer string                `json:"manufacturer"`
	Model        string                `json:"model"`
	Caliber      string                `json:"caliber"`
}

// Cache is a two-tier store for market listings: a volatile map consulted
// first and a directory of JSON files that survives restarts. All shared
// state is guarded by one mutex per instance; durable writes happen while
// holding it. Expired entries are removed lazily at read time, or in bulk by
// ClearExpired.
type Cache struct {
	dir string
	ttl time.Duration

	mu     sync.Mutex
	memory map[string]entry
	hits   uint64
	misses uint64

	now func() time.Time
}

// New creates a Cache rooted at dir with the given TTL. The directory is
// created if missing. A non-positive ttl falls back to DefaultTTL.
func New(dir string, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "cache: create dir %s", dir)
	}
	return &Cache{
		dir:    dir,
		ttl:    ttl,
		memory: make(map[string]entry),
		now:    time.Now,
	}, nil
}

// Fingerprint returns the normalized hash key for a firearm descriptor.
// Case and surrounding whitespace do not affect the key.
func Fingerprint(manufacturer, modelName, caliber string) string {
	normalized := fmt.Sprintf("%s|%s|%s",
		strings.ToUpper(strings.TrimSpace(manufacturer)),
		strings.ToUpper(strings.TrimSpace(modelName)),
		strings.ToUpper(strings.TrimSpace(caliber)),
	)
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) filePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *Cache) valid(e entry) bool {
	age := c.now().Unix() - e.Timestamp
	return age < int64(c.ttl.Seconds())
}

// Get returns the cached listings for a firearm, or ok=false on miss. The
// volatile tier is consulted first; a durable hit repopulates it. Expired
// entries are deleted from the tier where they are discovered.
func (c *Cache) Get(manufacturer, modelName, caliber string) ([]model.MarketListing, bool) {
	key := Fingerprint(manufacturer, modelName, caliber)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.memory[key]; ok {
		if c.valid(e) {
			c.hits++
			return e.Listings, true
		}
		delete(c.memory, key)
	}

	path := c.filePath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		c.misses++
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		// Corrupted durable record: treat as absent and remove it.
		zap.L().Warn("cache: removing corrupted entry",
			zap.String("path", path),
			zap.Error(err),
		)
		_ = os.Remove(path)
		c.misses++
		return nil, false
	}

	if !c.valid(e) {
		_ = os.Remove(path)
		c.misses++
		return nil, false
	}

	c.memory[key] = e
	c.hits++
	return e.Listings, true
}

// Set caches listings for a firearm in both tiers. A durable-tier write
// failure is logged and swallowed; the volatile tier remains authoritative
// for the process lifetime.
func (c *Cache) Set(manufacturer, modelName, caliber string, listings []model.MarketListing) {
	key := Fingerprint(manufacturer, modelName, caliber)
	e := entry{
		Timestamp:    c.now().Unix(),
		Listings:     listings,
		Manufacturer: manufacturer,
		Model:        modelName,
		Caliber:      caliber,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.memory[key] = e

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		zap.L().Warn("cache: marshal entry", zap.Error(err))
		return
	}
	if err := os.WriteFile(c.filePath(key), data, 0o644); err != nil {
		zap.L().Warn("cache: write entry",
			zap.String("path", c.filePath(key)),
			zap.Error(err),
		)
	}
}

// ClearExpired sweeps both tiers, removing anything stale or unreadable, and
// returns the number of entries removed.
func (c *Cache) ClearExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0

	for key, e := range c.memory {
		if !c.valid(e) {
			delete(c.memory, key)
			removed++
		}
	}

	paths, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		zap.L().Warn("cache: sweep glob", zap.Error(err))
		return removed
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			_ = os.Remove(path)
			removed++
			continue
		}
		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			_ = os.Remove(path)
			removed++
			continue
		}
		if !c.valid(e) {
			_ = os.Remove(path)
			removed++
		}
	}

	return removed
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	MemoryEntries int     `json:"memory_entries"`
	FileEntries   int     `json:"file_entries"`
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	Dir           string  `json:"cache_dir"`
	TTLHours      float64 `json:"ttl_hours"`
}

// Stats reports the current cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	fileEntries := 0
	if paths, err := filepath.Glob(filepath.Join(c.dir, "*.json")); err == nil {
		fileEntries = len(paths)
	}

	return Stats{
		MemoryEntries: len(c.memory),
		FileEntries:   fileEntries,
		Hits:          c.hits,
		Misses:        c.misses,
		Dir:           c.dir,
		TTLHours:      c.ttl.Hours(),
	}
}
