package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elkriver/inventory-cli/internal/model"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir(), DefaultTTL)
	require.NoError(t, err)
	return c
}

func testListings() []model.MarketListing {
	price := 525.0
	return []model.MarketListing{
		{Title: "Glock 19 Gen 5", Price: &price, Link: "https://www.armslist.com/posts/1", Source: "Armslist"},
	}
}

func TestCache_SetAndGet(t *testing.T) {
	c := newTestCache(t)

	c.Set("Glock", "19", "9mm", testListings())

	got, ok := c.Get("Glock", "19", "9mm")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Glock 19 Gen 5", got[0].Title)
}

func TestCache_Miss(t *testing.T) {
	c := newTestCache(t)

	_, ok := c.Get("Ruger", "10/22", "22 LR")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestCache_KeyNormalization(t *testing.T) {
	c := newTestCache(t)

	c.Set("Glock", " 19 ", "9mm", testListings())

	_, ok := c.Get("GLOCK", "19", " 9MM")
	assert.True(t, ok)
}

func TestFingerprint_Normalized(t *testing.T) {
	a := Fingerprint("Glock", " 19 ", "9mm")
	b := Fingerprint("GLOCK", "19", "9MM")
	out := Fingerprint("GLOCK", "17", "9MM")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, out)
	assert.Len(t, a, 32)
}

func TestCache_DurableTierSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	first, err := New(dir, DefaultTTL)
	require.NoError(t, err)
	first.Set("Glock", "19", "9mm", testListings())

	// New instance with an empty memory tier reads the file tier.
	second, err := New(dir, DefaultTTL)
	require.NoError(t, err)
	got, ok := second.Get("Glock", "19", "9mm")
	require.True(t, ok)
	assert.Len(t, got, 1)
}

func TestCache_Expiry(t *testing.T) {
	c := newTestCache(t)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("Glock", "19", "9mm", testListings())

	c.now = func() time.Time { return base.Add(DefaultTTL + time.Minute) }
	_, ok := c.Get("Glock", "19", "9mm")
	assert.False(t, ok)
}

func TestCache_CorruptedFileRemoved(t *testing.T) {
	c := newTestCache(t)
	key := Fingerprint("Glock", "19", "9mm")
	path := filepath.Join(c.dir, key+".json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, ok := c.Get("Glock", "19", "9mm")
	assert.False(t, ok)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCache_ClearExpired(t *testing.T) {
	c := newTestCache(t)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("Glock", "19", "9mm", testListings())
	c.Set("Ruger", "10/22", "22 LR", testListings())

	c.now = func() time.Time { return base.Add(DefaultTTL + time.Minute) }
	removed := c.ClearExpired()

	// Each entry lives in both tiers.
	assert.Equal(t, 4, removed)
	stats := c.Stats()
	assert.Equal(t, 0, stats.MemoryEntries)
	assert.Equal(t, 0, stats.FileEntries)
}

func TestCache_ClearExpired_KeepsFresh(t *testing.T) {
	c := newTestCache(t)

	c.Set("Glock", "19", "9mm", testListings())
	assert.Equal(t, 0, c.ClearExpired())

	_, ok := c.Get("Glock", "19", "9mm")
	assert.True(t, ok)
}

func TestCache_Stats(t *testing.T) {
	c := newTestCache(t)

	c.Set("Glock", "19", "9mm", testListings())
	c.Get("Glock", "19", "9mm")
	c.Get("Colt", "Python", "357 MAG")

	stats := c.Stats()
	assert.Equal(t, 1, stats.MemoryEntries)
	assert.Equal(t, 1, stats.FileEntries)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 24.0, stats.TTLHours)
}

func TestCache_WriteFailureIsNonFatal(t *testing.T) {
	c := newTestCache(t)
	// Point the durable tier at a path that cannot be a directory.
	c.dir = filepath.Join(c.dir, "missing", "nested")

	c.Set("Glock", "19", "9mm", testListings())

	// Memory tier still serves the entry.
	got, ok := c.Get("Glock", "19", "9mm")
	require.True(t, ok)
	assert.Len(t, got, 1)
}
