// Package cache provides an LRU, Get-with-loader cache for ingested
// products and loaded area masks.
//
// A name-keyed Get(key, loader) returns a cached entry on hit or calls
// loader and caches the result on miss, plus a Stats() accessor, built
// on hashicorp/golang-lru/v2 rather than a hand-rolled container/list
// pairing. Cache keys that combine a file path with an ingestion
// option set are folded to a single string with cespare/xxhash/v2
// rather than a long literal concatenation.
package cache

import (
	"fmt"
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/harpgo/harp/internal/metrics"
)

// Cache is a fixed-capacity, LRU-evicted cache from string keys to
// values of type V, instrumented under name for metrics.CacheEntries
// and metrics.CacheRequestsTotal.
type Cache[V any] struct {
	name string
	lru  *lru.Cache[string, V]

	hits   int64
	misses int64
}

// New builds a cache holding at most size entries. size must be
// positive.
func New[V any](name string, size int) (*Cache[V], error) {
	l, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("cache %q: %w", name, err)
	}
	return &Cache[V]{name: name, lru: l}, nil
}

// Get returns the cached value for key, calling loader and caching its
// result on a miss. loader is never called on a hit.
func (c *Cache[V]) Get(key string, loader func() (V, error)) (V, error) {
	if v, ok := c.lru.Get(key); ok {
		atomic.AddInt64(&c.hits, 1)
		metrics.CacheRequestsTotal.WithLabelValues(c.name, "hit").Inc()
		return v, nil
	}
	atomic.AddInt64(&c.misses, 1)
	metrics.CacheRequestsTotal.WithLabelValues(c.name, "miss").Inc()

	v, err := loader()
	if err != nil {
		var zero V
		metrics.CacheRequestsTotal.WithLabelValues(c.name, "error").Inc()
		return zero, err
	}
	c.lru.Add(key, v)
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(c.lru.Len()))
	return v, nil
}

// Remove evicts key, if present.
func (c *Cache[V]) Remove(key string) {
	c.lru.Remove(key)
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(c.lru.Len()))
}

// Purge empties the cache.
func (c *Cache[V]) Purge() {
	c.lru.Purge()
	metrics.CacheEntries.WithLabelValues(c.name).Set(0)
}

// Stats reports the cache's current size and cumulative hit/miss
// counts.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// Stats returns the cache's current statistics.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Entries: c.lru.Len(),
		Hits:    atomic.LoadInt64(&c.hits),
		Misses:  atomic.LoadInt64(&c.misses),
	}
}

// Key folds a source file path and its resolved ingestion option
// values into a single cache key: two products ingested from the same
// file under different option sets (e.g. different processing levels)
// must not collide.
func Key(path string, optionValues map[string]string) string {
	names := make([]string, 0, len(optionValues))
	for k := range optionValues {
		names = append(names, k)
	}
	sort.Strings(names)

	h := xxhash.New()
	_, _ = h.WriteString(path)
	for _, k := range names {
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(k)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(optionValues[k])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
