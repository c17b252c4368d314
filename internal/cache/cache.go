package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"neuromatch/internal/structured"
)

// DefaultSize is used when a non-positive capacity is configured
const DefaultSize = 256

// ResultCache is a process-wide, capacity-bounded LRU of section results.
// Values are copied on the way in and out so callers never share state.
type ResultCache struct {
	entries  *lru.Cache[string, structured.Object]
	capacity int
	hits     atomic.Int64
	misses   atomic.Int64
}

// Stats is a point-in-time view of cache usage
type Stats struct {
	Size     int   `json:"size"`
	Capacity int   `json:"capacity"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
}

// New creates an empty cache holding at most size entries
func New(size int) (*ResultCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, structured.Object](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{entries: entries, capacity: size}, nil
}

// Get returns a copy of the cached value and refreshes its recency.
func (c *ResultCache) Get(key string) (structured.Object, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return structured.CloneObject(v), true
}

// Set stores a copy of value, evicting the least recently used entry when full.
func (c *ResultCache) Set(key string, value structured.Object) {
	c.entries.Add(key, structured.CloneObject(value))
}

// Len returns the number of cached entries
func (c *ResultCache) Len() int {
	return c.entries.Len()
}

// Purge empties the cache
func (c *ResultCache) Purge() {
	c.entries.Purge()
}

// Stats returns usage counters
func (c *ResultCache) Stats() Stats {
	return Stats{
		Size:     c.entries.Len(),
		Capacity: c.capacity,
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
	}
}

// Key hashes the ordered parts into a cache key. Parts are length-prefixed
// so that adjacent parts cannot run into each other.
func Key(parts ...string) string {
	h := sha256.New()
	var size [8]byte
	for _, p := range parts {
		n := uint64(len(p))
		for i := range size {
			size[i] = byte(n >> (8 * i))
		}
		h.Write(size[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
