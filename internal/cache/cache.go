// Package cache implements the two-tier, process-scoped cache spec.md §4.8
// describes: a never-expiring compiled-pattern map, and a TTL-bounded,
// capacity-bounded result map. Both maps are sharded for lock-free-ish
// concurrent reads, per the design note in spec.md §9 ("a sharded
// concurrent hash map keyed by 32-byte hash values"); the counters follow
// the mutex-guarded-struct idiom from the teacher's
// internal/detector/circuit_breaker.go Metrics type.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sync"
	"sync/atomic"
	"time"
)

const shardCount = 16

// HashInput returns the 64-lowercase-hex-character SHA-256 digest of s,
// the input_hash spec.md §3/§4.8 uses as half of every result-cache key.
func HashInput(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

type resultKey struct {
	hash       string
	detectorID string
}

type resultEntry struct {
	value     any
	expiresAt time.Time
}

type patternShard struct {
	mu      sync.RWMutex
	entries map[string]*regexp.Regexp
}

type resultShard struct {
	mu      sync.RWMutex
	entries map[resultKey]resultEntry
}

// Cache is the process-wide pattern/result cache. Construct one with New
// at startup and share it by reference; Close stops its background
// cleanup goroutine and is meant for test/shutdown symmetry.
type Cache struct {
	maxEntries      int
	cleanupInterval time.Duration

	patternShards [shardCount]*patternShard
	resultShards  [shardCount]*resultShard

	patternHits   int64
	patternMisses int64
	resultHits    int64
	resultMisses  int64

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Option configures a Cache at construction.
type Option func(*Cache)

// WithMaxEntries overrides the result-map capacity (default 10000, per
// spec.md §3's caching.max_cache_entries default).
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

// WithCleanupInterval overrides the background sweep period (default 60s,
// per spec.md §4.8).
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Cache) { c.cleanupInterval = d }
}

// New constructs a Cache and starts its background cleanup goroutine.
func New(opts ...Option) *Cache {
	c := &Cache{
		maxEntries:      10000,
		cleanupInterval: 60 * time.Second,
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	for i := range c.patternShards {
		c.patternShards[i] = &patternShard{entries: make(map[string]*regexp.Regexp)}
	}
	for i := range c.resultShards {
		c.resultShards[i] = &resultShard{entries: make(map[resultKey]resultEntry)}
	}

	go c.cleanupLoop()
	return c
}

// Close stops the background cleanup goroutine. Safe to call multiple
// times; safe to never call in a process that runs until exit.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.TriggerCleanup()
		case <-c.stopCh:
			return
		}
	}
}

func shardFor(key string) int {
	sum := sha256.Sum256([]byte(key))
	return int(sum[0]) % shardCount
}

// PutPattern stores a compiled regex under patternID. Pattern entries never
// expire.
func (c *Cache) PutPattern(patternID string, re *regexp.Regexp) {
	shard := c.patternShards[shardFor(patternID)]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.entries[patternID] = re
}

// GetPattern looks up a previously stored compiled regex.
func (c *Cache) GetPattern(patternID string) (*regexp.Regexp, bool) {
	shard := c.patternShards[shardFor(patternID)]
	shard.mu.RLock()
	re, ok := shard.entries[patternID]
	shard.mu.RUnlock()

	if ok {
		atomic.AddInt64(&c.patternHits, 1)
	} else {
		atomic.AddInt64(&c.patternMisses, 1)
	}
	return re, ok
}

// PutResult inserts (hash, detectorID) -> value with the given TTL. A TTL
// of 0 produces an entry that is already expired the instant it is
// written (now < expiresAt is false when expiresAt == now), per spec.md
// §4.8/§8 property 7.
func (c *Cache) PutResult(hash, detectorID string, value any, ttl time.Duration) {
	c.putResult(hash, detectorID, value, ttl)
}

// PutResultSync is identical to PutResult — the cache's write path has no
// asynchronous buffering to flush, so there is nothing extra to block on,
// but the distinct name is kept (per spec.md §4.8) so callers that need a
// synchronous-write guarantee have an explicit entry point that will not
// silently become asynchronous if the cache's internals change later.
func (c *Cache) PutResultSync(hash, detectorID string, value any, ttl time.Duration) {
	c.putResult(hash, detectorID, value, ttl)
}

func (c *Cache) putResult(hash, detectorID string, value any, ttl time.Duration) {
	key := resultKey{hash: hash, detectorID: detectorID}
	shard := c.resultShards[shardFor(hash+detectorID)]

	shard.mu.RLock()
	_, exists := shard.entries[key]
	shard.mu.RUnlock()

	// Eviction takes its own shard locks one at a time, so it must not run
	// while this shard's own lock is held below — two concurrent inserts
	// racing past the capacity check is acceptable (last-writer-wins is
	// explicitly fine for this cache, per spec.md §5).
	if !exists && c.totalResultCount() >= c.maxEntries {
		c.evictSmallestExpiry()
	}

	shard.mu.Lock()
	shard.entries[key] = resultEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	shard.mu.Unlock()
}

// GetResult returns the cached value for (hash, detectorID), or !ok when
// absent or expired. An expired entry is removed as a side effect of the
// lookup, per spec.md §4.8.
func (c *Cache) GetResult(hash, detectorID string) (any, bool) {
	key := resultKey{hash: hash, detectorID: detectorID}
	shard := c.resultShards[shardFor(hash+detectorID)]

	shard.mu.Lock()
	entry, ok := shard.entries[key]
	if ok && time.Now().Before(entry.expiresAt) {
		shard.mu.Unlock()
		atomic.AddInt64(&c.resultHits, 1)
		return entry.value, true
	}
	if ok {
		delete(shard.entries, key)
	}
	shard.mu.Unlock()

	atomic.AddInt64(&c.resultMisses, 1)
	return nil, false
}

// ClearResults removes every entry from the result map, leaving the
// pattern map untouched.
func (c *Cache) ClearResults() {
	for _, shard := range c.resultShards {
		shard.mu.Lock()
		shard.entries = make(map[resultKey]resultEntry)
		shard.mu.Unlock()
	}
}

// ClearAll removes every entry from both maps.
func (c *Cache) ClearAll() {
	c.ClearResults()
	for _, shard := range c.patternShards {
		shard.mu.Lock()
		shard.entries = make(map[string]*regexp.Regexp)
		shard.mu.Unlock()
	}
}

// TriggerCleanup synchronously sweeps and deletes every expired result
// entry, for deterministic testing as well as the background loop's own
// periodic use, per spec.md §4.8.
func (c *Cache) TriggerCleanup() {
	now := time.Now()
	for _, shard := range c.resultShards {
		shard.mu.Lock()
		for key, entry := range shard.entries {
			if !now.Before(entry.expiresAt) {
				delete(shard.entries, key)
			}
		}
		shard.mu.Unlock()
	}
}

// totalResultCount sums the live entry count across every shard. Only used
// on the (rare) insert-at-capacity path.
func (c *Cache) totalResultCount() int {
	total := 0
	for _, shard := range c.resultShards {
		shard.mu.RLock()
		total += len(shard.entries)
		shard.mu.RUnlock()
	}
	return total
}

// evictSmallestExpiry drops the single result entry with the smallest
// expires_at across all shards, per spec.md §4.8's permitted simple
// eviction policy.
func (c *Cache) evictSmallestExpiry() {
	var (
		found     bool
		bestShard *resultShard
		bestKey   resultKey
		bestTime  time.Time
	)
	for _, shard := range c.resultShards {
		shard.mu.RLock()
		for key, entry := range shard.entries {
			if !found || entry.expiresAt.Before(bestTime) {
				found = true
				bestShard = shard
				bestKey = key
				bestTime = entry.expiresAt
			}
		}
		shard.mu.RUnlock()
	}
	if found {
		bestShard.mu.Lock()
		delete(bestShard.entries, bestKey)
		bestShard.mu.Unlock()
	}
}

// Stats is the snapshot spec.md §4.8 describes.
type Stats struct {
	PatternCount  int
	ResultCount   int
	PatternHits   int64
	PatternMisses int64
	ResultHits    int64
	ResultMisses  int64
	HitRate       float64
}

// Stats returns a point-in-time snapshot of cache counters.
func (c *Cache) Stats() Stats {
	patternCount := 0
	for _, shard := range c.patternShards {
		shard.mu.RLock()
		patternCount += len(shard.entries)
		shard.mu.RUnlock()
	}

	resultCount := 0
	for _, shard := range c.resultShards {
		shard.mu.RLock()
		resultCount += len(shard.entries)
		shard.mu.RUnlock()
	}

	patternHits := atomic.LoadInt64(&c.patternHits)
	patternMisses := atomic.LoadInt64(&c.patternMisses)
	resultHits := atomic.LoadInt64(&c.resultHits)
	resultMisses := atomic.LoadInt64(&c.resultMisses)

	total := patternHits + patternMisses + resultHits + resultMisses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(patternHits+resultHits) / float64(total)
	}

	return Stats{
		PatternCount:  patternCount,
		ResultCount:   resultCount,
		PatternHits:   patternHits,
		PatternMisses: patternMisses,
		ResultHits:    resultHits,
		ResultMisses:  resultMisses,
		HitRate:       hitRate,
	}
}
