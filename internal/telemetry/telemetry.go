// Package telemetry implements spec.md §4.9: the three structured events
// every pipeline run emits (pipeline.complete, detector.complete,
// cache.access), a bounded ring buffer for latency percentiles, counters by
// (detector, category) and (error_type), and the Prometheus text exposition
// spec.md §6 names exactly. Percentiles are computed on demand from the
// ring buffer, never on the hot path, per the design note in spec.md §9 —
// mirroring the teacher's own RecordSuccess/RecordFailure-plus-GetX
// snapshot idiom in internal/detector/circuit_breaker.go, generalized from
// one rolling average to a full percentile buffer.
package telemetry

import (
	"sort"
	"sync"
	"time"
)

// PipelineCompleteEvent is emitted once per pipeline run, whether it ends
// safe, detected, or errored.
type PipelineCompleteEvent struct {
	RequestID     string
	DurationNano  time.Duration
	Detections    int
	Detectors     []string
	Safe          bool
	DetectorCount int
	Error         string
}

// DetectorCompleteEvent is emitted once per detector invocation, including
// cache hits (which re-emit this event without re-executing the detector,
// per spec.md §4.1 step 1).
type DetectorCompleteEvent struct {
	RequestID    string
	Detector     string
	DurationNano time.Duration
	Detected     bool
	Category     string
	Confidence   float64
}

// CacheAccessEvent is emitted on every cache read attempt.
type CacheAccessEvent struct {
	RequestID string
	CacheType string // "pattern" or "result"
	Hit       bool
}

// Sink is the telemetry consumer the pipeline writes to. A nil Sink is
// never passed around internally; NewNoop provides the zero-cost default
// so the pipeline can always call into a Sink unconditionally.
type Sink interface {
	PipelineComplete(PipelineCompleteEvent)
	DetectorComplete(DetectorCompleteEvent)
	CacheAccess(CacheAccessEvent)
}

// noopSink discards every event. Used when an embedder hasn't wired a
// Collector (or any other Sink) in.
type noopSink struct{}

func (noopSink) PipelineComplete(PipelineCompleteEvent) {}
func (noopSink) DetectorComplete(DetectorCompleteEvent) {}
func (noopSink) CacheAccess(CacheAccessEvent)           {}

// NewNoop returns a Sink that discards every event.
func NewNoop() Sink { return noopSink{} }

const ringBufferCapacity = 1000

// Collector is the in-process metrics aggregator spec.md §4.9 describes:
// a bounded ring buffer of recent pipeline latencies for P50/P95/P99, plus
// counters by (detector, category) and (error_type). It implements Sink
// directly so it can be wired into a Pipeline as-is.
type Collector struct {
	mu sync.Mutex

	ring     [ringBufferCapacity]time.Duration
	ringNext int
	ringLen  int

	requestsTotal    int64
	requestsSafe     int64
	requestsDetected int64
	requestsError    int64

	cacheHits   int64
	cacheMisses int64

	detectorCategoryCounts map[detectorCategoryKey]int64
	errorTypeCounts        map[string]int64
}

type detectorCategoryKey struct {
	detector string
	category string
}

// NewCollector returns a ready-to-use Collector.
func NewCollector() *Collector {
	return &Collector{
		detectorCategoryCounts: make(map[detectorCategoryKey]int64),
		errorTypeCounts:        make(map[string]int64),
	}
}

// PipelineComplete records one pipeline run's latency and outcome.
func (c *Collector) PipelineComplete(e PipelineCompleteEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ring[c.ringNext] = e.DurationNano
	c.ringNext = (c.ringNext + 1) % ringBufferCapacity
	if c.ringLen < ringBufferCapacity {
		c.ringLen++
	}

	c.requestsTotal++
	switch {
	case e.Error != "":
		c.requestsError++
		c.errorTypeCounts[e.Error]++
	case !e.Safe:
		c.requestsDetected++
	default:
		c.requestsSafe++
	}
}

// DetectorComplete records per-(detector,category) counts for every
// detected, firing invocation.
func (c *Collector) DetectorComplete(e DetectorCompleteEvent) {
	if !e.Detected {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detectorCategoryCounts[detectorCategoryKey{detector: e.Detector, category: e.Category}]++
}

// CacheAccess records a cache hit or miss.
func (c *Collector) CacheAccess(e CacheAccessEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.Hit {
		c.cacheHits++
	} else {
		c.cacheMisses++
	}
}

// Snapshot is a point-in-time read of every counter and percentile the
// Collector tracks.
type Snapshot struct {
	RequestsTotal    int64
	RequestsSafe     int64
	RequestsDetected int64
	RequestsError    int64
	CacheHits        int64
	CacheMisses      int64
	CacheHitRate     float64
	P50Millis        float64
	P95Millis        float64
	P99Millis        float64
	ByDetectorCat    map[string]int64
	ByErrorType      map[string]int64
}

// Snapshot returns the current counter/percentile state.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	durations := make([]time.Duration, c.ringLen)
	copy(durations, c.ring[:c.ringLen])

	cacheTotal := c.cacheHits + c.cacheMisses
	hitRate := 0.0
	if cacheTotal > 0 {
		hitRate = float64(c.cacheHits) / float64(cacheTotal)
	}

	byDetectorCat := make(map[string]int64, len(c.detectorCategoryCounts))
	for k, v := range c.detectorCategoryCounts {
		byDetectorCat[k.detector+"|"+k.category] = v
	}
	byErrorType := make(map[string]int64, len(c.errorTypeCounts))
	for k, v := range c.errorTypeCounts {
		byErrorType[k] = v
	}

	p50, p95, p99 := percentiles(durations)

	return Snapshot{
		RequestsTotal:    c.requestsTotal,
		RequestsSafe:     c.requestsSafe,
		RequestsDetected: c.requestsDetected,
		RequestsError:    c.requestsError,
		CacheHits:        c.cacheHits,
		CacheMisses:      c.cacheMisses,
		CacheHitRate:     hitRate,
		P50Millis:        millis(p50),
		P95Millis:        millis(p95),
		P99Millis:        millis(p99),
		ByDetectorCat:    byDetectorCat,
		ByErrorType:      byErrorType,
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// percentiles sorts a copy of durations and picks the P50/P95/P99 indices.
// Not computed on the hot path — only when a Snapshot (or Prometheus
// exposition) is requested, per spec.md §9.
func percentiles(durations []time.Duration) (p50, p95, p99 time.Duration) {
	if len(durations) == 0 {
		return 0, 0, 0
	}
	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return sorted[percentileIndex(len(sorted), 0.50)],
		sorted[percentileIndex(len(sorted), 0.95)],
		sorted[percentileIndex(len(sorted), 0.99)]
}

func percentileIndex(n int, p float64) int {
	idx := int(float64(n-1) * p)
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
