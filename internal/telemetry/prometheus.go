package telemetry

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/expfmt"
)

// PrometheusMetrics renders the current Snapshot in Prometheus text
// exposition format, with exactly the metric names spec.md §6 requires:
// llm_guard_requests_total, llm_guard_requests_{safe,detected,error},
// llm_guard_latency_p50/p95/p99_milliseconds, llm_guard_cache_hits_total,
// llm_guard_cache_misses_total, llm_guard_cache_hit_rate. A fresh registry
// is built from the snapshot on every call rather than kept as live,
// permanently-registered collectors: the underlying counters are Go ints
// guarded by a mutex (for O(1) Collector.PipelineComplete on the hot path),
// so the Prometheus types here exist only at export time, per the "emit
// structured events; do not compute percentiles on the hot path" design
// note in spec.md §9.
func (c *Collector) PrometheusMetrics() ([]byte, error) {
	snap := c.Snapshot()
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "llm_guard_requests_total",
		Help: "Total number of pipeline runs completed.",
	})
	requestsTotal.Set(float64(snap.RequestsTotal))

	requestsSafe := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "llm_guard_requests_safe",
		Help: "Pipeline runs that completed safe.",
	})
	requestsSafe.Set(float64(snap.RequestsSafe))

	requestsDetected := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "llm_guard_requests_detected",
		Help: "Pipeline runs with at least one firing detection.",
	})
	requestsDetected.Set(float64(snap.RequestsDetected))

	requestsError := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "llm_guard_requests_error",
		Help: "Pipeline runs that ended in an unsuppressed error.",
	})
	requestsError.Set(float64(snap.RequestsError))

	p50 := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "llm_guard_latency_p50_milliseconds",
		Help: "P50 pipeline latency over the latency ring buffer.",
	})
	p50.Set(snap.P50Millis)

	p95 := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "llm_guard_latency_p95_milliseconds",
		Help: "P95 pipeline latency over the latency ring buffer.",
	})
	p95.Set(snap.P95Millis)

	p99 := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "llm_guard_latency_p99_milliseconds",
		Help: "P99 pipeline latency over the latency ring buffer.",
	})
	p99.Set(snap.P99Millis)

	cacheHits := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "llm_guard_cache_hits_total",
		Help: "Total cache reads that were hits.",
	})
	cacheHits.Set(float64(snap.CacheHits))

	cacheMisses := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "llm_guard_cache_misses_total",
		Help: "Total cache reads that were misses.",
	})
	cacheMisses.Set(float64(snap.CacheMisses))

	cacheHitRate := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "llm_guard_cache_hit_rate",
		Help: "Cache hit rate (hits / (hits+misses)) over process lifetime.",
	})
	cacheHitRate.Set(snap.CacheHitRate)

	registry.MustRegister(
		requestsTotal, requestsSafe, requestsDetected, requestsError,
		p50, p95, p99,
		cacheHits, cacheMisses, cacheHitRate,
	)

	families, err := registry.Gather()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
