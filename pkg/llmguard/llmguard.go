// Package llmguard is the public, embedder-facing API spec.md §6 names:
// ValidateInput, ValidateOutput, ValidateBatch, plus the Stage interface for
// wiring the core into a larger request graph. It composes
// internal/config, internal/detector, internal/pipeline, internal/cache,
// and internal/telemetry the way the teacher's cmd/server/main.go wires its
// own pipeline/handler pair together, but as an importable library rather
// than only an HTTP surface.
package llmguard

import (
	"context"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"llmguard/internal/cache"
	"llmguard/internal/config"
	"llmguard/internal/detector"
	"llmguard/internal/errs"
	"llmguard/internal/patterns"
	"llmguard/internal/pii"
	"llmguard/internal/pipeline"
	"llmguard/internal/telemetry"
)

// Config is a re-export of internal/config.Config so callers can build
// one via llmguard.NewConfig(...) without importing internal/config
// directly.
type Config = config.Config

// NewConfig is a re-export of internal/config.NewConfig.
var NewConfig = config.NewConfig

// Guard bundles a validated Config with the detector pipelines built from
// it. Construct one with New and reuse it across requests: a Guard holds
// no per-request state and is safe for concurrent use.
type Guard struct {
	cfg            *config.Config
	inputPipeline  *pipeline.Pipeline
	outputPipeline *pipeline.Pipeline
	runtimeOptions pipeline.Options
	cache          *cache.Cache
	collector      *telemetry.Collector
}

// GuardOption configures a Guard at construction.
type GuardOption func(*guardSettings)

type guardSettings struct {
	cache   *cache.Cache
	logger  *logrus.Logger
	options pipeline.Options
}

// WithCache attaches a process-wide cache.Cache. Without this option a
// Guard runs uncached even if cfg.Caching is set — wiring an actual cache
// instance is an explicit, separate decision so a host can share one Cache
// across multiple Guards (e.g. one per tenant) deliberately.
func WithCache(c *cache.Cache) GuardOption {
	return func(s *guardSettings) { s.cache = c }
}

// WithLogger attaches a *logrus.Logger used by the underlying pipelines.
func WithLogger(logger *logrus.Logger) GuardOption {
	return func(s *guardSettings) { s.logger = logger }
}

// WithRuntimeOptions overrides pipeline.DefaultOptions() (early
// termination, continue_on_error, timeout). ConfidenceThreshold in the
// supplied Options is ignored in favor of cfg.ConfidenceThreshold — the
// threshold is a Config-level invariant, not a per-call runtime knob.
func WithRuntimeOptions(opts pipeline.Options) GuardOption {
	return func(s *guardSettings) { s.options = opts }
}

// New builds a Guard from a validated Config. The input pipeline runs
// Prompt-Injection then (when enabled) Jailbreak, per spec.md §6; the
// output pipeline runs DataLeakage.
func New(cfg *config.Config, opts ...GuardOption) (*Guard, error) {
	settings := guardSettings{options: pipeline.DefaultOptions()}
	for _, opt := range opts {
		opt(&settings)
	}
	settings.options.ConfidenceThreshold = cfg.ConfidenceThreshold
	settings.options.Caching = cfg.Caching

	collector := telemetry.NewCollector()

	pipelineOpts := []pipeline.Option{WithTelemetrySink(collector)}
	if settings.cache != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithCache(settings.cache))
	}
	if settings.logger != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithLogger(settings.logger))
	}

	g := &Guard{
		cfg:            cfg,
		runtimeOptions: settings.options,
		cache:          settings.cache,
		collector:      collector,
	}

	g.inputPipeline = pipeline.New(buildDetectors(cfg, cfg.InputDetectors()), pipelineOpts...)
	g.outputPipeline = pipeline.New(buildDetectors(cfg, cfg.OutputDetectors()), pipelineOpts...)

	return g, nil
}

// WithTelemetrySink adapts a *telemetry.Collector (which satisfies Sink
// directly) into a pipeline.Option; kept as a small named helper so
// New reads as "wire telemetry" rather than reaching into internal/pipeline
// for the raw option.
func WithTelemetrySink(sink telemetry.Sink) pipeline.Option {
	return pipeline.WithTelemetry(sink)
}

// Metrics returns the Guard's telemetry snapshot.
func (g *Guard) Metrics() telemetry.Snapshot {
	return g.collector.Snapshot()
}

// PrometheusMetrics renders the Guard's telemetry in Prometheus text
// exposition format, per spec.md §6.
func (g *Guard) PrometheusMetrics() ([]byte, error) {
	return g.collector.PrometheusMetrics()
}

// buildDetectors constructs concrete Detector values for the given
// ordered IDs, wired against cfg's thresholds.
func buildDetectors(cfg *config.Config, ids []config.DetectorID) []detector.Detector {
	var out []detector.Detector
	for _, id := range ids {
		switch id {
		case config.DetectorPromptInjection:
			out = append(out, detector.NewPromptInjectionDetector(detector.PromptInjectionOptions{
				Enabled:             true,
				ConfidenceThreshold: cfg.ConfidenceThreshold,
			}))
		case config.DetectorJailbreak:
			out = append(out, detector.NewJailbreakDetector(detector.JailbreakOptions{
				Enabled:             true,
				ConfidenceThreshold: cfg.ConfidenceThreshold,
			}))
		case config.DetectorDataLeakage:
			out = append(out, detector.NewDataLeakageDetector(detector.DataLeakageOptions{
				Enabled:             true,
				ConfidenceThreshold: cfg.ConfidenceThreshold,
				Redact:              true,
				Strategy:            pii.StrategyPlaceholder,
			}))
		}
	}
	return out
}

// ValidateInput implements spec.md §6: a length check, then the input
// pipeline (Prompt-Injection, then Jailbreak when enabled).
func (g *Guard) ValidateInput(ctx context.Context, text string) (string, error) {
	sanitized, err := pipeline.Sanitize(text, g.cfg.MaxInputLength, false)
	if err != nil {
		return "", err
	}
	result, err := g.inputPipeline.Run(ctx, sanitized, g.runtimeOptions)
	if err != nil {
		return "", err
	}
	return result.Input, nil
}

// ValidateOutput implements spec.md §6's output-side counterpart, running
// DataLeakage over text.
func (g *Guard) ValidateOutput(ctx context.Context, text string) (string, error) {
	sanitized, err := sanitizeOutput(text, g.cfg.MaxOutputLength)
	if err != nil {
		return "", err
	}
	result, err := g.outputPipeline.Run(ctx, sanitized, g.runtimeOptions)
	if err != nil {
		return "", err
	}
	return result.Input, nil
}

// sanitizeOutput mirrors pipeline.Sanitize's input-side check but reports
// OutputTooLong per spec.md §7's distinct error kind.
func sanitizeOutput(text string, maxLength int) (string, error) {
	if n := patterns.UnicodeScalarLen(text); n > maxLength {
		return "", &errs.OutputTooLong{Max: maxLength, Actual: n}
	}
	return text, nil
}

// BatchKind selects which validation ValidateBatch runs per item.
type BatchKind string

const (
	BatchInput  BatchKind = "input"
	BatchOutput BatchKind = "output"
)

// BatchResult is one ValidateBatch entry, preserving the caller's input
// order (spec.md §6).
type BatchResult struct {
	Index int
	Text  string
	Err   error
}

// ValidateBatch runs ValidateInput or ValidateOutput over every text,
// bounded to 2×NumCPU concurrent in-flight validations, per spec.md §5.
// Results preserve input order regardless of completion order.
func (g *Guard) ValidateBatch(ctx context.Context, texts []string, kind BatchKind) []BatchResult {
	results := make([]BatchResult, len(texts))
	sem := make(chan struct{}, 2*runtime.NumCPU())

	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, text string) {
			defer wg.Done()
			defer func() { <-sem }()

			var out string
			var err error
			switch kind {
			case BatchOutput:
				out, err = g.ValidateOutput(ctx, text)
			default:
				out, err = g.ValidateInput(ctx, text)
			}
			results[i] = BatchResult{Index: i, Text: out, Err: err}
		}(i, text)
	}
	wg.Wait()

	return results
}
