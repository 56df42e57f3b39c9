// Package pipeline implements spec.md §4.1: ordered detector execution with
// early termination, error isolation, optional result caching, and
// telemetry emission. It is the orchestrator `pkg/llmguard`'s public API
// sits on top of, generalized from the teacher's single-LLM-detector
// internal/detector/pipeline.go into an N-detector state machine, per
// DESIGN.md.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"llmguard/internal/cache"
	"llmguard/internal/config"
	"llmguard/internal/detector"
	"llmguard/internal/errs"
	"llmguard/internal/patterns"
	"llmguard/internal/telemetry"
)

// Options are the runtime-config options spec.md §4.1 names, separate from
// the detector-level Config so the same detector set can be run under
// different early-termination/timeout/caching policies without
// reconstruction.
type Options struct {
	EarlyTermination    bool
	ContinueOnError     bool
	ConfidenceThreshold float64
	Timeout             time.Duration
	Caching             *config.CachingConfig
}

// DefaultOptions returns spec.md §4.1's defaults.
func DefaultOptions() Options {
	return Options{
		EarlyTermination:    true,
		ContinueOnError:     false,
		ConfidenceThreshold: 0.7,
		Timeout:             5 * time.Second,
	}
}

// Detection is the post-threshold projection of one Detected detector
// result, per spec.md §3.
type Detection struct {
	DetectorID      config.DetectorID
	Category        string
	Confidence      float64
	PatternsMatched []string
	Metadata        map[string]any
}

// DetectorResult is the per-invocation record spec.md §3 describes. Both
// DurationNative (for telemetry) and DurationMillis (for the result
// record) are kept, per spec.md §9's instruction to avoid lossy conversion
// on fast detectors.
type DetectorResult struct {
	DetectorID     config.DetectorID
	Outcome        detector.Outcome
	DurationNative time.Duration
	DurationMillis int64
	Details        detector.Details
}

// ErrorInfo names the first detector whose failure halted the pipeline,
// per spec.md §4.1's "its first error detector is surfaced in result.error".
type ErrorInfo struct {
	DetectorID config.DetectorID
	Message    string
}

// Result is the full PipelineResult spec.md §3 describes.
type Result struct {
	RequestID       string
	Input           string
	Safe            bool
	Detections      []Detection
	DetectorResults []DetectorResult
	TotalDuration   time.Duration
	Error           *ErrorInfo
}

// Pipeline runs a fixed, ordered set of detectors under the rules in
// spec.md §4.1. A Pipeline holds no per-request state; one value is safe to
// share across concurrent Run calls (spec.md §5's "single validate_input
// call is logically single-threaded" refers to one request's own detector
// ordering, not to the Pipeline value being request-exclusive).
type Pipeline struct {
	detectors []detector.Detector
	cache     *cache.Cache
	sink      telemetry.Sink
	logger    *logrus.Logger
}

// New builds a Pipeline over detectors, run in the given order.
func New(detectors []detector.Detector, opts ...Option) *Pipeline {
	p := &Pipeline{
		detectors: detectors,
		sink:      telemetry.NewNoop(),
		logger:    discardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Option configures a Pipeline at construction.
type Option func(*Pipeline)

// WithCache attaches the process-wide result/pattern cache.
func WithCache(c *cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithTelemetry attaches a Sink. Without this option the Pipeline uses a
// no-op Sink, so callers that don't care about telemetry never pay for it.
func WithTelemetry(sink telemetry.Sink) Option {
	return func(p *Pipeline) { p.sink = sink }
}

// WithLogger attaches a *logrus.Logger. Without this option the Pipeline
// logs to a discard logger, matching the nil-safe-logger ambient-stack
// decision in SPEC_FULL.md.
func WithLogger(logger *logrus.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(discardWriter{})
	return logger
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Sanitize implements spec.md §4.1's sanitisation contract: a length check
// against maxLength (Unicode scalar count), with opt-in whitespace
// trimming. It has no dependency on a Pipeline value because it runs
// before any detector does, per spec.md's "separate entry point."
func Sanitize(input string, maxLength int, trimWhitespace bool) (string, error) {
	text := input
	if trimWhitespace {
		text = strings.TrimSpace(text)
	}
	if n := patterns.UnicodeScalarLen(text); n > maxLength {
		return "", &errs.InputTooLong{Max: maxLength, Actual: n}
	}
	return text, nil
}

// Run executes every configured detector in order against input, per
// spec.md §4.1's algorithm, and returns the assembled Result together with
// the tri-state error spec.md §6 names: nil when safe, *errs.Detected when
// a detection fired at or above threshold, or *errs.PipelineError when an
// unsuppressed detector failure occurred.
func (p *Pipeline) Run(ctx context.Context, input string, opts Options) (Result, error) {
	requestID := uuid.NewString()
	start := time.Now()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	result := Result{RequestID: requestID, Input: input}
	var firstError *ErrorInfo
	halted := false
	timedOut := false

	for _, d := range p.detectors {
		if halted {
			break
		}
		if ctx.Err() == context.DeadlineExceeded {
			// Advisory timeout: spec.md §5 permits abandoning pending
			// detectors at the implementation's discretion, but the
			// results already collected are retained in the response.
			timedOut = true
			break
		}

		dr := p.runOne(ctx, requestID, d, input, opts)
		result.DetectorResults = append(result.DetectorResults, dr)

		switch dr.Outcome {
		case detector.OutcomeSafe:
			// continue to next detector

		case detector.OutcomeDetected:
			if dr.Details.Confidence >= opts.ConfidenceThreshold {
				result.Detections = append(result.Detections, Detection{
					DetectorID:      d.ID(),
					Category:        dr.Details.Category,
					Confidence:      dr.Details.Confidence,
					PatternsMatched: dr.Details.PatternsMatched,
					Metadata:        dr.Details.Metadata,
				})
				if opts.EarlyTermination {
					halted = true
				}
			}
			// below threshold: recorded but does not halt.

		case detector.OutcomeError:
			if firstError == nil {
				firstError = &ErrorInfo{DetectorID: d.ID(), Message: errorMessage(dr.Details)}
			}
			if !opts.ContinueOnError {
				halted = true
			}
		}
	}

	result.TotalDuration = time.Since(start)
	result.Error = firstError
	unsuppressedError := firstError != nil && !opts.ContinueOnError
	result.Safe = len(result.Detections) == 0 && !unsuppressedError && !timedOut

	errLabel := ""
	if unsuppressedError {
		errLabel = errorName(firstError)
	}
	if timedOut {
		errLabel = "pipeline_timeout"
	}

	p.sink.PipelineComplete(telemetry.PipelineCompleteEvent{
		RequestID:     requestID,
		DurationNano:  result.TotalDuration,
		Detections:    len(result.Detections),
		Detectors:     detectorNames(result.DetectorResults),
		Safe:          result.Safe,
		DetectorCount: len(result.DetectorResults),
		Error:         errLabel,
	})

	if timedOut {
		return result, &errs.PipelineTimeout{Timeout: opts.Timeout.String(), Details: result}
	}
	return result, p.classify(result, firstError, opts.ContinueOnError)
}

// runOne executes a single detector: a cache lookup when caching is
// enabled, otherwise a guarded invocation, followed by a cache write on a
// miss. Every outcome — hit or fresh invocation — re-emits the
// detector.complete telemetry event, per spec.md §4.1 step 1's "re-emit
// the detector's detector.complete event so downstream metrics see it."
func (p *Pipeline) runOne(ctx context.Context, requestID string, d detector.Detector, input string, opts Options) DetectorResult {
	useCache := p.cache != nil && opts.Caching != nil && opts.Caching.Enabled && opts.Caching.ResultCache
	detectorID := string(d.ID())

	if useCache {
		hash := cache.HashInput(input)
		if cached, ok := p.cache.GetResult(hash, detectorID); ok {
			dr := cached.(DetectorResult)
			p.sink.CacheAccess(telemetry.CacheAccessEvent{RequestID: requestID, CacheType: "result", Hit: true})
			p.sink.DetectorComplete(telemetry.DetectorCompleteEvent{
				RequestID:    requestID,
				Detector:     detectorID,
				DurationNano: dr.DurationNative,
				Detected:     dr.Outcome == detector.OutcomeDetected,
				Category:     dr.Details.Category,
				Confidence:   dr.Details.Confidence,
			})
			return dr
		}
		p.sink.CacheAccess(telemetry.CacheAccessEvent{RequestID: requestID, CacheType: "result", Hit: false})
	}

	dr := p.invoke(ctx, d, input)

	p.sink.DetectorComplete(telemetry.DetectorCompleteEvent{
		RequestID:    requestID,
		Detector:     detectorID,
		DurationNano: dr.DurationNative,
		Detected:     dr.Outcome == detector.OutcomeDetected,
		Category:     dr.Details.Category,
		Confidence:   dr.Details.Confidence,
	})

	if useCache {
		ttl := time.Duration(opts.Caching.ResultTTLSecs) * time.Second
		hash := cache.HashInput(input)
		p.cache.PutResult(hash, detectorID, dr, ttl)
	}

	return dr
}

// invoke runs one detector under an exception guard: a panic (Go's nearest
// analogue to the source language's exceptions) is caught and downgraded
// to an Error outcome, exactly as an ordinary error return is, per spec.md
// §7's "a detector exception is caught and downgraded to a
// DetectorResult{outcome=Error}." Detectors in this codebase never
// actually panic — the guard exists so a future, more exotic Detector
// implementation can't violate the "never propagate exceptions" invariant.
func (p *Pipeline) invoke(ctx context.Context, d detector.Detector, input string) (dr DetectorResult) {
	start := time.Now()
	defer func() {
		dr.DurationNative = time.Since(start)
		dr.DurationMillis = dr.DurationNative.Milliseconds()
		dr.DetectorID = d.ID()

		if r := recover(); r != nil {
			dr.Outcome = detector.OutcomeError
			dr.Details = detector.Details{
				Metadata: map[string]any{
					"error": fmt.Sprintf("%v", r),
					"trace": "recovered from panic in detector.Detect",
				},
			}
		}
	}()

	res, err := d.Detect(ctx, input)
	if err != nil {
		return DetectorResult{
			Outcome: detector.OutcomeError,
			Details: detector.Details{
				Metadata: map[string]any{"error": err.Error()},
			},
		}
	}
	return DetectorResult{Outcome: res.Outcome, Details: res.Details}
}

// classify maps a completed Result onto spec.md §6's tri-state public
// return: nil (Ok), *errs.Detected, or *errs.PipelineError. PipelineError is
// only surfaced when the failure is unsuppressed, i.e. continueOnError is
// false — with continueOnError true the failure is still recorded in
// result.Error for diagnostics, but Run returns a nil error.
func (p *Pipeline) classify(result Result, firstError *ErrorInfo, continueOnError bool) error {
	if len(result.Detections) > 0 {
		best := result.Detections[0]
		for _, d := range result.Detections[1:] {
			if d.Confidence > best.Confidence {
				best = d
			}
		}
		return &errs.Detected{Reason: best.Category, Confidence: best.Confidence, Details: result}
	}
	if firstError != nil && !continueOnError {
		return &errs.PipelineError{Reason: firstError.Message, Details: result}
	}
	return nil
}

func errorMessage(details detector.Details) string {
	if details.Metadata == nil {
		return "detector error"
	}
	if msg, ok := details.Metadata["error"].(string); ok {
		return msg
	}
	return "detector error"
}

func errorName(info *ErrorInfo) string {
	if info == nil {
		return ""
	}
	return "pipeline_error"
}

func detectorNames(results []DetectorResult) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = string(r.DetectorID)
	}
	return names
}
