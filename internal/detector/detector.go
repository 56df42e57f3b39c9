// Package detector implements the three pattern-and-heuristic engines spec.md
// §4.3/§4.4/§4.7 specify, composed behind a single Detector capability so the
// pipeline can run any of them without runtime reflection, per the design
// note in spec.md §9.
package detector

import (
	"context"

	"llmguard/internal/config"
)

// Outcome is the tri-state result of a single detector invocation.
type Outcome string

const (
	OutcomeSafe     Outcome = "safe"
	OutcomeDetected Outcome = "detected"
	OutcomeError    Outcome = "error"
)

// Details carries the confidence, category, and supporting evidence for one
// detector invocation, whether or not it is ultimately promoted to a firing
// Detection by the pipeline's threshold check.
type Details struct {
	Confidence      float64
	Category        string
	PatternsMatched []string
	Metadata        map[string]any
}

// Result is what a Detector.Detect call returns: one of Safe or Detected,
// per spec.md §4.1's "detect(input, options) → Safe | Detected" contract.
// Errors are communicated through the ordinary Go error return, which the
// pipeline downgrades into an Error outcome (spec.md §7) rather than ever
// letting an exception escape.
type Result struct {
	Outcome Outcome
	Details Details
}

// Safe builds a non-triggering Result with the given metadata.
func Safe(metadata map[string]any) Result {
	return Result{Outcome: OutcomeSafe, Details: Details{Metadata: metadata}}
}

// Detected builds a triggering Result.
func Detected(confidence float64, category string, patterns []string, metadata map[string]any) Result {
	return Result{
		Outcome: OutcomeDetected,
		Details: Details{
			Confidence:      confidence,
			Category:        category,
			PatternsMatched: patterns,
			Metadata:        metadata,
		},
	}
}

// Detector is the capability every pattern/heuristic engine implements. It
// performs only CPU work and map lookups — no I/O, no blocking — per spec.md
// §5's concurrency model.
type Detector interface {
	ID() config.DetectorID
	Name() string
	Description() string
	Detect(ctx context.Context, input string) (Result, error)
}
