package detector

import (
	"context"
	"fmt"

	"llmguard/internal/config"
	"llmguard/internal/patterns"
)

// PromptInjectionDetector implements spec.md §4.3: a ~34-pattern catalogue
// across five categories, scored by patterns.CalculateMatchConfidence.
type PromptInjectionDetector struct {
	enabled             bool
	confidenceThreshold float64
	matcher             patterns.Matcher
	catalogueSize       int
}

// PromptInjectionOptions mirrors spec.md §4.3's options record.
type PromptInjectionOptions struct {
	Enabled             bool
	ConfidenceThreshold float64
}

// NewPromptInjectionDetector builds the detector over the normative
// catalogue in internal/patterns/catalogue_injection.go.
func NewPromptInjectionDetector(opts PromptInjectionOptions) *PromptInjectionDetector {
	threshold := opts.ConfidenceThreshold
	if threshold == 0 {
		threshold = 0.7
	}
	return &PromptInjectionDetector{
		enabled:             opts.Enabled,
		confidenceThreshold: threshold,
		matcher:             patterns.BuildPatternMatcher(patterns.PromptInjectionCatalogue),
		catalogueSize:       len(patterns.PromptInjectionCatalogue),
	}
}

func (d *PromptInjectionDetector) ID() config.DetectorID { return config.DetectorPromptInjection }
func (d *PromptInjectionDetector) Name() string          { return "prompt_injection" }
func (d *PromptInjectionDetector) Description() string {
	return "Scans text for instruction-override, system-extraction, delimiter-injection, mode-switching, and role-manipulation attempts."
}

// Detect implements spec.md §4.3's algorithm: run the matcher; empty means
// Safe; otherwise score and, below the configured threshold, report Safe
// with the below_threshold marker rather than promoting the match.
func (d *PromptInjectionDetector) Detect(ctx context.Context, input string) (Result, error) {
	if !d.enabled {
		return Result{Outcome: OutcomeSafe, Details: Details{Metadata: map[string]any{"disabled": true}}}, nil
	}

	matches := d.matcher(input)
	if len(matches) == 0 {
		return Result{
			Outcome: OutcomeSafe,
			Details: Details{Metadata: map[string]any{"patterns_checked": d.catalogueSize}},
		}, nil
	}

	confidence := patterns.CalculateMatchConfidence(matches, patterns.UnicodeScalarLen(input))
	category := patterns.HighestConfidenceCategory(matches)
	matched := patterns.MatchNames(matches)

	if confidence < d.confidenceThreshold {
		return Result{
			Outcome: OutcomeSafe,
			Details: Details{
				Confidence:      confidence,
				Category:        category,
				PatternsMatched: matched,
				Metadata:        map[string]any{"below_threshold": true},
			},
		}, nil
	}

	return Detected(confidence, category, matched, map[string]any{
		"patterns_checked": d.catalogueSize,
		"summary":          fmt.Sprintf("%d pattern(s) matched, strongest category %s", len(matched), category),
	}), nil
}
