package detector

import (
	"context"
	"fmt"

	"llmguard/internal/config"
	"llmguard/internal/patterns"
)

// JailbreakDetector implements spec.md §4.4's three-layer algorithm:
// catalogue pattern matching, encoding-obfuscation detection, and
// persona/framing matching, combined by a distinct-category boost.
type JailbreakDetector struct {
	enabled             bool
	confidenceThreshold float64
	matcher             patterns.Matcher
	catalogueSize       int
}

// JailbreakOptions mirrors spec.md §4.4's options record.
type JailbreakOptions struct {
	Enabled             bool
	ConfidenceThreshold float64
}

// NewJailbreakDetector builds the detector over patterns.JailbreakCatalogue
// and patterns.PersonaCatalogue.
func NewJailbreakDetector(opts JailbreakOptions) *JailbreakDetector {
	threshold := opts.ConfidenceThreshold
	if threshold == 0 {
		threshold = 0.7
	}
	return &JailbreakDetector{
		enabled:             opts.Enabled,
		confidenceThreshold: threshold,
		matcher:             patterns.BuildPatternMatcher(patterns.JailbreakCatalogue),
		catalogueSize:       len(patterns.JailbreakCatalogue),
	}
}

func (d *JailbreakDetector) ID() config.DetectorID { return config.DetectorJailbreak }
func (d *JailbreakDetector) Name() string          { return "jailbreak" }
func (d *JailbreakDetector) Description() string {
	return "Scans text for role-play/hypothetical/prefix-injection patterns, encoding-obfuscated payloads, and known jailbreak personas."
}

// layerMatch tags each raw match with the layer it came from, so the
// aggregation step below can count distinct (layer, category) pairs
// rather than just distinct pattern names.
type layerMatch struct {
	name       string
	layer      string
	category   string
	confidence float64
}

// Detect runs all three layers independently, then aggregates per spec.md
// §4.4: confidence is the strongest single signal, boosted by 0.10 per
// distinct (layer, category) combination once two or more are present,
// capped at 1.0.
func (d *JailbreakDetector) Detect(ctx context.Context, input string) (Result, error) {
	if !d.enabled {
		return Result{Outcome: OutcomeSafe, Details: Details{Metadata: map[string]any{"disabled": true}}}, nil
	}
	if input == "" {
		return Result{Outcome: OutcomeSafe, Details: Details{Confidence: 0.0}}, nil
	}

	var matches []layerMatch

	for _, m := range d.matcher(input) {
		matches = append(matches, layerMatch{name: m.Name, layer: "pattern", category: m.Category, confidence: m.Confidence})
	}
	for _, m := range scanEncodingAttacks(input) {
		matches = append(matches, layerMatch{name: m.name, layer: "encoding", category: patterns.CategoryEncodingAttack, confidence: m.confidence})
	}
	for _, m := range scanPersonas(input) {
		matches = append(matches, layerMatch{name: m.name, layer: "persona", category: patterns.CategoryRolePlaying, confidence: m.confidence})
	}

	if len(matches) == 0 {
		return Result{
			Outcome: OutcomeSafe,
			Details: Details{Metadata: map[string]any{"patterns_checked": d.catalogueSize}},
		}, nil
	}

	confidence, technique, names := aggregateJailbreakMatches(matches)

	if confidence < d.confidenceThreshold {
		return Result{
			Outcome: OutcomeSafe,
			Details: Details{
				Confidence:      confidence,
				Category:        technique,
				PatternsMatched: names,
				Metadata:        map[string]any{"below_threshold": true},
			},
		}, nil
	}

	return Detected(confidence, technique, names, map[string]any{
		"reason":    "jailbreak_attempt",
		"technique": technique,
		"summary":   fmt.Sprintf("%d signal(s) matched across %s", len(names), technique),
	}), nil
}

// aggregateJailbreakMatches applies spec.md §4.4's aggregation: base
// confidence is the single strongest match; a boost of 0.10 per distinct
// (layer, category) pair is added once two or more distinct pairs are
// present, and the total is capped at 1.0. The reported technique is the
// category of the strongest individual match.
func aggregateJailbreakMatches(matches []layerMatch) (confidence float64, technique string, names []string) {
	type key struct{ layer, category string }
	distinct := make(map[key]struct{})

	var best layerMatch
	for _, m := range matches {
		names = append(names, m.name)
		distinct[key{m.layer, m.category}] = struct{}{}
		if m.confidence > best.confidence {
			best = m
		}
	}

	confidence = best.confidence
	if len(distinct) >= 2 {
		confidence += 0.10 * float64(len(distinct))
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	return confidence, best.category, names
}
