package detector

import (
	"context"

	"llmguard/internal/config"
	"llmguard/internal/pii"
)

// CategoryPIILeakage is the category/reason reported for a firing
// DataLeakageDetector result, per spec.md §6's worked example reasons.
const CategoryPIILeakage = "pii_leakage"

// DataLeakageOptions mirrors spec.md §4.7's options record.
type DataLeakageOptions struct {
	Enabled             bool
	ConfidenceThreshold float64
	// PIITypes restricts scanning to these kinds; empty means all six.
	PIITypes []pii.Kind
	Redact   bool
	Strategy pii.Strategy
}

// DataLeakageDetector wraps internal/pii.Scanner and internal/pii.Redactor
// behind the Detector interface, per spec.md §4.7.
type DataLeakageDetector struct {
	enabled             bool
	confidenceThreshold float64
	piiTypes            []pii.Kind
	redact              bool
	strategy            pii.Strategy

	scanner  *pii.Scanner
	redactor *pii.Redactor
}

// NewDataLeakageDetector builds the detector over a fresh Scanner/Redactor
// pair; both are stateless, so sharing a single detector across requests
// is safe.
func NewDataLeakageDetector(opts DataLeakageOptions) *DataLeakageDetector {
	threshold := opts.ConfidenceThreshold
	if threshold == 0 {
		threshold = 0.7
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = pii.StrategyMask
	}
	return &DataLeakageDetector{
		enabled:             opts.Enabled,
		confidenceThreshold: threshold,
		piiTypes:            opts.PIITypes,
		redact:              opts.Redact,
		strategy:            strategy,
		scanner:             pii.NewScanner(),
		redactor:            pii.NewRedactor(),
	}
}

func (d *DataLeakageDetector) ID() config.DetectorID { return config.DetectorDataLeakage }
func (d *DataLeakageDetector) Name() string          { return "data_leakage" }
func (d *DataLeakageDetector) Description() string {
	return "Scans text for PII (email, phone, SSN, credit card, IP address, URL) and optionally redacts it."
}

// Detect implements spec.md §4.7's algorithm: scan (restricted to
// PIITypes when configured), aggregate confidence per the spec's formula,
// and — below threshold — report Safe with the un-promoted details rather
// than a firing Detection, matching the other two detectors' contract.
func (d *DataLeakageDetector) Detect(ctx context.Context, input string) (Result, error) {
	if !d.enabled {
		return Result{Outcome: OutcomeSafe, Details: Details{Metadata: map[string]any{"disabled": true}}}, nil
	}

	entities := d.scan(input)
	if len(entities) == 0 {
		return Result{Outcome: OutcomeSafe, Details: Details{Metadata: map[string]any{"pii_count": 0}}}, nil
	}

	confidence := aggregatePIIConfidence(entities, len(input))
	metadata := d.buildMetadata(input, entities)

	if confidence < d.confidenceThreshold {
		return Result{
			Outcome: OutcomeSafe,
			Details: Details{
				Confidence: confidence,
				Category:   CategoryPIILeakage,
				Metadata:   metadata,
			},
		}, nil
	}

	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = string(e.Kind)
	}

	return Detected(confidence, CategoryPIILeakage, names, metadata), nil
}

// scan runs the full six-kind scan, then filters to PIITypes when the
// caller restricted the detector to a subset.
func (d *DataLeakageDetector) scan(input string) []pii.Entity {
	all := d.scanner.Scan(input)
	if len(d.piiTypes) == 0 {
		return all
	}
	allowed := make(map[pii.Kind]struct{}, len(d.piiTypes))
	for _, k := range d.piiTypes {
		allowed[k] = struct{}{}
	}
	var filtered []pii.Entity
	for _, e := range all {
		if _, ok := allowed[e.Kind]; ok {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// aggregatePIIConfidence implements spec.md §4.7's formula: mean entity
// confidence, boosted slightly for corroborating entities and for
// high-sensitivity kinds, penalized slightly for very long inputs.
func aggregatePIIConfidence(entities []pii.Entity, inputLength int) float64 {
	sum := 0.0
	hasSensitive := false
	for _, e := range entities {
		sum += e.Confidence
		if e.Kind == pii.KindSSN || e.Kind == pii.KindCreditCard {
			hasSensitive = true
		}
	}
	avg := sum / float64(len(entities))

	boost := 0.02 * float64(len(entities)-1)
	if boost > 0.10 {
		boost = 0.10
	}

	typeBoost := 0.0
	if hasSensitive {
		typeBoost = 0.05
	}

	lengthPenalty := 0.0
	if inputLength > 1000 {
		lengthPenalty = -0.05
	}

	confidence := avg + boost + typeBoost + lengthPenalty
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// buildMetadata assembles the pii_count/pii_types/entities/redacted_text
// metadata spec.md §4.7 requires, scrubbing entity values (only kind,
// confidence, and offsets survive) per spec.md §7's "entity values scanned
// out of inputs are scrubbed from detector metadata before return".
func (d *DataLeakageDetector) buildMetadata(input string, entities []pii.Entity) map[string]any {
	typesSeen := make(map[pii.Kind]struct{})
	scrubbed := make([]map[string]any, len(entities))
	for i, e := range entities {
		typesSeen[e.Kind] = struct{}{}
		scrubbed[i] = map[string]any{
			"kind":       string(e.Kind),
			"confidence": e.Confidence,
			"start":      e.Start,
			"end":        e.End,
		}
	}

	types := make([]string, 0, len(typesSeen))
	for k := range typesSeen {
		types = append(types, string(k))
	}

	metadata := map[string]any{
		"pii_count": len(entities),
		"pii_types": types,
		"entities":  scrubbed,
	}

	if d.redact {
		metadata["redacted_text"] = d.redactor.Redact(input, entities, pii.RedactOptions{Strategy: d.strategy})
	}

	return metadata
}
