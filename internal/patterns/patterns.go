// Package patterns provides the regex catalogue primitives shared by every
// pattern-based detector: compilation, matching, confidence scoring, and the
// text-normalization helpers used by the detectors and by the pipeline's
// sanitisation step.
package patterns

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// Severity classifies how dangerous a matched pattern is taken to be.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Pattern is a single catalogue entry: a compiled regex plus the metadata
// the detectors report alongside a match. Patterns are constructed once at
// package initialization and are read-only afterward; identity is by Name.
type Pattern struct {
	Name       string
	Category   string
	Severity   Severity
	Confidence float64
	re         *regexp.Regexp
}

// CompilePattern compiles source with case-insensitive, Unicode-aware
// matching (Go's regexp is RE2-backed, so this can never backtrack
// catastrophically regardless of adversarial input, per spec.md §9).
func CompilePattern(name, category string, severity Severity, confidence float64, source string) (Pattern, error) {
	re, err := regexp.Compile("(?i)" + source)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q: compile %q: %w", name, source, err)
	}
	return Pattern{
		Name:       name,
		Category:   category,
		Severity:   severity,
		Confidence: confidence,
		re:         re,
	}, nil
}

// MustCompilePattern panics on a bad pattern source. Used only at package
// init for the static catalogues, where a compile failure is a programmer
// error, never a runtime condition.
func MustCompilePattern(name, category string, severity Severity, confidence float64, source string) Pattern {
	p, err := CompilePattern(name, category, severity, confidence, source)
	if err != nil {
		panic(err)
	}
	return p
}

// Matches reports whether the pattern's regex matches anywhere in text.
func (p Pattern) Matches(text string) bool {
	return p.re.MatchString(text)
}

// MatchAll returns every non-overlapping substring of text the pattern
// matches, in order of occurrence.
func (p Pattern) MatchAll(text string) []string {
	return p.re.FindAllString(text, -1)
}

// MatchResult is one catalogue entry that matched, carrying the metadata a
// detector needs to build its Detected record.
type MatchResult struct {
	Name       string
	Severity   Severity
	Category   string
	Confidence float64
}

// Matcher scans text against a fixed, ordered catalogue and returns every
// entry that matched, in catalogue order.
type Matcher func(text string) []MatchResult

// BuildPatternMatcher closes over a catalogue and returns a Matcher that
// checks every pattern, in declared order, against the given text.
func BuildPatternMatcher(catalogue []Pattern) Matcher {
	// Copy so the returned matcher is immune to later mutation of the slice
	// the caller passed in.
	cat := append([]Pattern(nil), catalogue...)
	return func(text string) []MatchResult {
		var results []MatchResult
		for _, p := range cat {
			if p.Matches(text) {
				results = append(results, MatchResult{
					Name:       p.Name,
					Severity:   p.Severity,
					Category:   p.Category,
					Confidence: p.Confidence,
				})
			}
		}
		return results
	}
}

// CalculateMatchConfidence implements spec.md §4.2's aggregation formula:
// the strongest single match, boosted slightly by corroborating matches and
// by short input length (short inputs leave less room for the pattern to be
// incidental).
func CalculateMatchConfidence(matches []MatchResult, inputLength int) float64 {
	if len(matches) == 0 {
		return 0.0
	}

	base := 0.0
	for _, m := range matches {
		if m.Confidence > base {
			base = m.Confidence
		}
	}

	countBoost := 0.05 * float64(len(matches)-1)
	if countBoost > 0.20 {
		countBoost = 0.20
	}

	var lengthFactor float64
	switch {
	case inputLength < 50:
		lengthFactor = 0.05
	case inputLength < 200:
		lengthFactor = 0.02
	default:
		lengthFactor = 0.0
	}

	confidence := base + countBoost + lengthFactor
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// HighestConfidenceCategory returns the Category of the single highest-
// confidence match, which spec.md uses throughout as "the" category/reason
// for a multi-match Detected record.
func HighestConfidenceCategory(matches []MatchResult) string {
	var best MatchResult
	for _, m := range matches {
		if m.Confidence > best.Confidence {
			best = m
		}
	}
	return best.Category
}

// MatchNames returns the catalogue names of every match, preserving order.
func MatchNames(matches []MatchResult) []string {
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Name
	}
	return names
}

var (
	wordSplitter   = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
	caseFold       = cases.Fold()
)

// NormalizeText lowercases (Unicode case-folds), trims, and collapses
// whitespace runs to a single space, per spec.md §4.2. Folding (rather than
// a byte-wise ToLower) is used so the normalization is correct for
// non-ASCII scripts too, per the domain-stack Unicode rationale in
// SPEC_FULL.md.
func NormalizeText(text string) string {
	folded := caseFold.String(text)
	collapsed := whitespaceRuns.ReplaceAllString(folded, " ")
	return strings.TrimSpace(collapsed)
}

// UnicodeScalarLen counts Unicode scalar values (runes), not bytes — the
// unit spec.md §3 specifies for max_input_length/max_output_length. Width
// folding is intentionally not applied here: the limit is about how many
// characters a human-perceived request contains, not how it would render.
func UnicodeScalarLen(text string) int {
	return len([]rune(text))
}

// NormalizeWidth folds fullwidth/halfwidth Unicode variants to their
// canonical form (e.g. fullwidth Latin letters to ASCII). BuildPatternMatcher
// does not call it: matchers run on the text exactly as given.
func NormalizeWidth(text string) string {
	return width.Fold.String(text)
}

// KeywordOptions configures ExtractKeywords.
type KeywordOptions struct {
	MinLength   int
	MaxKeywords int
}

// ExtractKeywords normalizes text, splits it on non-word characters,
// filters by minimum length, deduplicates (first occurrence wins), and
// returns at most MaxKeywords entries, per spec.md §4.2.
func ExtractKeywords(text string, opts KeywordOptions) []string {
	normalized := NormalizeText(text)
	fields := wordSplitter.Split(normalized, -1)

	seen := make(map[string]struct{}, len(fields))
	var keywords []string
	for _, f := range fields {
		if f == "" {
			continue
		}
		if len(f) < opts.MinLength {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		keywords = append(keywords, f)
		if opts.MaxKeywords > 0 && len(keywords) >= opts.MaxKeywords {
			break
		}
	}
	return keywords
}
