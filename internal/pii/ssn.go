package pii

import (
	"regexp"
	"strings"
)

var (
	ssnFormattedRegex   = regexp.MustCompile(`\d{3}-\d{2}-\d{4}`)
	ssnUnformattedRegex = regexp.MustCompile(`\d{9}`)
	ssnContextRegex     = regexp.MustCompile(`(?i)ssn|social security`)
)

const ssnContextWindow = 20

func findSSNs(text string) []Entity {
	var entities []Entity

	for _, m := range ssnFormattedRegex.FindAllStringIndex(text, -1) {
		value := text[m[0]:m[1]]
		if !ssnObviouslyInvalid(value) {
			entities = append(entities, Entity{
				Kind:       KindSSN,
				Value:      value,
				Confidence: 0.95,
				Start:      m[0],
				End:        m[1],
			})
		}
	}

	// Unformatted 9-digit candidates only count as an SSN when the
	// surrounding ±20-byte window mentions "ssn"/"social security",
	// per spec.md §4.5/§9. This is a byte window, not a token window, so
	// very long inputs can miss the context — an accepted limitation
	// recorded in DESIGN.md.
	for _, m := range ssnUnformattedRegex.FindAllStringIndex(text, -1) {
		// Skip candidates that are part of a longer digit run (e.g. a
		// credit card or phone number); overlap resolution would drop
		// these anyway, but checking here avoids a spurious "SSN near
		// context words" false positive inside a much longer number.
		if isPartOfLongerDigitRun(text, m[0], m[1]) {
			continue
		}
		value := text[m[0]:m[1]]
		if ssnObviouslyInvalid(value) {
			continue
		}
		windowStart := m[0] - ssnContextWindow
		if windowStart < 0 {
			windowStart = 0
		}
		windowEnd := m[1] + ssnContextWindow
		if windowEnd > len(text) {
			windowEnd = len(text)
		}
		if !ssnContextRegex.MatchString(text[windowStart:windowEnd]) {
			continue
		}
		entities = append(entities, Entity{
			Kind:       KindSSN,
			Value:      value,
			Confidence: 0.85,
			Start:      m[0],
			End:        m[1],
		})
	}

	return entities
}

// ssnObviouslyInvalid rejects only the clearly-invalid SSNs spec.md §4.5
// names: area 000/666, group 00, serial 0000. Everything else is accepted
// at face value — the scanner is a heuristic, not an SSA registry check.
func ssnObviouslyInvalid(value string) bool {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
	if len(digits) != 9 {
		return true
	}
	area, group, serial := digits[0:3], digits[3:5], digits[5:9]
	return area == "000" || area == "666" || group == "00" || serial == "0000"
}

func isPartOfLongerDigitRun(text string, start, end int) bool {
	if start > 0 && isDigitByte(text[start-1]) {
		return true
	}
	if end < len(text) && isDigitByte(text[end]) {
		return true
	}
	return false
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}
