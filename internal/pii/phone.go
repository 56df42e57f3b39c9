package pii

import "regexp"

// phoneRegex tries, in order at each position, an international form, a
// US 10-digit form (optional leading 1, optional parens), then a local
// 7-digit form. Ordering matters: Go's regexp alternation is leftmost-
// first, so the longer shapes must be tried before the 7-digit shape can
// swallow only part of a longer number.
var phoneRegex = regexp.MustCompile(
	`\+\d{1,3}[-.\s]?\d{1,4}[-.\s]?\d{1,4}[-.\s]?\d{1,9}` +
		`|(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}` +
		`|\d{3}[-.\s]?\d{4}`,
)

var nonDigit = regexp.MustCompile(`\D`)

func findPhones(text string) []Entity {
	idx := phoneRegex.FindAllStringIndex(text, -1)
	entities := make([]Entity, 0, len(idx))
	for _, m := range idx {
		value := text[m[0]:m[1]]
		digits := nonDigit.ReplaceAllString(value, "")
		confidence, ok := phoneConfidence(len(digits))
		if !ok {
			continue
		}
		entities = append(entities, Entity{
			Kind:       KindPhone,
			Value:      value,
			Confidence: confidence,
			Start:      m[0],
			End:        m[1],
		})
	}
	return entities
}

// phoneConfidence implements the digit-count tiers from spec.md §4.5: local
// numbers (7-8 digits) are the weakest signal, US numbers (10-11 digits,
// covering an optional leading country code 1) the strongest, and longer
// international numbers (9-15 digits) in between.
func phoneConfidence(digitCount int) (float64, bool) {
	switch {
	case digitCount >= 10 && digitCount <= 11:
		return 0.90, true
	case digitCount >= 9 && digitCount <= 15:
		return 0.85, true
	case digitCount >= 7 && digitCount <= 8:
		return 0.80, true
	default:
		return 0, false
	}
}
