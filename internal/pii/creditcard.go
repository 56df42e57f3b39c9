package pii

import "regexp"

// creditCardRegex matches 15-19 digit numbers in four groups, optionally
// separated by '-' or whitespace: 16-digit Visa/Mastercard (4-4-4-4) with or
// without separators, and 15-digit Amex only when written without
// separators (the grouped 4-6-5 layout does not match), per spec.md §4.5.
var creditCardRegex = regexp.MustCompile(`\d{4}[-\s]?\d{4,6}[-\s]?\d{4,5}[-\s]?\d{3,4}`)

func findCreditCards(text string) []Entity {
	idx := creditCardRegex.FindAllStringIndex(text, -1)
	entities := make([]Entity, 0, len(idx))
	for _, m := range idx {
		value := text[m[0]:m[1]]
		// Per spec.md §4.5/§8: a failed Luhn check drops confidence to
		// 0.50, which is below the scanner's 0.7 floor, so the entity is
		// not returned at all rather than surfaced as a weak match.
		if !luhnValid(value) {
			continue
		}
		entities = append(entities, Entity{
			Kind:       KindCreditCard,
			Value:      value,
			Confidence: 0.98,
			Start:      m[0],
			End:        m[1],
		})
	}
	return entities
}

// luhnValid implements the mod-10 checksum over the digits in value,
// ignoring any non-digit separators.
func luhnValid(value string) bool {
	var digits []int
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	parity := len(digits) % 2
	for i, d := range digits {
		if i%2 == parity {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}
