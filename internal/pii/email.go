package pii

import "regexp"

// emailRegex matches a standard local@domain.tld shape. No word-boundary
// anchors are used, per spec.md §4.5, since \b is byte-oriented in Go's
// regexp and would misbehave around non-ASCII local parts; the character
// classes themselves already bound the match.
var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

func findEmails(text string) []Entity {
	idx := emailRegex.FindAllStringIndex(text, -1)
	entities := make([]Entity, 0, len(idx))
	for _, m := range idx {
		entities = append(entities, Entity{
			Kind:       KindEmail,
			Value:      text[m[0]:m[1]],
			Confidence: 0.95,
			Start:      m[0],
			End:        m[1],
		})
	}
	return entities
}
