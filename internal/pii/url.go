package pii

import "regexp"

var urlRegex = regexp.MustCompile(`https?://\S+`)

func findURLs(text string) []Entity {
	idx := urlRegex.FindAllStringIndex(text, -1)
	entities := make([]Entity, 0, len(idx))
	for _, m := range idx {
		entities = append(entities, Entity{
			Kind:       KindURL,
			Value:      text[m[0]:m[1]],
			Confidence: 0.90,
			Start:      m[0],
			End:        m[1],
		})
	}
	return entities
}
