package detector

import (
	"regexp"

	"llmguard/internal/patterns"
)

// framingRegex and rulesIgnoredRegex are the two kinds of context spec.md
// §4.4 layer 3 treats as "this persona claim is framed as an instruction,"
// the condition that earns the higher 0.90 confidence.
var (
	framingRegex      = regexp.MustCompile(`(?i)\b(you\s+are|pretend|act\s+as|operating\s+as|from\s+now\s+on)\b`)
	rulesIgnoredRegex = regexp.MustCompile(`(?i)(ignore|disable|bypass)[^.]{0,20}(rules|restrictions|safety|guidelines)`)
)

// personaShortNameLength is the cutoff below which a persona name is
// common enough (DAN, AIM, STAN...) that a bare word-boundary match isn't
// trusted on its own; spec.md §4.4 requires framing context for these.
const personaShortNameLength = 5

// scanPersonas implements spec.md §4.4 layer 3. Framing context, when
// present anywhere in the text, lifts every matched persona to 0.90.
// Without it, only persona names long enough not to collide with ordinary
// words (len(Name) >= personaShortNameLength) still count, at 0.70; short
// names are dropped rather than reported at low confidence.
func scanPersonas(text string) []encodingMatch {
	framed := framingRegex.MatchString(text) || rulesIgnoredRegex.MatchString(text)

	var matches []encodingMatch
	for _, persona := range patterns.PersonaCatalogue {
		if !persona.Matches(text) {
			continue
		}
		switch {
		case framed:
			matches = append(matches, encodingMatch{name: "persona_" + persona.Name, confidence: 0.90})
		case len([]rune(persona.Name)) >= personaShortNameLength:
			matches = append(matches, encodingMatch{name: "persona_" + persona.Name, confidence: 0.70})
		}
	}
	return matches
}
