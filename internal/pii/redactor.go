package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Strategy names the replacement policy a Redactor applies to a matched
// entity, per spec.md §4.6.
type Strategy string

const (
	StrategyMask        Strategy = "mask"
	StrategyPartial     Strategy = "partial"
	StrategyHash        Strategy = "hash"
	StrategyPlaceholder Strategy = "placeholder"
	StrategyCustom      Strategy = "custom"
	StrategyMixed       Strategy = "mixed"
)

// PlaceholderFormat selects the bracket style the Placeholder strategy uses.
type PlaceholderFormat string

const (
	PlaceholderSquare PlaceholderFormat = "square" // [KIND]
	PlaceholderAngle  PlaceholderFormat = "angle"  // <KIND>
)

// CustomFunc produces a replacement string for a single entity; used by
// StrategyCustom.
type CustomFunc func(Entity) string

// RedactOptions configures a single Redact call.
type RedactOptions struct {
	Strategy          Strategy
	MaskChar          rune // defaults to '*'
	PlaceholderFormat PlaceholderFormat
	Custom            CustomFunc
	// Mixed dispatches per entity Kind; a Kind absent from the map falls
	// back to StrategyMask, per spec.md §4.6.
	Mixed map[Kind]Strategy
}

// Redactor replaces matched entities in text according to a chosen
// strategy. It holds no mutable state.
type Redactor struct{}

// NewRedactor returns a ready-to-use Redactor.
func NewRedactor() *Redactor {
	return &Redactor{}
}

// Redact returns text with every entity's span replaced per opts.
func (r *Redactor) Redact(text string, entities []Entity, opts RedactOptions) string {
	redacted, _ := r.redact(text, entities, opts, false)
	return redacted
}

// RedactWithMapping is Redact plus a map from each entity's original value
// to its redacted replacement, for callers that need to reverse-index what
// was scrubbed (e.g. audit trails the host maintains outside the core).
func (r *Redactor) RedactWithMapping(text string, entities []Entity, opts RedactOptions) (string, map[string]string) {
	return r.redact(text, entities, opts, true)
}

// redact implements the descending-offset splice algorithm from spec.md
// §4.6: processing entities from the highest Start to the lowest means
// every not-yet-processed entity's byte offsets stay valid even though the
// string is growing/shrinking as each replacement is spliced in.
func (r *Redactor) redact(text string, entities []Entity, opts RedactOptions, withMapping bool) (string, map[string]string) {
	if opts.MaskChar == 0 {
		opts.MaskChar = '*'
	}
	if opts.PlaceholderFormat == "" {
		opts.PlaceholderFormat = PlaceholderSquare
	}

	ordered := append([]Entity(nil), entities...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start > ordered[j].Start })

	var mapping map[string]string
	if withMapping {
		mapping = make(map[string]string, len(entities))
	}

	result := text
	for _, e := range ordered {
		replacement := r.replacementFor(e, opts)
		result = result[:e.Start] + replacement + result[e.End:]
		if withMapping {
			mapping[e.Value] = replacement
		}
	}
	return result, mapping
}

func (r *Redactor) replacementFor(e Entity, opts RedactOptions) string {
	strategy := opts.Strategy
	if strategy == StrategyMixed {
		if s, ok := opts.Mixed[e.Kind]; ok {
			strategy = s
		} else {
			strategy = StrategyMask
		}
	}

	switch strategy {
	case StrategyPartial:
		return partialRedact(e, opts.MaskChar)
	case StrategyHash:
		return hashRedact(e.Value)
	case StrategyPlaceholder:
		return placeholderRedact(e.Kind, opts.PlaceholderFormat)
	case StrategyCustom:
		if opts.Custom != nil {
			return opts.Custom(e)
		}
		return maskRedact(e.Value, opts.MaskChar)
	case StrategyMask:
		fallthrough
	default:
		return maskRedact(e.Value, opts.MaskChar)
	}
}

func maskRedact(value string, maskChar rune) string {
	return strings.Repeat(string(maskChar), len([]rune(value)))
}

func hashRedact(value string) string {
	sum := sha256.Sum256([]byte(value))
	return "HASH_" + hex.EncodeToString(sum[:])[:8]
}

func placeholderRedact(kind Kind, format PlaceholderFormat) string {
	label := strings.ToUpper(string(kind))
	if format == PlaceholderAngle {
		return "<" + label + ">"
	}
	return "[" + label + "]"
}

// partialRedact applies the type-specific masking spec.md §4.6 lists: the
// last 4 characters survive for phone/ssn/credit_card, an email keeps its
// first character and domain, an IPv4 address keeps its last two octets,
// and a URL keeps its scheme and host.
func partialRedact(e Entity, maskChar rune) string {
	switch e.Kind {
	case KindPhone, KindSSN, KindCreditCard:
		return partialTail4(e.Value, maskChar)
	case KindEmail:
		return partialEmail(e.Value, maskChar)
	case KindIPAddress:
		return partialIPv4(e.Value, maskChar)
	case KindURL:
		return partialURL(e.Value)
	default:
		return maskRedact(e.Value, maskChar)
	}
}

func partialTail4(value string, maskChar rune) string {
	runes := []rune(value)
	if len(runes) <= 4 {
		return string(runes)
	}
	masked := strings.Repeat(string(maskChar), len(runes)-4)
	return masked + string(runes[len(runes)-4:])
}

func partialEmail(value string, maskChar rune) string {
	at := strings.IndexByte(value, '@')
	if at < 0 {
		return maskRedact(value, maskChar)
	}
	local, domain := value[:at], value[at+1:]
	localRunes := []rune(local)
	if len(localRunes) == 0 {
		return maskRedact(value, maskChar)
	}
	first := string(localRunes[0])
	masked := strings.Repeat(string(maskChar), len(localRunes)-1)
	return first + masked + "@" + domain
}

func partialIPv4(value string, maskChar rune) string {
	octets := strings.Split(value, ".")
	if len(octets) != 4 {
		return maskRedact(value, maskChar)
	}
	mask := strings.Repeat(string(maskChar), 3)
	return mask + "." + mask + "." + octets[2] + "." + octets[3]
}

func partialURL(value string) string {
	rest := value
	scheme := ""
	if idx := strings.Index(rest, "://"); idx >= 0 {
		scheme = rest[:idx]
		rest = rest[idx+3:]
	}
	host := rest
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		host = rest[:idx]
	}
	return scheme + "://" + host + "/***"
}
