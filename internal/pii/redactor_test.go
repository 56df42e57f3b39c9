package pii

import (
	"strings"
	"testing"
)

// TestRedactS4PlaceholderExample covers spec.md §8 scenario S4's literal
// example: "My email is [EMAIL] and SSN is [SSN]".
func TestRedactS4PlaceholderExample(t *testing.T) {
	text := "My email is jane@example.com and SSN is 123-45-6789"
	entities := NewScanner().Scan(text)
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d: %+v", len(entities), entities)
	}

	got := NewRedactor().Redact(text, entities, RedactOptions{Strategy: StrategyPlaceholder})
	want := "My email is [EMAIL] and SSN is [SSN]"
	if got != want {
		t.Errorf("Redact = %q, want %q", got, want)
	}
}

func TestRedactMask(t *testing.T) {
	text := "call 415-555-1234 now"
	entities := []Entity{{Kind: KindPhone, Value: "415-555-1234", Start: 5, End: 17}}
	got := NewRedactor().Redact(text, entities, RedactOptions{Strategy: StrategyMask})
	want := "call ************ now"
	if got != want {
		t.Errorf("Redact = %q, want %q", got, want)
	}
}

func TestRedactHashDeterministic(t *testing.T) {
	entities := []Entity{{Kind: KindEmail, Value: "a@b.com", Start: 0, End: 7}}
	r := NewRedactor()
	first := r.Redact("a@b.com", entities, RedactOptions{Strategy: StrategyHash})
	second := r.Redact("a@b.com", entities, RedactOptions{Strategy: StrategyHash})
	if first != second {
		t.Errorf("hash redaction not deterministic: %q != %q", first, second)
	}
	if !strings.HasPrefix(first, "HASH_") {
		t.Errorf("hash redaction = %q, want HASH_ prefix", first)
	}

	other := []Entity{{Kind: KindEmail, Value: "c@d.com", Start: 0, End: 7}}
	differing := r.Redact("c@d.com", other, RedactOptions{Strategy: StrategyHash})
	if differing == first {
		t.Error("different values hashed to the same digest")
	}
}

func TestRedactPartialTail4(t *testing.T) {
	entities := []Entity{{Kind: KindCreditCard, Value: "4532015112830366", Start: 0, End: 16}}
	got := NewRedactor().Redact("4532015112830366", entities, RedactOptions{Strategy: StrategyPartial})
	want := "************0366"
	if got != want {
		t.Errorf("Redact = %q, want %q", got, want)
	}
}

func TestRedactPartialEmail(t *testing.T) {
	entities := []Entity{{Kind: KindEmail, Value: "jane@example.com", Start: 0, End: 16}}
	got := NewRedactor().Redact("jane@example.com", entities, RedactOptions{Strategy: StrategyPartial})
	want := "j***@example.com"
	if got != want {
		t.Errorf("Redact = %q, want %q", got, want)
	}
}

func TestRedactPartialIPv4(t *testing.T) {
	entities := []Entity{{Kind: KindIPAddress, Value: "192.168.1.42", Start: 0, End: 12}}
	got := NewRedactor().Redact("192.168.1.42", entities, RedactOptions{Strategy: StrategyPartial})
	want := "***.***.1.42"
	if got != want {
		t.Errorf("Redact = %q, want %q", got, want)
	}
}

func TestRedactMixedDispatchesByKind(t *testing.T) {
	text := "a@b.com and 192.168.1.1"
	entities := []Entity{
		{Kind: KindEmail, Value: "a@b.com", Start: 0, End: 7},
		{Kind: KindIPAddress, Value: "192.168.1.1", Start: 12, End: 23},
	}
	got := NewRedactor().Redact(text, entities, RedactOptions{
		Strategy: StrategyMixed,
		Mixed: map[Kind]Strategy{
			KindEmail: StrategyPlaceholder,
		},
	})
	// Email uses the configured placeholder strategy; IP address, absent
	// from the Mixed map, falls back to mask.
	want := "[EMAIL] and ***********"
	if got != want {
		t.Errorf("Redact = %q, want %q", got, want)
	}
}

func TestRedactCustomStrategy(t *testing.T) {
	entities := []Entity{{Kind: KindEmail, Value: "a@b.com", Start: 0, End: 7}}
	got := NewRedactor().Redact("a@b.com", entities, RedactOptions{
		Strategy: StrategyCustom,
		Custom:   func(e Entity) string { return "REDACTED:" + string(e.Kind) },
	})
	want := "REDACTED:email"
	if got != want {
		t.Errorf("Redact = %q, want %q", got, want)
	}
}

func TestRedactDescendingOffsetSpliceHandlesMultipleEntities(t *testing.T) {
	text := "first a@b.com second c@d.com third e@f.com"
	entities := NewScanner().Scan(text)
	if len(entities) != 3 {
		t.Fatalf("expected 3 emails, got %d: %+v", len(entities), entities)
	}
	got := NewRedactor().Redact(text, entities, RedactOptions{Strategy: StrategyPlaceholder})
	want := "first [EMAIL] second [EMAIL] third [EMAIL]"
	if got != want {
		t.Errorf("Redact = %q, want %q", got, want)
	}
}

func TestRedactWithMappingRecordsOriginalValues(t *testing.T) {
	text := "a@b.com"
	entities := []Entity{{Kind: KindEmail, Value: "a@b.com", Start: 0, End: 7}}
	redacted, mapping := NewRedactor().RedactWithMapping(text, entities, RedactOptions{Strategy: StrategyPlaceholder})
	if redacted != "[EMAIL]" {
		t.Errorf("redacted = %q", redacted)
	}
	if mapping["a@b.com"] != "[EMAIL]" {
		t.Errorf("mapping = %v, want a@b.com -> [EMAIL]", mapping)
	}
}
