package pii

import "sort"

// Scanner finds PII entities in text. It holds no mutable state; a single
// Scanner value is safe to share across goroutines.
type Scanner struct{}

// NewScanner returns a ready-to-use Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan returns every PII entity found in text across all six kinds, sorted
// by Start with overlapping spans resolved per spec.md §4.5 (retain the
// longer entity; ties broken by the earlier start).
func (s *Scanner) Scan(text string) []Entity {
	var all []Entity
	all = append(all, findEmails(text)...)
	all = append(all, findPhones(text)...)
	all = append(all, findSSNs(text)...)
	all = append(all, findCreditCards(text)...)
	all = append(all, findIPAddresses(text)...)
	all = append(all, findURLs(text)...)

	return resolveOverlaps(all)
}

// ScanByType returns only entities of the requested kind, sorted by Start.
func (s *Scanner) ScanByType(text string, kind Kind) []Entity {
	var found []Entity
	switch kind {
	case KindEmail:
		found = findEmails(text)
	case KindPhone:
		found = findPhones(text)
	case KindSSN:
		found = findSSNs(text)
	case KindCreditCard:
		found = findCreditCards(text)
	case KindIPAddress:
		found = findIPAddresses(text)
	case KindURL:
		found = findURLs(text)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Start < found[j].Start })
	return found
}

// ContainsPII reports whether text contains at least one PII entity of any
// kind.
func (s *Scanner) ContainsPII(text string) bool {
	return len(s.Scan(text)) > 0
}

// resolveOverlaps sorts entities by Start and, whenever two entities' byte
// spans overlap, keeps only the longer one (earlier Start wins a tie),
// per spec.md §4.5.
func resolveOverlaps(entities []Entity) []Entity {
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Start != entities[j].Start {
			return entities[i].Start < entities[j].Start
		}
		return entities[i].length() > entities[j].length()
	})

	var resolved []Entity
	for _, e := range entities {
		if len(resolved) == 0 {
			resolved = append(resolved, e)
			continue
		}
		last := &resolved[len(resolved)-1]
		if e.Start < last.End {
			// Overlaps the last kept entity: keep whichever is longer: the
			// tie-break (equal length) favors the earlier-starting entity,
			// which is already `last` because of the sort above.
			if e.length() > last.length() {
				resolved[len(resolved)-1] = e
			}
			continue
		}
		resolved = append(resolved, e)
	}
	return resolved
}
