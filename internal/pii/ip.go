package pii

import (
	"net"
	"regexp"
	"strings"
)

var (
	ipv4CandidateRegex = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	// ipv6CandidateRegex is intentionally permissive (hex groups separated
	// by colons, with an optional "::" compression); net.ParseIP does the
	// real validation, so over-matching here just costs a wasted parse.
	ipv6CandidateRegex = regexp.MustCompile(`\b(?:[0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}\b`)
)

func findIPAddresses(text string) []Entity {
	var entities []Entity

	for _, m := range ipv4CandidateRegex.FindAllStringIndex(text, -1) {
		value := text[m[0]:m[1]]
		if !validIPv4(value) {
			continue
		}
		entities = append(entities, Entity{
			Kind:       KindIPAddress,
			Value:      value,
			Confidence: 0.90,
			Start:      m[0],
			End:        m[1],
		})
	}

	for _, m := range ipv6CandidateRegex.FindAllStringIndex(text, -1) {
		value := text[m[0]:m[1]]
		if !strings.Contains(value, ":") {
			continue
		}
		ip := net.ParseIP(value)
		if ip == nil || ip.To4() != nil {
			continue
		}
		entities = append(entities, Entity{
			Kind:       KindIPAddress,
			Value:      value,
			Confidence: 0.85,
			Start:      m[0],
			End:        m[1],
		})
	}

	return entities
}

// validIPv4 checks each dotted octet is within [0, 255] and has no
// non-numeric content net.ParseIP might otherwise silently tolerate
// differently than the spec's numeric-range contract.
func validIPv4(value string) bool {
	parts := strings.Split(value, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if len(p) == 0 || len(p) > 3 {
			return false
		}
		n := 0
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
			n = n*10 + int(r-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}
