// Package correlate resolves noisy external phone identifiers to leads.
//
// The matching is a deliberate compatibility heuristic for inconsistent phone
// formats (local vs. international, leading zero, punctuation). It is pure and
// deterministic so replayed webhook deliveries resolve identically.
package correlate

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Candidate is one lead considered for phone correlation.
type Candidate struct {
	ID              uuid.UUID
	Phone           string
	Email           string
	LastInteraction *time.Time
}

// Digits strips every non-digit character from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Variants returns the comparison forms of a normalized digit string: the
// full digits, the last 10, the last 9, and a country-code-prefixed last-9
// form that canonicalizes local numbers (e.g. 0501234567 -> 972501234567).
func Variants(digits, countryCode string) []string {
	if digits == "" {
		return nil
	}

	variants := []string{digits}
	appendUnique := func(v string) {
		if v == "" {
			return
		}
		for _, existing := range variants {
			if existing == v {
				return
			}
		}
		variants = append(variants, v)
	}

	appendUnique(lastN(digits, 10))
	appendUnique(lastN(digits, 9))
	if countryCode != "" {
		appendUnique(countryCode + lastN(digits, 9))
	}
	return variants
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// minMatchLen guards the substring check against trivially short fragments
// matching unrelated numbers.
const minMatchLen = 7

// Match reports whether a raw incoming phone and a candidate phone denote the
// same number. A variant of either side being a substring of the other counts
// as a match; this absorbs country-code and leading-zero mismatches in both
// directions.
func Match(raw, candidate, countryCode string) bool {
	rawDigits := Digits(raw)
	candDigits := Digits(candidate)
	if len(rawDigits) < minMatchLen || len(candDigits) < minMatchLen {
		return false
	}

	for _, v := range Variants(rawDigits, countryCode) {
		if len(v) < minMatchLen {
			continue
		}
		if strings.Contains(candDigits, v) || strings.Contains(v, candDigits) {
			return true
		}
	}
	return false
}

// Resolve finds the lead a raw phone string belongs to. When several
// candidates match, the most recently active one wins. The second return is
// false when nothing matches; callers must not create a lead as a side
// effect of a miss.
func Resolve(raw string, candidates []Candidate, countryCode string) (uuid.UUID, bool) {
	var (
		found    bool
		bestID   uuid.UUID
		bestSeen time.Time
	)

	for _, cand := range candidates {
		if !Match(raw, cand.Phone, countryCode) {
			continue
		}

		seen := time.Time{}
		if cand.LastInteraction != nil {
			seen = *cand.LastInteraction
		}
		if !found || seen.After(bestSeen) {
			found = true
			bestID = cand.ID
			bestSeen = seen
		}
	}

	return bestID, found
}

// ResolveEmail matches an invitee email against candidate emails,
// case-insensitively. It exists as the documented fallback for meeting
// payloads that carry no usable phone number.
func ResolveEmail(email string, candidates []Candidate) (uuid.UUID, bool) {
	needle := strings.ToLower(strings.TrimSpace(email))
	if needle == "" {
		return uuid.UUID{}, false
	}

	var (
		found    bool
		bestID   uuid.UUID
		bestSeen time.Time
	)
	for _, cand := range candidates {
		if strings.ToLower(strings.TrimSpace(cand.Email)) != needle {
			continue
		}
		seen := time.Time{}
		if cand.LastInteraction != nil {
			seen = *cand.LastInteraction
		}
		if !found || seen.After(bestSeen) {
			found = true
			bestID = cand.ID
			bestSeen = seen
		}
	}
	return bestID, found
}
