package correlate

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDigits(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain digits", "0501234567", "0501234567"},
		{"e164 with plus", "+972501234567", "972501234567"},
		{"formatted", "(050) 123-4567", "0501234567"},
		{"with spaces", "050 123 45 67", "0501234567"},
		{"empty", "", ""},
		{"no digits", "abc-def", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Digits(tt.input); got != tt.want {
				t.Errorf("Digits(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestVariants(t *testing.T) {
	variants := Variants("972501234567", "972")

	for _, key := range []string{"972501234567", "2501234567", "501234567"} {
		found := false
		for _, v := range variants {
			if v == key {
				found = true
			}
		}
		if !found {
			t.Errorf("variant %q missing from %v", key, variants)
		}
	}

	// Deduplication: country-code form equals the full form here.
	seen := map[string]int{}
	for _, v := range variants {
		seen[v]++
		if seen[v] > 1 {
			t.Errorf("duplicate variant %q", v)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		candidate string
		want      bool
	}{
		{"international vs local", "+972501234567", "0501234567", true},
		{"local vs international", "0501234567", "+972501234567", true},
		{"identical", "0501234567", "0501234567", true},
		{"formatted vs plain", "(050) 123-4567", "0501234567", true},
		{"different numbers", "+972501234567", "0509999999", false},
		{"too short raw", "12345", "0501234567", false},
		{"too short candidate", "0501234567", "123", false},
		{"empty raw", "", "0501234567", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.raw, tt.candidate, "972"); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.raw, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestMatchIsSymmetricForVariantPairs(t *testing.T) {
	pairs := [][2]string{
		{"+972501234567", "0501234567"},
		{"972-50-123-4567", "050 123 4567"},
	}
	for _, pair := range pairs {
		if Match(pair[0], pair[1], "972") != Match(pair[1], pair[0], "972") {
			t.Errorf("Match not symmetric for %q / %q", pair[0], pair[1])
		}
	}
}

func TestResolve(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	idOld := uuid.New()
	idNew := uuid.New()
	idOther := uuid.New()

	candidates := []Candidate{
		{ID: idOld, Phone: "0501234567", LastInteraction: &older},
		{ID: idNew, Phone: "+972501234567", LastInteraction: &newer},
		{ID: idOther, Phone: "0509999999", LastInteraction: &newer},
	}

	got, ok := Resolve("050-123-4567", candidates, "972")
	if !ok {
		t.Fatal("expected a match")
	}
	if got != idNew {
		t.Errorf("expected most recently active lead %s, got %s", idNew, got)
	}

	if _, ok := Resolve("0507777777", candidates, "972"); ok {
		t.Error("expected NotFound for unrelated number")
	}

	if _, ok := Resolve("0501234567", nil, "972"); ok {
		t.Error("expected NotFound with no candidates")
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	when := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	candidates := []Candidate{
		{ID: uuid.New(), Phone: "0501234567", LastInteraction: &when},
		{ID: uuid.New(), Phone: "0501234567", LastInteraction: &when},
	}

	first, ok := Resolve("+972501234567", candidates, "972")
	if !ok {
		t.Fatal("expected a match")
	}
	for i := 0; i < 10; i++ {
		again, _ := Resolve("+972501234567", candidates, "972")
		if again != first {
			t.Fatal("Resolve is not deterministic for identical inputs")
		}
	}
}

func TestResolveEmail(t *testing.T) {
	id := uuid.New()
	candidates := []Candidate{
		{ID: uuid.New(), Email: "other@example.com"},
		{ID: id, Email: "Lead@Example.com"},
	}

	got, ok := ResolveEmail("  lead@example.com ", candidates)
	if !ok || got != id {
		t.Errorf("ResolveEmail = (%s, %v), want (%s, true)", got, ok, id)
	}

	if _, ok := ResolveEmail("", candidates); ok {
		t.Error("empty email must not match")
	}
	if _, ok := ResolveEmail("missing@example.com", candidates); ok {
		t.Error("unknown email must not match")
	}
}
