package metric

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	for _, m := range All() {
		parsed, errParse := Parse(string(m))
		if errParse != nil {
			t.Fatalf("Parse(%q): %v", m, errParse)
		}
		if parsed != m {
			t.Fatalf("Parse(%q) = %q", m, parsed)
		}
	}

	if _, errParse := Parse("  ai_calls "); errParse != nil {
		t.Fatalf("expected surrounding whitespace to be accepted: %v", errParse)
	}

	for _, raw := range []string{"", "tokens", "AI_CALLS"} {
		if _, errParse := Parse(raw); !errors.Is(errParse, ErrInvalidMetric) {
			t.Fatalf("Parse(%q) error = %v, want ErrInvalidMetric", raw, errParse)
		}
	}
}

func TestValid(t *testing.T) {
	if Metric("bogus").Valid() {
		t.Fatalf("bogus metric reported valid")
	}
	if !AICalls.Valid() {
		t.Fatalf("ai_calls reported invalid")
	}
}
