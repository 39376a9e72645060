package models

import "testing"

func TestParseKind(t *testing.T) {
	for _, s := range []string{"resource", "space", "event"} {
		kind, err := ParseKind(s)
		if err != nil {
			t.Errorf("ParseKind(%q): %v", s, err)
		}
		if string(kind) != s {
			t.Errorf("ParseKind(%q) = %q", s, kind)
		}
	}

	if _, err := ParseKind("banana"); err == nil {
		t.Error("ParseKind should reject unknown kinds")
	}
	if _, err := ParseKind(""); err == nil {
		t.Error("ParseKind should reject empty input")
	}
}

func TestKindLabel(t *testing.T) {
	cases := map[Kind]string{
		KindResource: "resource booking",
		KindSpace:    "space booking",
		KindEvent:    "event",
	}
	for kind, want := range cases {
		if got := kind.Label(); got != want {
			t.Errorf("%s.Label() = %q, want %q", kind, got, want)
		}
	}
}

func TestValidDate(t *testing.T) {
	valid := []string{"2024-11-10", "2000-01-01", "2026-12-31"}
	for _, s := range valid {
		if !ValidDate(s) {
			t.Errorf("ValidDate(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "2024-13-01", "2024-11-32", "11/10/2024", "tomorrow", "2024-11-10T08:00:00Z"}
	for _, s := range invalid {
		if ValidDate(s) {
			t.Errorf("ValidDate(%q) = true, want false", s)
		}
	}
}
