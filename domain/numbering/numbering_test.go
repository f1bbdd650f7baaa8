package numbering

import "testing"

func TestNext_FirstNumber(t *testing.T) {
	if got := Next("", "INV"); got != "INV0001" {
		t.Errorf("expected INV0001, got %s", got)
	}
}

func TestNext_Increments(t *testing.T) {
	if got := Next("INV0099", "INV"); got != "INV0100" {
		t.Errorf("expected INV0100, got %s", got)
	}
}

func TestNext_MalformedSuffix(t *testing.T) {
	// A stored number with no trailing digits restarts at 0001 instead
	// of failing creation.
	if got := Next("INV-DRAFT", "INV"); got != "INV0001" {
		t.Errorf("expected INV0001, got %s", got)
	}
}

func TestNext_GrowsPastFourDigits(t *testing.T) {
	if got := Next("INV9999", "INV"); got != "INV10000" {
		t.Errorf("expected INV10000, got %s", got)
	}
	if got := Next("INV10000", "INV"); got != "INV10001" {
		t.Errorf("expected INV10001, got %s", got)
	}
}

func TestNext_IndependentPrefix(t *testing.T) {
	if got := Next("EST0041", "EST"); got != "EST0042" {
		t.Errorf("expected EST0042, got %s", got)
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"INV0001", 1},
		{"INV0042", 42},
		{"INV10000", 10000},
		{"", 0},
		{"INVOICE", 0},
		{"INV12x", 0},
		{"99INV", 0},
		{"INV99999999999999999999999999", 0}, // overflows int, restart
	}
	for _, tc := range cases {
		if got := Parse(tc.in); got != tc.want {
			t.Errorf("Parse(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormat_MinimumWidth(t *testing.T) {
	if got := Format("INV", 7); got != "INV0007" {
		t.Errorf("expected INV0007, got %s", got)
	}
	if got := Format("INV", 12345); got != "INV12345" {
		t.Errorf("expected INV12345, got %s", got)
	}
}
