package phone

import "testing"

func TestNormalizeE164FormatsValidNumbers(t *testing.T) {
	got := NormalizeE164("+31 6 12345678", "NL")
	if got != "+31612345678" {
		t.Fatalf("expected +31612345678, got %q", got)
	}

	national := NormalizeE164("06 12345678", "NL")
	if national != got {
		t.Fatalf("expected national format to normalize to %q, got %q", got, national)
	}
}

func TestNormalizeE164KeepsUnparseableInput(t *testing.T) {
	if got := NormalizeE164("  555-0100 ", "US"); got != "555-0100" {
		t.Fatalf("expected trimmed input for invalid number, got %q", got)
	}
	if got := NormalizeE164("   ", "US"); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
