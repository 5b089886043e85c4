package planner

import (
	"path/filepath"
	"testing"

	"github.com/xblaster/sift/internal/metadata"
)

func TestPlanZeroPadsMonthAndDay(t *testing.T) {
	date := metadata.CaptureDate{Year: 2023, Month: 6, Day: 5}
	got := Plan("/dest", date)
	want := filepath.Join("/dest", "2023", "06", "05")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPlanWithLocation(t *testing.T) {
	date := metadata.CaptureDate{Year: 2023, Month: 12, Day: 25}
	got := Plan("/dest", date, "Paris")
	want := filepath.Join("/dest", "2023", "12", "25", "Paris")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPlanIgnoresEmptyLocation(t *testing.T) {
	date := metadata.CaptureDate{Year: 2023, Month: 1, Day: 1}
	got := Plan("/dest", date, "")
	want := filepath.Join("/dest", "2023", "01", "01")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSanitizeReplacesUnsafeChars(t *testing.T) {
	got := Sanitize(`New York / "Home": Sat?<urday>|`)
	if got != `New York _ _Home__ Sat__urday__` {
		t.Fatalf("unexpected sanitized value: %q", got)
	}
}

func TestSanitizeTrimsWhitespace(t *testing.T) {
	got := Sanitize("  Paris  ")
	if got != "Paris" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeEmptyInput(t *testing.T) {
	if got := Sanitize(""); got != "" {
		t.Fatalf("got %q", got)
	}
}
