package utils

import (
	"strings"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0"},
		{42, "42"},
		{59.5, "59.500"},
		{61, "1:01"},
		{125.5, "2:05.500"},
		{3600, "1:00:00"},
		{3725.001, "1:02:05.001"},
		{7199.999, "1:59:59.999"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestTruncateChoiceName(t *testing.T) {
	short := "Super Mario 64: 120 Star"
	if got := TruncateChoiceName(short); got != short {
		t.Errorf("TruncateChoiceName() altered a short name: %q", got)
	}

	long := strings.Repeat("a", 90) + strings.Repeat("b", 90)
	got := TruncateChoiceName(long)
	if len(got) != 100 {
		t.Errorf("TruncateChoiceName() length = %d, want 100", len(got))
	}
	if !strings.Contains(got, "...") {
		t.Errorf("TruncateChoiceName() = %q, want ellipsis", got)
	}
	if !strings.HasPrefix(got, long[:86]) || !strings.HasSuffix(got, long[len(long)-11:]) {
		t.Errorf("TruncateChoiceName() = %q, want head and tail preserved", got)
	}
}
