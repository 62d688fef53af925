package ui

import (
	"strings"
	"testing"
	"time"
)

func TestFormatProfile(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	theme := DefaultTheme()

	got := FormatProfile(theme, ProfileData{
		Profile:     "main",
		Daemon:      "up 5 minutes",
		Badge:       "3",
		Online:      3,
		Subscribed:  7,
		LastRefresh: now.Add(-30 * time.Second),
	}, now)
	for _, want := range []string{"main", "up 5 minutes", "3/7", "seconds ago"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatProfile missing %q:\n%s", want, got)
		}
	}

	got = FormatProfile(theme, ProfileData{Profile: "main"}, now)
	if !strings.Contains(got, "never") {
		t.Errorf("zero LastRefresh not rendered as never:\n%s", got)
	}
}
