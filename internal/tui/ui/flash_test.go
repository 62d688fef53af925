package ui

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFlashExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f := NewFlashModel()
	f.now = func() time.Time { return now }

	if f.Current() != nil {
		t.Fatal("fresh model has a message")
	}

	f.Info("added %s", "shroud")
	msg := f.Current()
	if msg == nil || msg.Text != "added shroud" || msg.Level != FlashInfo {
		t.Fatalf("Current = %+v", msg)
	}

	now = now.Add(6 * time.Second)
	if f.Current() != nil {
		t.Error("info message still shown after 6s")
	}

	f.Err(errors.New("boom"))
	now = now.Add(9 * time.Second)
	if msg := f.Current(); msg == nil || msg.Level != FlashErr {
		t.Errorf("error message expired early: %+v", msg)
	}
}

func TestFormatFlash(t *testing.T) {
	theme := DefaultTheme()
	if FormatFlash(theme, nil) != "" {
		t.Error("nil message rendered")
	}
	got := FormatFlash(theme, &FlashMessage{Text: "bad [tag]", Level: FlashWarn})
	if !strings.HasPrefix(got, "["+Tag(theme.FlashWarnColor)+"]") {
		t.Errorf("FormatFlash = %q, want warn color", got)
	}
	if strings.Contains(got, "[tag]") {
		t.Errorf("FormatFlash did not escape tags: %q", got)
	}
}
