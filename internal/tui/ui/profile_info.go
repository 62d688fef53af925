package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rivo/tview"
)

// ProfileData holds the header facts about the running popup.
type ProfileData struct {
	Profile     string
	Daemon      string
	Badge       string
	Online      int
	Subscribed  int
	LastRefresh time.Time
}

// ProfileInfo displays profile metadata in the header.
type ProfileInfo struct {
	*tview.TextView
	theme *Theme
}

// NewProfileInfo creates a new profile info panel.
func NewProfileInfo(theme *Theme) *ProfileInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &ProfileInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the profile info.
func (pi *ProfileInfo) Update(data ProfileData, now time.Time) {
	pi.Clear()
	_, _ = fmt.Fprint(pi, FormatProfile(pi.theme, data, now))
}

// FormatProfile renders data as tview-tagged text.
func FormatProfile(theme *Theme, data ProfileData, now time.Time) string {
	fg := Tag(theme.FgColor)
	val := Tag(theme.CounterColor)

	badge := data.Badge
	if badge == "" {
		badge = "-"
	}
	refreshed := "never"
	if !data.LastRefresh.IsZero() {
		refreshed = humanize.RelTime(data.LastRefresh, now, "ago", "from now")
	}

	return fmt.Sprintf(
		"[%s::b]Profile:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Daemon:[-:-:-]  [%s]%s[-]\n"+
			"[%s::b]Badge:[-:-:-]   [%s]%s[-]\n"+
			"[%s::b]Online:[-:-:-]  [%s]%d/%d[-]\n"+
			"[%s::b]Updated:[-:-:-] [%s]%s[-]",
		fg, val, tview.Escape(data.Profile),
		fg, val, tview.Escape(data.Daemon),
		fg, val, tview.Escape(badge),
		fg, val, data.Online, data.Subscribed,
		fg, val, refreshed,
	)
}
