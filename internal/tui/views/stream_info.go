package views

import (
	"fmt"

	"github.com/matheus3301/streamtabs/internal/render"
	"github.com/matheus3301/streamtabs/internal/tui/ui"
	"github.com/rivo/tview"
)

// StreamInfo displays everything known about one stream entry.
type StreamInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewStreamInfo creates a new stream details view.
func NewStreamInfo(theme *ui.Theme) *StreamInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitleColor(theme.TitleColor)

	return &StreamInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Hints lists the keys handled on the details page.
func (si *StreamInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
		{Key: "Enter", Description: "Open"},
		{Key: "d", Description: "Remove"},
	}
}

// Update renders e.
func (si *StreamInfo) Update(e render.Entry) {
	si.Clear()
	si.SetTitle(fmt.Sprintf(" %s ", tview.Escape(e.Username)))
	_, _ = fmt.Fprint(si, formatEntry(si.theme, e))
}

func formatEntry(theme *ui.Theme, e render.Entry) string {
	fg := ui.Tag(theme.FgColor)
	val := ui.Tag(theme.CounterColor)
	line := func(label, value string) string {
		if value == "" {
			value = "-"
		}
		return fmt.Sprintf(" [%s::b]%-9s[-:-:-] [%s]%s[-]\n", fg, label, val, tview.Escape(sanitizeForTerminal(value)))
	}

	status := fmt.Sprintf("[%s]offline[-]", ui.Tag(theme.OfflineColor))
	if e.Live {
		status = fmt.Sprintf("[%s::b]LIVE[-:-:-]", ui.Tag(theme.LiveColor))
	}

	text := "\n" + fmt.Sprintf(" [%s::b]%-9s[-:-:-] %s\n", fg, "Status:", status)
	text += line("Streamer:", e.Username)
	if e.Live {
		text += line("Name:", e.DisplayName)
		text += line("Title:", e.Title)
		text += line("Game:", e.Game)
		text += line("Viewers:", e.Viewers)
		text += line("Live for:", e.LiveFor)
	}
	text += line("Channel:", e.ChannelURL)
	if e.PreviewURL != "" {
		text += line("Preview:", e.PreviewURL)
	}
	if qr, err := RenderQR(e.ChannelURL, "  "); err == nil {
		text += "\n" + qr
	}
	return text
}
