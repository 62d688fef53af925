package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/streamtabs/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays the key binding reference.
type HelpView struct {
	*tview.TextView
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	_, _ = fmt.Fprint(tv, helpText(theme))
	return &HelpView{TextView: tv}
}

// Hints lists the keys handled on the help page.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

var helpSections = []struct {
	title string
	keys  [][2]string
}{
	{"Streamers", [][2]string{
		{"a", "Add a streamer to the current tab"},
		{"d", "Remove the selected streamer"},
		{"D", "Remove every streamer from every tab"},
		{"Enter", "Open the channel in a browser"},
		{"i", "Show stream details"},
		{"/", "Filter the list"},
	}},
	{"Tabs", [][2]string{
		{"1-9", "Switch to tab N"},
		{"[ ]", "Previous / next tab"},
		{"t", "Create a tab"},
		{"r", "Rename the current tab"},
	}},
	{"Settings", [][2]string{
		{"o", "Show or hide offline streamers"},
		{"p", "Show or hide previews"},
		{"c", "Show or hide the online count badge"},
		{"e", "Export settings"},
		{"I", "Import settings"},
		{"R", "Refresh now"},
	}},
	{"Commands (: mode)", [][2]string{
		{":add <name>", "Add a streamer"},
		{":rm <name>", "Remove a streamer"},
		{":tab <name>", "Create a tab"},
		{":rename <name>", "Rename the current tab"},
		{":export [file]", "Export settings"},
		{":import [file]", "Import settings"},
		{":q", "Quit"},
	}},
}

func helpText(theme *ui.Theme) string {
	kc := ui.Tag(theme.MenuKeyColor)
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, k := range s.keys {
			fmt.Fprintf(&b, "  [%s]%-16s[-:-:-] %s\n", kc, tview.Escape(k[0]), k[1])
		}
	}
	return b.String()
}
