package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/streamtabs/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar displays the profile, reconcile state and flash messages.
type StatusBar struct {
	*tview.TextView
	theme   *ui.Theme
	profile string
	state   string
	flags   string
	flash   *ui.FlashMessage
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetState updates the reconcile state display.
func (sb *StatusBar) SetState(state string) {
	sb.state = state
	sb.render()
}

// SetFlags shows which of the three hide toggles are on.
func (sb *StatusBar) SetFlags(hideOffline, hidePreviews, hideCount bool) {
	sb.flags = FlagSummary(hideOffline, hidePreviews, hideCount)
	sb.render()
}

// SetFlash sets the transient message, nil clears it.
func (sb *StatusBar) SetFlash(msg *ui.FlashMessage) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s | %s",
		tview.Escape(sb.profile), sb.state, sb.flags, time.Now().Format("15:04"))
	if sb.flash != nil {
		line += " | " + ui.FormatFlash(sb.theme, sb.flash)
	}
	_, _ = fmt.Fprint(sb, line)
}

// FlagSummary renders the toggles as o/p/c letters, upper case when the
// corresponding items are shown.
func FlagSummary(hideOffline, hidePreviews, hideCount bool) string {
	flag := func(hidden bool, shown string, off string) string {
		if hidden {
			return off
		}
		return shown
	}
	return flag(hideOffline, "O", "o") + flag(hidePreviews, "P", "p") + flag(hideCount, "C", "c")
}
