package ui

import (
	"fmt"
	"strings"

	"github.com/matheus3301/streamtabs/internal/render"
	"github.com/rivo/tview"
)

// TabBar shows one button per subscription tab, numbered for the 1-9 keys.
type TabBar struct {
	*tview.TextView
	theme *Theme
}

// NewTabBar creates a new tab bar.
func NewTabBar(theme *Theme) *TabBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &TabBar{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the tab buttons.
func (tb *TabBar) Update(buttons []render.TabButton) {
	tb.Clear()
	_, _ = fmt.Fprint(tb, FormatTabs(tb.theme, buttons))
}

// FormatTabs renders buttons as tview-tagged text.
func FormatTabs(theme *Theme, buttons []render.TabButton) string {
	parts := make([]string, 0, len(buttons))
	for i, b := range buttons {
		label := tview.Escape(b.Label)
		if i < 9 {
			label = fmt.Sprintf("%d:%s", i+1, label)
		}
		if b.Active {
			parts = append(parts, fmt.Sprintf("[%s:%s:b] %s [-:-:-]",
				Tag(theme.TabActiveFg), Tag(theme.TabActiveBg), label))
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s:%s:] %s [-:-:-]",
			Tag(theme.TabInactiveFg), Tag(theme.TabInactiveBg), label))
	}
	return strings.Join(parts, " ")
}
