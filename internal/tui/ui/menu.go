package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// MenuHint describes a keyboard shortcut for display in the menu.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // tab switching keys, drawn in a different color
}

// Menu displays keyboard shortcut hints in columns of four.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint panel.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

const menuRows = 4

// Update renders hints column-major, menuRows per column.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()

	keyColor := Tag(m.theme.MenuKeyColor)
	numColor := Tag(m.theme.NumericKeyColor)

	for row := range menuRows {
		for i := row; i < len(hints); i += menuRows {
			h := hints[i]
			kc := keyColor
			if h.Numeric {
				kc = numColor
			}
			_, _ = fmt.Fprintf(m, "[%s::b]%-8s[-:-:-]%-14s", kc, "<"+h.Key+">", h.Description)
		}
		_, _ = fmt.Fprintln(m)
	}
}
