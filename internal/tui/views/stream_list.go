package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/streamtabs/internal/render"
	"github.com/matheus3301/streamtabs/internal/tui/ui"
	"github.com/rivo/tview"
)

// StreamList is the stream table for the active tab.
type StreamList struct {
	*tview.Table
	theme   *ui.Theme
	view    render.View
	tabName string
	filter  string
	visible []render.Entry
}

// NewStreamList creates a new stream list table.
func NewStreamList(theme *ui.Theme) *StreamList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	return &StreamList{
		Table: table,
		theme: theme,
	}
}

// Hints lists the keys handled while the list is focused.
func (sl *StreamList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "a", Description: "Add"},
		{Key: "d", Description: "Remove"},
		{Key: "Enter", Description: "Open"},
		{Key: "i", Description: "Details"},
		{Key: "t", Description: "New tab"},
		{Key: "r", Description: "Rename tab"},
		{Key: "o/p/c", Description: "Toggles"},
		{Key: "R", Description: "Refresh"},
		{Key: "/", Description: "Filter"},
		{Key: "?", Description: "Help"},
		{Key: "q", Description: "Quit"},
		{Key: "1-9", Description: "Tab", Numeric: true},
	}
}

// Update shows v for the tab named tabName.
func (sl *StreamList) Update(v render.View, tabName string) {
	sl.view = v
	sl.tabName = tabName
	sl.render()
}

// SetFilter narrows the list to entries whose username, title or game
// contains filter. An empty filter shows everything.
func (sl *StreamList) SetFilter(filter string) {
	sl.filter = strings.TrimSpace(filter)
	sl.render()
}

// Filter returns the active filter text.
func (sl *StreamList) Filter() string {
	return sl.filter
}

func (sl *StreamList) render() {
	row, _ := sl.GetSelection()
	sl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" ", 0},
		{" STREAMER", 1},
		{" TITLE", 3},
		{" GAME", 1},
		{" VIEWERS", 0},
		{" LIVE FOR", 0},
	}
	for col, h := range headers {
		sl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(sl.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	sl.visible = sl.visible[:0]
	if sl.view.State == render.StateList {
		for _, e := range sl.view.Entries {
			if matches(e, sl.filter) {
				sl.visible = append(sl.visible, e)
			}
		}
	}

	if msg := placeholder(sl.view, len(sl.visible), sl.filter); msg != "" {
		sl.SetCell(1, 1, tview.NewTableCell(" "+msg).
			SetSelectable(false).
			SetTextColor(sl.theme.OfflineColor).
			SetExpansion(1))
	}

	for i, e := range sl.visible {
		r := i + 1
		dot, color := "○", sl.theme.OfflineColor
		name := e.Username
		if e.Live {
			dot, color = "●", sl.theme.LiveColor
			name = e.DisplayName
		}
		sl.SetCell(r, 0, tview.NewTableCell(" "+dot).SetTextColor(color))
		sl.SetCell(r, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(name))).SetTextColor(sl.theme.FgColor).SetExpansion(1))
		sl.SetCell(r, 2, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(e.Title))).SetTextColor(sl.theme.FgColor).SetExpansion(3).SetMaxWidth(60))
		sl.SetCell(r, 3, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(e.Game))).SetTextColor(sl.theme.FgColor).SetExpansion(1))
		sl.SetCell(r, 4, tview.NewTableCell(e.Viewers+" ").SetTextColor(sl.theme.CounterColor).SetAlign(tview.AlignRight))
		sl.SetCell(r, 5, tview.NewTableCell(" "+e.LiveFor).SetTextColor(sl.theme.FgColor))
	}

	if row < 1 {
		row = 1
	}
	if row > len(sl.visible) {
		row = max(len(sl.visible), 1)
	}
	sl.Select(row, 0)
	sl.SetTitle(sl.title())
}

func (sl *StreamList) title() string {
	name := tview.Escape(sl.tabName)
	if sl.view.State != render.StateList {
		return fmt.Sprintf(" %s ", name)
	}
	if sl.filter != "" {
		return fmt.Sprintf(" %s (%d/%d) /%s ", name, len(sl.visible), len(sl.view.Entries), tview.Escape(sl.filter))
	}
	return fmt.Sprintf(" %s (%d) ", name, len(sl.view.Entries))
}

// Selected returns the entry under the cursor.
func (sl *StreamList) Selected() (render.Entry, bool) {
	row, _ := sl.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(sl.visible) {
		return render.Entry{}, false
	}
	return sl.visible[idx], true
}

func placeholder(v render.View, visible int, filter string) string {
	switch v.State {
	case render.StateLoading:
		return "Loading..."
	case render.StateError:
		return "Could not get streamer status: " + tview.Escape(errText(v.Err))
	case render.StateEmpty:
		return "No streamers in this tab. Press a to add one."
	}
	switch {
	case len(v.Entries) == 0:
		return "Nobody is live right now."
	case visible == 0 && filter != "":
		return "No streamers match the filter."
	}
	return ""
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func matches(e render.Entry, filter string) bool {
	if filter == "" {
		return true
	}
	f := strings.ToLower(filter)
	for _, field := range []string{e.Username, e.DisplayName, e.Title, e.Game} {
		if strings.Contains(strings.ToLower(field), f) {
			return true
		}
	}
	return false
}
