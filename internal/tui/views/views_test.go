package views

import (
	"errors"
	"strings"
	"testing"

	"github.com/matheus3301/streamtabs/internal/render"
	"github.com/matheus3301/streamtabs/internal/tui/ui"
)

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain title", "plain title"},
		{"thumbs \U0001F44D\U0001F3FB up", "thumbs \U0001F44D up"},
		{"heart \u2764\uFE0F", "heart \u2764"},
		{"family \U0001F468\u200D\U0001F469", "family \U0001F468\U0001F469"},
		{"line\nbreak\ttab", "line break tab"},
	}
	for _, tt := range tests {
		if got := sanitizeForTerminal(tt.in); got != tt.want {
			t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func listView() render.View {
	return render.View{
		State: render.StateList,
		Entries: []render.Entry{
			{Username: "shroud", Live: true, DisplayName: "shroud", Title: "ranked grind", Game: "VALORANT", Viewers: "25.3K"},
			{Username: "summit1g", Live: true, DisplayName: "summit1g", Title: "chill", Game: "DayZ", Viewers: "12K"},
			{Username: "lirik"},
		},
	}
}

func TestStreamListSelectionAndFilter(t *testing.T) {
	sl := NewStreamList(ui.DefaultTheme())
	sl.Update(listView(), "Main")

	if sl.GetRowCount() != 4 {
		t.Fatalf("rows = %d, want header + 3", sl.GetRowCount())
	}
	e, ok := sl.Selected()
	if !ok || e.Username != "shroud" {
		t.Errorf("Selected = %+v, %v", e, ok)
	}
	if !strings.Contains(sl.GetTitle(), "Main (3)") {
		t.Errorf("title = %q", sl.GetTitle())
	}

	sl.SetFilter("dayz")
	e, ok = sl.Selected()
	if !ok || e.Username != "summit1g" {
		t.Errorf("filtered Selected = %+v, %v", e, ok)
	}
	if !strings.Contains(sl.GetTitle(), "(1/3)") {
		t.Errorf("filtered title = %q", sl.GetTitle())
	}

	sl.SetFilter("nobody")
	if _, ok := sl.Selected(); ok {
		t.Error("selection with no matching rows")
	}
	if got := sl.GetCell(1, 1).Text; !strings.Contains(got, "match") {
		t.Errorf("placeholder = %q", got)
	}
}

func TestStreamListPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		view render.View
		want string
	}{
		{"loading", render.View{State: render.StateLoading}, "Loading"},
		{"empty", render.View{State: render.StateEmpty}, "Press a"},
		{"error", render.View{State: render.StateError, Err: errors.New("daemon down")}, "daemon down"},
		{"all offline hidden", render.View{State: render.StateList}, "Nobody is live"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sl := NewStreamList(ui.DefaultTheme())
			sl.Update(tt.view, "Main")
			if got := sl.GetCell(1, 1).Text; !strings.Contains(got, tt.want) {
				t.Errorf("placeholder = %q, want it to contain %q", got, tt.want)
			}
			if _, ok := sl.Selected(); ok {
				t.Error("placeholder row is selectable")
			}
		})
	}
}

func TestFormatEntry(t *testing.T) {
	theme := ui.DefaultTheme()
	live := formatEntry(theme, render.Entry{
		Username:    "shroud",
		Live:        true,
		DisplayName: "Shroud",
		Title:       "ranked",
		Viewers:     "1.2K",
		LiveFor:     "2 hours",
		ChannelURL:  "https://twitch.tv/shroud",
		PreviewURL:  "https://static-cdn.jtvnw.net/previews-ttv/live_user_shroud-320x180.jpg",
	})
	for _, want := range []string{"LIVE", "Shroud", "1.2K", "2 hours", "https://twitch.tv/shroud", "live_user_shroud"} {
		if !strings.Contains(live, want) {
			t.Errorf("live entry missing %q:\n%s", want, live)
		}
	}

	offline := formatEntry(theme, render.Entry{Username: "lirik", ChannelURL: "https://twitch.tv/lirik"})
	if !strings.Contains(offline, "offline") || strings.Contains(offline, "Viewers") {
		t.Errorf("offline entry:\n%s", offline)
	}
}

func TestFlagSummary(t *testing.T) {
	if got := FlagSummary(false, false, false); got != "OPC" {
		t.Errorf("FlagSummary(all shown) = %q", got)
	}
	if got := FlagSummary(true, false, true); got != "oPc" {
		t.Errorf("FlagSummary(offline and count hidden) = %q", got)
	}
}

func TestHelpTextListsBindings(t *testing.T) {
	text := helpText(ui.DefaultTheme())
	for _, want := range []string{"Add a streamer", "Rename the current tab", "Export settings", ":import"} {
		if !strings.Contains(text, want) {
			t.Errorf("help text missing %q", want)
		}
	}
}

func TestRenderQR(t *testing.T) {
	qr, err := RenderQR("https://twitch.tv/shroud", "  ")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(qr, "\n"), "\n")
	if len(lines) < 10 {
		t.Fatalf("QR has %d lines", len(lines))
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "  ") {
			t.Fatalf("line not indented: %q", l)
		}
	}
	if !strings.ContainsAny(qr, "█▀▄") {
		t.Error("QR has no blocks")
	}
}
