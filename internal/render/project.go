package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/matheus3301/streamtabs/internal/stream"
)

// DisplayState selects what the stream list area shows.
type DisplayState int

const (
	StateLoading DisplayState = iota
	StateEmpty
	StateError
	StateList
)

func (s DisplayState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	default:
		return "list"
	}
}

// Frame is everything Project needs from one reconcile pass.
type Frame struct {
	// Idle is true before the first cycle has started.
	Idle    bool
	Loading bool
	// Fetched is false when no resolver response exists, either because
	// nothing has been fetched yet or because the union was empty.
	Fetched      bool
	Err          error
	Tabs         []stream.Tab
	TabNames     []string
	ActiveTab    int
	HideOffline  bool
	HidePreviews bool
}

// TabButton is one tab label.
type TabButton struct {
	Label   string
	Active  bool
	NumLive int
}

// Entry is one row of the stream list.
type Entry struct {
	Username    string
	Live        bool
	DisplayName string
	Title       string
	Game        string
	Viewers     string
	LiveFor     string
	ChannelURL  string
	PreviewURL  string
}

// View is the display-ready projection of a Frame.
type View struct {
	State   DisplayState
	Tabs    []TabButton
	Entries []Entry
	Err     error
}

// ChannelURL returns the channel page for username.
func ChannelURL(username string) string {
	return "https://twitch.tv/" + username
}

// PreviewURL returns the stream preview image for username.
func PreviewURL(username string, width, height int) string {
	return fmt.Sprintf("https://static-cdn.jtvnw.net/previews-ttv/live_user_%s-%dx%d.jpg", username, width, height)
}

// Project builds the view for the active tab. Tab labels always count live
// entries in the unfiltered tab so hideOffline never changes them, and keep
// the previous counts while a fetch is loading. Nothing fetched yet shows
// as loading, not as the empty state.
func Project(f Frame, now time.Time) View {
	v := View{Tabs: tabButtons(f)}

	switch {
	case f.Idle, f.Loading:
		v.State = StateLoading
		return v
	case f.Err != nil:
		v.State = StateError
		v.Err = f.Err
		return v
	case !f.Fetched:
		v.State = StateEmpty
		return v
	}

	tab, ok := findTab(f.Tabs, f.ActiveTab)
	if !ok {
		v.State = StateEmpty
		return v
	}

	v.State = StateList
	for _, s := range VisibleEntries(tab.Streams, f.HideOffline) {
		v.Entries = append(v.Entries, entry(s, f.HidePreviews, now))
	}
	return v
}

func tabButtons(f Frame) []TabButton {
	buttons := make([]TabButton, 0, len(f.TabNames))
	for i, name := range f.TabNames {
		numLive := 0
		if tab, ok := findTab(f.Tabs, i); ok {
			numLive = tab.LiveCount()
		}
		buttons = append(buttons, TabButton{
			Label:   TabLabel(name, numLive),
			Active:  i == f.ActiveTab,
			NumLive: numLive,
		})
	}
	return buttons
}

func findTab(tabs []stream.Tab, index int) (stream.Tab, bool) {
	for _, t := range tabs {
		if t.Index == index {
			return t, true
		}
	}
	return stream.Tab{}, false
}

func entry(s stream.Status, hidePreviews bool, now time.Time) Entry {
	e := Entry{
		Username:   s.Username,
		Live:       s.Live(),
		ChannelURL: ChannelURL(s.Username),
	}
	if !s.Live() {
		return e
	}
	ch := s.Channel
	e.DisplayName = ch.DisplayName
	if e.DisplayName == "" {
		e.DisplayName = s.Username
	}
	e.Title = ch.Title
	e.Game = ch.Game
	e.Viewers = AbbreviateViewerCount(ch.ViewerCount)
	if !ch.LiveSince.IsZero() {
		e.LiveFor = strings.TrimSpace(humanize.RelTime(ch.LiveSince, now, "", ""))
	}
	if !hidePreviews {
		e.PreviewURL = PreviewURL(s.Username, 320, 180)
	}
	return e
}
