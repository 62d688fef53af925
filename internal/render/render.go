// Package render turns reconciled tabs into display-ready data. Everything
// here is pure; the popup and streamctl only format the result.
package render

import (
	"slices"
	"strconv"
	"strings"

	"github.com/matheus3301/streamtabs/internal/stream"
)

// SortStreams orders live entries before offline ones, live entries by
// viewer count descending. Offline entries compare equal.
func SortStreams(a, b stream.Status) int {
	switch {
	case a.Live() && b.Live():
		return b.Channel.ViewerCount - a.Channel.ViewerCount
	case a.Live():
		return -1
	case b.Live():
		return 1
	}
	return 0
}

// Sorted returns a stably sorted copy of streams.
func Sorted(streams []stream.Status) []stream.Status {
	out := slices.Clone(streams)
	slices.SortStableFunc(out, SortStreams)
	return out
}

// AbbreviateViewerCount formats n as 2.5M, 1.5K, 2K or the plain integer.
func AbbreviateViewerCount(n int) string {
	switch {
	case n >= 1_000_000:
		return oneDecimal(float64(n)/1e6) + "M"
	case n >= 1_000:
		return oneDecimal(float64(n)/1e3) + "K"
	}
	return strconv.Itoa(n)
}

func oneDecimal(f float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(f, 'f', 1, 64), ".0")
}

// VisibleEntries sorts streams and drops offline entries when hideOffline is
// set.
func VisibleEntries(streams []stream.Status, hideOffline bool) []stream.Status {
	sorted := Sorted(streams)
	if !hideOffline {
		return sorted
	}
	return slices.DeleteFunc(sorted, func(s stream.Status) bool { return !s.Live() })
}

// TabLabel renders a tab button label, appending the live count when any
// stream in the tab is live.
func TabLabel(name string, numLive int) string {
	if numLive > 0 {
		return name + " (" + strconv.Itoa(numLive) + ")"
	}
	return name
}

// OnlineCount sums live entries across all tabs, counting a username once
// even when it is subscribed in several tabs.
func OnlineCount(tabs []stream.Tab) int {
	seen := make(map[string]struct{})
	for _, tab := range tabs {
		for _, s := range tab.Streams {
			if !s.Live() {
				continue
			}
			seen[strings.ToLower(strings.TrimSpace(s.Username))] = struct{}{}
		}
	}
	return len(seen)
}
