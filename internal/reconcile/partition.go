package reconcile

import (
	"github.com/matheus3301/streamtabs/internal/settings"
	"github.com/matheus3301/streamtabs/internal/stream"
	"github.com/matheus3301/streamtabs/internal/subscription"
)

// Partition splits a flat resolver response back into one tab per
// subscription slot. Each tab keeps the response entries whose normalized
// username is subscribed in that tab, in response order. A username
// subscribed in several tabs appears in each of them.
func Partition(s settings.Settings, response []stream.Status) []stream.Tab {
	s = subscription.Pad(s)
	tabs := make([]stream.Tab, len(s.Subscriptions))
	for i, subs := range s.Subscriptions {
		set := make(map[string]struct{}, len(subs))
		for _, u := range subs {
			set[subscription.Normalize(u)] = struct{}{}
		}

		var streams []stream.Status
		for _, st := range response {
			if _, ok := set[subscription.Normalize(st.Username)]; ok {
				streams = append(streams, st)
			}
		}
		tabs[i] = stream.Tab{Index: i, Name: s.TabNames[i], Streams: streams}
	}
	return tabs
}
