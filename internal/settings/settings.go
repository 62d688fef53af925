// Package settings owns the persisted popup configuration: the immutable
// Settings snapshot threaded through reconcile and render, the raw Document
// kept in storage, and merge-write patches.
package settings

import (
	"fmt"
	"slices"
)

// Persisted keys.
const (
	KeyHideOffline              = "hideOffline"
	KeyHidePreviews             = "hidePreviews"
	KeyHideStreamersOnlineCount = "hideStreamersOnlineCount"
	KeyTabNames                 = "tabNames"
	KeySubscriptions            = "subscriptions"

	// KeyLegacySubscriptions is the name older exports used for subscriptions.
	KeyLegacySubscriptions = "twitchStreams"
)

// DefaultTabName labels the implicit first tab.
const DefaultTabName = "Main"

// ExportFileName is the default file name for exported settings.
const ExportFileName = "Twitch-Stream-Notifier.json"

// Settings is a decoded settings snapshot. Subscriptions[i] belongs to
// TabNames[i]. Values are treated as immutable; mutations go through
// copy-returning helpers.
type Settings struct {
	HideOffline              bool       `json:"hideOffline"`
	HidePreviews             bool       `json:"hidePreviews"`
	HideStreamersOnlineCount bool       `json:"hideStreamersOnlineCount"`
	TabNames                 []string   `json:"tabNames"`
	Subscriptions            [][]string `json:"subscriptions"`
}

// Defaults returns the settings used for every missing field.
func Defaults() Settings {
	return Settings{
		TabNames:      []string{DefaultTabName},
		Subscriptions: [][]string{{}},
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	out := s
	out.TabNames = slices.Clone(s.TabNames)
	if s.Subscriptions != nil {
		out.Subscriptions = make([][]string, len(s.Subscriptions))
		for i, tab := range s.Subscriptions {
			out.Subscriptions[i] = slices.Clone(tab)
			if out.Subscriptions[i] == nil {
				out.Subscriptions[i] = []string{}
			}
		}
	}
	return out
}

// TabCount returns the number of tabs, taking the longer of the two
// index-aligned slices.
func (s Settings) TabCount() int {
	return max(len(s.TabNames), len(s.Subscriptions))
}

// Toggle flips the boolean setting stored under key.
func (s Settings) Toggle(key string) (Settings, error) {
	out := s.Clone()
	switch key {
	case KeyHideOffline:
		out.HideOffline = !out.HideOffline
	case KeyHidePreviews:
		out.HidePreviews = !out.HidePreviews
	case KeyHideStreamersOnlineCount:
		out.HideStreamersOnlineCount = !out.HideStreamersOnlineCount
	default:
		return s, fmt.Errorf("%q is not a boolean setting", key)
	}
	return out, nil
}

// Patch is a partial settings write. Nil fields are left unchanged.
type Patch struct {
	HideOffline              *bool
	HidePreviews             *bool
	HideStreamersOnlineCount *bool
	TabNames                 []string
	Subscriptions            [][]string
}

// Empty reports whether the patch writes nothing.
func (p Patch) Empty() bool {
	return p.HideOffline == nil && p.HidePreviews == nil && p.HideStreamersOnlineCount == nil &&
		p.TabNames == nil && p.Subscriptions == nil
}

// Bool returns a pointer to b, for building patches.
func Bool(b bool) *bool {
	return &b
}

// Diff returns the patch that turns prev into next, listing only changed keys.
func Diff(prev, next Settings) Patch {
	var p Patch
	if prev.HideOffline != next.HideOffline {
		p.HideOffline = Bool(next.HideOffline)
	}
	if prev.HidePreviews != next.HidePreviews {
		p.HidePreviews = Bool(next.HidePreviews)
	}
	if prev.HideStreamersOnlineCount != next.HideStreamersOnlineCount {
		p.HideStreamersOnlineCount = Bool(next.HideStreamersOnlineCount)
	}
	if !slices.Equal(prev.TabNames, next.TabNames) {
		p.TabNames = nonNil(next.TabNames)
	}
	if !slices.EqualFunc(prev.Subscriptions, next.Subscriptions, slices.Equal[[]string]) {
		p.Subscriptions = next.Clone().Subscriptions
		if p.Subscriptions == nil {
			p.Subscriptions = [][]string{}
		}
	}
	return p
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
