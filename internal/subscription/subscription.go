// Package subscription implements the tab → usernames model: normalization,
// copy-on-write mutations, the legacy-shape upgrade, and the union request.
package subscription

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matheus3301/streamtabs/internal/settings"
)

var (
	ErrEmptyUsername = errors.New("username is empty")
	ErrTabOutOfRange = errors.New("tab index out of range")
)

// Normalize folds a username into its lookup key. Stored usernames keep
// their original case.
func Normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Contains reports whether tab holds username, ignoring case.
func Contains(tab []string, username string) bool {
	return indexOf(tab, username) >= 0
}

func indexOf(tab []string, username string) int {
	key := Normalize(username)
	return slices.IndexFunc(tab, func(u string) bool { return Normalize(u) == key })
}

// AddToTab appends rawUsername (trimmed, original case) to tab tabIndex.
// Subscriptions are padded with empty tabs up to tabIndex. It returns false
// when the username is already present in that tab.
func AddToTab(s settings.Settings, tabIndex int, rawUsername string) (settings.Settings, bool, error) {
	username := strings.TrimSpace(rawUsername)
	if username == "" {
		return s, false, ErrEmptyUsername
	}
	if tabIndex < 0 {
		return s, false, fmt.Errorf("%w: %d", ErrTabOutOfRange, tabIndex)
	}

	out := s.Clone()
	for len(out.Subscriptions) <= tabIndex {
		out.Subscriptions = append(out.Subscriptions, []string{})
	}
	if Contains(out.Subscriptions[tabIndex], username) {
		return s, false, nil
	}
	out.Subscriptions[tabIndex] = append(out.Subscriptions[tabIndex], username)
	return out, true, nil
}

// RemoveFromTab removes the first case-insensitive match of username from
// tab tabIndex. Removing an absent username is a no-op.
func RemoveFromTab(s settings.Settings, tabIndex int, username string) (settings.Settings, bool) {
	if tabIndex < 0 || tabIndex >= len(s.Subscriptions) {
		return s, false
	}
	i := indexOf(s.Subscriptions[tabIndex], username)
	if i < 0 {
		return s, false
	}
	out := s.Clone()
	out.Subscriptions[tabIndex] = slices.Delete(out.Subscriptions[tabIndex], i, i+1)
	return out, true
}

// RemoveAll empties every tab. Tabs themselves are kept.
func RemoveAll(s settings.Settings) (settings.Settings, bool) {
	out := Pad(s)
	changed := false
	for i := range out.Subscriptions {
		if len(out.Subscriptions[i]) > 0 {
			changed = true
		}
		out.Subscriptions[i] = []string{}
	}
	if !changed {
		return s, false
	}
	return out, true
}

// CreateTab appends a tab named name and returns its index. A blank name is
// replaced with a generated one.
func CreateTab(s settings.Settings, name string) (settings.Settings, int) {
	out := Pad(s)
	index := len(out.TabNames)
	name = strings.TrimSpace(name)
	if name == "" {
		name = generatedTabName(index)
	}
	out.TabNames = append(out.TabNames, name)
	out.Subscriptions = append(out.Subscriptions, []string{})
	return out, index
}

// RenameTab changes the label of tab tabIndex.
func RenameTab(s settings.Settings, tabIndex int, name string) (settings.Settings, error) {
	out := Pad(s)
	if tabIndex < 0 || tabIndex >= len(out.TabNames) {
		return s, fmt.Errorf("%w: %d", ErrTabOutOfRange, tabIndex)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return s, errors.New("tab name is empty")
	}
	out.TabNames[tabIndex] = name
	return out, nil
}

// Pad restores len(Subscriptions) == len(TabNames): missing subscription
// slots become empty tabs, surplus slots get generated names, and an empty
// tab list becomes the single default tab.
func Pad(s settings.Settings) settings.Settings {
	out := s.Clone()
	if len(out.TabNames) == 0 && len(out.Subscriptions) == 0 {
		return settings.Defaults()
	}
	for len(out.Subscriptions) < len(out.TabNames) {
		out.Subscriptions = append(out.Subscriptions, []string{})
	}
	for len(out.TabNames) < len(out.Subscriptions) {
		if len(out.TabNames) == 0 {
			out.TabNames = append(out.TabNames, settings.DefaultTabName)
			continue
		}
		out.TabNames = append(out.TabNames, generatedTabName(len(out.TabNames)))
	}
	return out
}

func generatedTabName(index int) string {
	return fmt.Sprintf("Tab %d", index+1)
}

// UnionUsernames returns every subscribed username across all tabs,
// normalized and deduplicated, in first-seen order. This is the resolver
// request payload.
func UnionUsernames(s settings.Settings) []string {
	seen := make(map[string]struct{})
	var union []string
	for _, tab := range s.Subscriptions {
		for _, u := range tab {
			key := Normalize(u)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			union = append(union, key)
		}
	}
	return union
}
