package subscription

import (
	"github.com/goccy/go-json"
	"github.com/matheus3301/streamtabs/internal/settings"
)

// MigrateLegacyShape upgrades a document whose subscriptions are a flat list
// of usernames into a single tab named Main. Documents already in the
// list-of-lists shape, or with no subscriptions, are returned unchanged with
// false. Applying it twice is a no-op.
func MigrateLegacyShape(d settings.Document) (settings.Document, bool) {
	raw := d.RawSubscriptions()
	if raw == nil {
		return d, false
	}
	if _, err := settings.DecodeSubscriptions(raw); err == nil {
		return d, false
	}
	flat, err := settings.DecodeFlatSubscriptions(raw)
	if err != nil {
		// Not an upgradable shape; Decode reports the error.
		return d, false
	}
	if flat == nil {
		flat = []string{}
	}

	upgraded, err := json.Marshal([][]string{flat})
	if err != nil {
		return d, false
	}
	out := d
	out.Subscriptions = upgraded
	out.LegacySubscriptions = nil
	if len(out.TabNames) == 0 {
		out.TabNames = []string{settings.DefaultTabName}
	}
	return out, true
}
