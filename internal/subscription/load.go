package subscription

import (
	"context"
	"fmt"

	"github.com/matheus3301/streamtabs/internal/settings"
)

// Load is the single load boundary for settings: it reads the document,
// upgrades the legacy shape at most once and persists the upgrade, then
// decodes with defaults and pads tab slots.
func Load(ctx context.Context, st settings.Store) (settings.Settings, error) {
	d, err := st.Load(ctx)
	if err != nil {
		return settings.Defaults(), err
	}

	if upgraded, changed := MigrateLegacyShape(d); changed {
		subs, err := settings.DecodeSubscriptions(upgraded.Subscriptions)
		if err != nil {
			return settings.Defaults(), err
		}
		if err := st.Save(ctx, settings.Patch{
			TabNames:      upgraded.TabNames,
			Subscriptions: subs,
		}); err != nil {
			return settings.Defaults(), fmt.Errorf("persist upgraded subscriptions: %w", err)
		}
		d = upgraded
	}

	s, err := d.Decode()
	if err != nil {
		return settings.Defaults(), err
	}
	return Pad(s), nil
}

// Update loads the current settings, applies fn, and persists only the keys
// fn changed. It returns the settings after the update.
func Update(ctx context.Context, st settings.Store, fn func(settings.Settings) (settings.Settings, error)) (settings.Settings, error) {
	prev, err := Load(ctx, st)
	if err != nil {
		return prev, err
	}
	next, err := fn(prev)
	if err != nil {
		return prev, err
	}
	if err := st.Save(ctx, settings.Diff(prev, next)); err != nil {
		return prev, err
	}
	return next, nil
}
