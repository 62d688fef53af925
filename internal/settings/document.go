package settings

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var (
	// ErrMalformedDocument is returned when a settings document cannot be
	// parsed or has values of the wrong shape.
	ErrMalformedDocument = errors.New("malformed settings document")

	// ErrLegacyShape is returned by Decode when subscriptions are still the
	// flat single-tab list and need upgrading first.
	ErrLegacyShape = errors.New("subscriptions use the legacy flat shape")
)

// Document is the raw persisted record. Every field is optional and
// subscriptions stay undecoded so the legacy flat shape survives until the
// load boundary upgrades it.
type Document struct {
	HideOffline              *bool           `json:"hideOffline,omitempty"`
	HidePreviews             *bool           `json:"hidePreviews,omitempty"`
	HideStreamersOnlineCount *bool           `json:"hideStreamersOnlineCount,omitempty"`
	TabNames                 []string        `json:"tabNames,omitempty"`
	Subscriptions            json.RawMessage `json:"subscriptions,omitempty"`
	LegacySubscriptions      json.RawMessage `json:"twitchStreams,omitempty"`
}

// FromSettings builds a fully populated document from s.
func FromSettings(s Settings) Document {
	subs, _ := json.Marshal(s.Clone().Subscriptions)
	return Document{
		HideOffline:              Bool(s.HideOffline),
		HidePreviews:             Bool(s.HidePreviews),
		HideStreamersOnlineCount: Bool(s.HideStreamersOnlineCount),
		TabNames:                 nonNil(s.TabNames),
		Subscriptions:            subs,
	}
}

// RawSubscriptions returns the stored subscriptions value, falling back to
// the legacy key. It returns nil when neither is set.
func (d Document) RawSubscriptions() json.RawMessage {
	if !isNull(d.Subscriptions) {
		return d.Subscriptions
	}
	if !isNull(d.LegacySubscriptions) {
		return d.LegacySubscriptions
	}
	return nil
}

// Decode converts the document into Settings, filling defaults for missing
// fields. Subscriptions must already be in the list-of-lists shape.
func (d Document) Decode() (Settings, error) {
	s := Defaults()
	if d.HideOffline != nil {
		s.HideOffline = *d.HideOffline
	}
	if d.HidePreviews != nil {
		s.HidePreviews = *d.HidePreviews
	}
	if d.HideStreamersOnlineCount != nil {
		s.HideStreamersOnlineCount = *d.HideStreamersOnlineCount
	}
	if len(d.TabNames) > 0 {
		s.TabNames = nonNil(d.TabNames)
	}

	raw := d.RawSubscriptions()
	if raw == nil {
		return s, nil
	}
	subs, err := DecodeSubscriptions(raw)
	if err != nil {
		return Settings{}, err
	}
	s.Subscriptions = subs
	return s, nil
}

// DecodeSubscriptions parses a list-of-lists subscriptions value. Null inner
// lists become empty tabs.
func DecodeSubscriptions(raw json.RawMessage) ([][]string, error) {
	var nested [][]string
	if err := json.Unmarshal(raw, &nested); err == nil {
		for i := range nested {
			if nested[i] == nil {
				nested[i] = []string{}
			}
		}
		if nested == nil {
			nested = [][]string{}
		}
		return nested, nil
	}
	if _, err := DecodeFlatSubscriptions(raw); err == nil {
		return nil, ErrLegacyShape
	}
	return nil, fmt.Errorf("%w: subscriptions must be a list of username lists", ErrMalformedDocument)
}

// DecodeFlatSubscriptions parses the legacy single-tab list of usernames.
func DecodeFlatSubscriptions(raw json.RawMessage) ([]string, error) {
	var flat []string
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func documentFromValues(values map[string][]byte) (Document, error) {
	var d Document
	for key, value := range values {
		var err error
		switch key {
		case KeyHideOffline:
			d.HideOffline, err = decodeBool(value)
		case KeyHidePreviews:
			d.HidePreviews, err = decodeBool(value)
		case KeyHideStreamersOnlineCount:
			d.HideStreamersOnlineCount, err = decodeBool(value)
		case KeyTabNames:
			err = json.Unmarshal(value, &d.TabNames)
		case KeySubscriptions:
			d.Subscriptions = json.RawMessage(value)
		case KeyLegacySubscriptions:
			d.LegacySubscriptions = json.RawMessage(value)
		}
		if err != nil {
			return Document{}, fmt.Errorf("%w: key %q: %v", ErrMalformedDocument, key, err)
		}
	}
	return d, nil
}

func decodeBool(value []byte) (*bool, error) {
	var b *bool
	if err := json.Unmarshal(value, &b); err != nil {
		return nil, err
	}
	return b, nil
}

func (d Document) values() (map[string][]byte, error) {
	values := make(map[string][]byte)
	put := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		values[key] = b
		return nil
	}
	if d.HideOffline != nil {
		if err := put(KeyHideOffline, *d.HideOffline); err != nil {
			return nil, err
		}
	}
	if d.HidePreviews != nil {
		if err := put(KeyHidePreviews, *d.HidePreviews); err != nil {
			return nil, err
		}
	}
	if d.HideStreamersOnlineCount != nil {
		if err := put(KeyHideStreamersOnlineCount, *d.HideStreamersOnlineCount); err != nil {
			return nil, err
		}
	}
	if d.TabNames != nil {
		if err := put(KeyTabNames, d.TabNames); err != nil {
			return nil, err
		}
	}
	if raw := d.RawSubscriptions(); raw != nil {
		values[KeySubscriptions] = bytes.TrimSpace(raw)
	}
	return values, nil
}

func (p Patch) values() (map[string][]byte, error) {
	d := Document{
		HideOffline:              p.HideOffline,
		HidePreviews:             p.HidePreviews,
		HideStreamersOnlineCount: p.HideStreamersOnlineCount,
		TabNames:                 p.TabNames,
	}
	if p.Subscriptions != nil {
		raw, err := json.Marshal(p.Subscriptions)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", KeySubscriptions, err)
		}
		d.Subscriptions = raw
	}
	return d.values()
}
