package settings

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// Export writes s as an indented JSON document.
func Export(w io.Writer, s Settings) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromSettings(s)); err != nil {
		return fmt.Errorf("export settings: %w", err)
	}
	return nil
}

// Import parses a settings document previously written by Export, or by
// older versions that stored subscriptions under twitchStreams. Any parse or
// shape failure wraps ErrMalformedDocument.
func Import(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read settings document: %w", err)
	}

	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	if raw := d.RawSubscriptions(); raw != nil {
		if _, err := DecodeSubscriptions(raw); err != nil && !errors.Is(err, ErrLegacyShape) {
			return Document{}, err
		}
		d.Subscriptions = raw
	}
	d.LegacySubscriptions = nil
	return d, nil
}
