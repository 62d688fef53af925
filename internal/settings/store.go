package settings

import (
	"context"
	"fmt"

	"github.com/matheus3301/streamtabs/internal/store"
)

// Store persists the settings record. Writes are last-write-wins per key;
// no transaction spans a read and a later write.
type Store interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, p Patch) error
	Replace(ctx context.Context, d Document) error
}

// DBStore is the Store backed by the profile's settings.db.
type DBStore struct {
	db *store.DB
}

// NewDBStore creates a store over an open, migrated database.
func NewDBStore(db *store.DB) *DBStore {
	return &DBStore{db: db}
}

// Load reads the raw settings document.
func (s *DBStore) Load(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	values, err := s.db.LoadSettings()
	if err != nil {
		return Document{}, fmt.Errorf("load settings: %w", err)
	}
	return documentFromValues(values)
}

// Save merge-writes the keys set in p.
func (s *DBStore) Save(ctx context.Context, p Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Empty() {
		return nil
	}
	values, err := p.values()
	if err != nil {
		return err
	}
	if err := s.db.SaveSettings(values); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Replace overwrites the whole record with d.
func (s *DBStore) Replace(ctx context.Context, d Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	values, err := d.values()
	if err != nil {
		return err
	}
	if err := s.db.ReplaceSettings(values); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
