package store

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 2 {
		t.Errorf("version = %d, want 2 (settings + settings_log)", result.Version)
	}

	version, dirty, err := db.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != 2 || dirty {
		t.Errorf("SchemaVersion() = %d, %v, want 2, false", version, dirty)
	}
}

func TestSaveSettingsMergesKeys(t *testing.T) {
	db := testDB(t)

	if err := db.SaveSettings(map[string][]byte{
		"hideOffline": []byte("true"),
		"tabNames":    []byte(`["Main"]`),
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveSettings(map[string][]byte{
		"tabNames": []byte(`["Main","Speedruns"]`),
	}); err != nil {
		t.Fatal(err)
	}

	values, err := db.LoadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if got := string(values["hideOffline"]); got != "true" {
		t.Errorf("hideOffline = %q, want true (untouched by second save)", got)
	}
	if got := string(values["tabNames"]); got != `["Main","Speedruns"]` {
		t.Errorf("tabNames = %q, want overwritten value", got)
	}
}

func TestSaveSettingsEmptyIsNoop(t *testing.T) {
	db := testDB(t)

	if err := db.SaveSettings(nil); err != nil {
		t.Fatal(err)
	}
	info, err := db.LastSettingsWrite()
	if err != nil {
		t.Fatal(err)
	}
	if info != nil {
		t.Errorf("LastSettingsWrite() = %+v, want nil after empty save", info)
	}
}

func TestReplaceSettingsDropsOldKeys(t *testing.T) {
	db := testDB(t)

	if err := db.SaveSettings(map[string][]byte{
		"hidePreviews":  []byte("true"),
		"subscriptions": []byte(`[["a"]]`),
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceSettings(map[string][]byte{
		"subscriptions": []byte(`[["b"]]`),
	}); err != nil {
		t.Fatal(err)
	}

	values, err := db.LoadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := values["hidePreviews"]; ok {
		t.Error("hidePreviews should be gone after replace")
	}
	if got := string(values["subscriptions"]); got != `[["b"]]` {
		t.Errorf("subscriptions = %q, want [[\"b\"]]", got)
	}

	info, err := db.LastSettingsWrite()
	if err != nil {
		t.Fatal(err)
	}
	if info == nil || info.Op != "replace" {
		t.Fatalf("last write = %+v, want replace", info)
	}
	if len(info.Keys) != 1 || info.Keys[0] != "subscriptions" {
		t.Errorf("keys = %v, want [subscriptions]", info.Keys)
	}
}

func TestSettingsSharedAcrossConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")

	first, _, err := OpenMigrated(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = first.Close() }()
	second, _, err := OpenMigrated(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = second.Close() }()

	if err := first.SaveSettings(map[string][]byte{"hideOffline": []byte("true")}); err != nil {
		t.Fatal(err)
	}
	if err := second.SaveSettings(map[string][]byte{"hideOffline": []byte("false")}); err != nil {
		t.Fatal(err)
	}

	values, err := first.LoadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if got := string(values["hideOffline"]); got != "false" {
		t.Errorf("hideOffline = %q, want false (last write wins)", got)
	}
}
