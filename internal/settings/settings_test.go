package settings

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matheus3301/streamtabs/internal/store"
)

func testStore(t *testing.T) *DBStore {
	t.Helper()
	db, _, err := store.OpenMigrated(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewDBStore(db)
}

func TestDecodeEmptyDocumentUsesDefaults(t *testing.T) {
	s, err := Document{}.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if s.HideOffline || s.HidePreviews || s.HideStreamersOnlineCount {
		t.Errorf("flags = %+v, want all false", s)
	}
	if !slices.Equal(s.TabNames, []string{"Main"}) {
		t.Errorf("TabNames = %v, want [Main]", s.TabNames)
	}
	if len(s.Subscriptions) != 1 || len(s.Subscriptions[0]) != 0 {
		t.Errorf("Subscriptions = %v, want [[]]", s.Subscriptions)
	}
}

func TestDecodeLegacyShape(t *testing.T) {
	d := Document{Subscriptions: []byte(`["a","b"]`)}
	if _, err := d.Decode(); !errors.Is(err, ErrLegacyShape) {
		t.Fatalf("Decode() error = %v, want ErrLegacyShape", err)
	}
}

func TestDecodeMalformedSubscriptions(t *testing.T) {
	d := Document{Subscriptions: []byte(`{"a":1}`)}
	if _, err := d.Decode(); !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("Decode() error = %v, want ErrMalformedDocument", err)
	}
}

func TestDecodeNullInnerTab(t *testing.T) {
	d := Document{Subscriptions: []byte(`[["a"],null]`)}
	s, err := d.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Subscriptions) != 2 || s.Subscriptions[1] == nil {
		t.Errorf("Subscriptions = %#v, want second tab empty but non-nil", s.Subscriptions)
	}
}

func TestDiffListsOnlyChangedKeys(t *testing.T) {
	prev := Defaults()
	next := prev.Clone()
	next.HideOffline = true
	next.Subscriptions[0] = append(next.Subscriptions[0], "Foo")

	p := Diff(prev, next)
	if p.HideOffline == nil || !*p.HideOffline {
		t.Errorf("HideOffline = %v, want true", p.HideOffline)
	}
	if p.HidePreviews != nil || p.HideStreamersOnlineCount != nil || p.TabNames != nil {
		t.Errorf("unexpected keys in patch: %+v", p)
	}
	if len(p.Subscriptions) != 1 || !slices.Equal(p.Subscriptions[0], []string{"Foo"}) {
		t.Errorf("Subscriptions = %v, want [[Foo]]", p.Subscriptions)
	}
	if !Diff(next, next).Empty() {
		t.Error("Diff of identical settings should be empty")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := Settings{TabNames: []string{"Main"}, Subscriptions: [][]string{{"a"}}}
	c := s.Clone()
	c.TabNames[0] = "Other"
	c.Subscriptions[0][0] = "b"
	if s.TabNames[0] != "Main" || s.Subscriptions[0][0] != "a" {
		t.Errorf("Clone shares backing arrays: %+v", s)
	}
}

func TestStoreSaveMergesAndLoads(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	if err := st.Save(ctx, Patch{HideOffline: Bool(true), TabNames: []string{"Main", "Chess"}}); err != nil {
		t.Fatal(err)
	}
	if err := st.Save(ctx, Patch{Subscriptions: [][]string{{"Foo"}, {"bar"}}}); err != nil {
		t.Fatal(err)
	}

	d, err := st.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	s, err := d.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if !s.HideOffline {
		t.Error("HideOffline lost after a later partial save")
	}
	if !slices.Equal(s.TabNames, []string{"Main", "Chess"}) {
		t.Errorf("TabNames = %v", s.TabNames)
	}
	if len(s.Subscriptions) != 2 || s.Subscriptions[0][0] != "Foo" {
		t.Errorf("Subscriptions = %v, want [[Foo] [bar]]", s.Subscriptions)
	}
}

func TestStoreReplace(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	if err := st.Save(ctx, Patch{HidePreviews: Bool(true)}); err != nil {
		t.Fatal(err)
	}
	if err := st.Replace(ctx, Document{Subscriptions: []byte(`[["x"]]`)}); err != nil {
		t.Fatal(err)
	}

	d, err := st.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d.HidePreviews != nil {
		t.Errorf("HidePreviews = %v, want unset after replace", *d.HidePreviews)
	}
	if string(d.Subscriptions) != `[["x"]]` {
		t.Errorf("subscriptions = %s", d.Subscriptions)
	}
}

func TestStoreLoadRejectsBadFlag(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	if err := st.db.SaveSettings(map[string][]byte{KeyHideOffline: []byte(`"yes"`)}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Load(ctx); !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("Load() error = %v, want ErrMalformedDocument", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s := Settings{
		HideOffline:   true,
		TabNames:      []string{"Main", "Speedruns"},
		Subscriptions: [][]string{{"Foo"}, {"bar", "Baz"}},
	}

	var buf bytes.Buffer
	if err := Export(&buf, s); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"subscriptions"`) {
		t.Errorf("export missing subscriptions key:\n%s", buf.String())
	}

	d, err := Import(&buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := d.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if !got.HideOffline || got.HidePreviews {
		t.Errorf("flags = %+v", got)
	}
	if !slices.Equal(got.TabNames, s.TabNames) {
		t.Errorf("TabNames = %v, want %v", got.TabNames, s.TabNames)
	}
	if len(got.Subscriptions) != 2 || !slices.Equal(got.Subscriptions[1], []string{"bar", "Baz"}) {
		t.Errorf("Subscriptions = %v", got.Subscriptions)
	}
}

func TestImportLegacyKey(t *testing.T) {
	d, err := Import(strings.NewReader(`{"hideOffline":false,"twitchStreams":["a","b"]}`))
	if err != nil {
		t.Fatal(err)
	}
	if string(d.Subscriptions) != `["a","b"]` {
		t.Errorf("subscriptions = %s, want legacy list moved under subscriptions", d.Subscriptions)
	}
	if d.LegacySubscriptions != nil {
		t.Error("legacy key should be cleared after import")
	}
}

func TestImportMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{"hideOffline":`},
		{"array document", `[1,2,3]`},
		{"wrong flag type", `{"hideOffline":"yes"}`},
		{"wrong subscriptions shape", `{"subscriptions":[1,2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Import(strings.NewReader(tt.in)); !errors.Is(err, ErrMalformedDocument) {
				t.Errorf("Import(%s) error = %v, want ErrMalformedDocument", tt.in, err)
			}
		})
	}
}

func TestToggle(t *testing.T) {
	s := Defaults()
	next, err := s.Toggle(KeyHidePreviews)
	if err != nil {
		t.Fatal(err)
	}
	if !next.HidePreviews || next.HideOffline || next.HideStreamersOnlineCount {
		t.Errorf("after toggle = %+v, want only HidePreviews", next)
	}
	if s.HidePreviews {
		t.Error("Toggle mutated the receiver")
	}
	back, _ := next.Toggle(KeyHidePreviews)
	if back.HidePreviews {
		t.Error("second toggle did not flip back")
	}
	if _, err := s.Toggle(KeyTabNames); err == nil {
		t.Error("expected error toggling a non-boolean key")
	}
}
