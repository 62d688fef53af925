package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func runeEvent(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestHandleEventPrefersViewBindings(t *testing.T) {
	r := NewRegistry()
	var got []string
	r.AddGlobal(Rune("quit", 'q', "quit", func() { got = append(got, "global-q") }))
	r.AddGlobal(Rune("help", '?', "help", func() { got = append(got, "help") }))
	r.AddView("details", Rune("close", 'q', "close", func() { got = append(got, "details-q") }))

	if !r.HandleEvent("streams", runeEvent('q')) {
		t.Fatal("q not handled on streams")
	}
	if !r.HandleEvent("details", runeEvent('q')) {
		t.Fatal("q not handled on details")
	}
	if !r.HandleEvent("details", runeEvent('?')) {
		t.Fatal("global ? not handled on details")
	}
	if r.HandleEvent("streams", runeEvent('z')) {
		t.Error("unbound key reported as handled")
	}

	want := []string{"global-q", "details-q", "help"}
	if len(got) != len(want) {
		t.Fatalf("handlers ran %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("handler %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSpecialKeys(t *testing.T) {
	r := NewRegistry()
	ran := false
	r.AddView("streams", Key("open", tcell.KeyEnter, "open", func() { ran = true }))

	if r.HandleEvent("streams", runeEvent('o')) {
		t.Error("rune event matched a special-key binding")
	}
	if !r.HandleEvent("streams", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)) || !ran {
		t.Error("Enter not dispatched")
	}
}

func TestAddReplacesByName(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(Rune("refresh", 'r', "old", nil))
	r.AddGlobal(Rune("refresh", 'R', "new", nil))
	r.AddView("streams", Rune("add", 'a', "add", nil))

	b := r.Bindings("streams")
	if len(b) != 2 {
		t.Fatalf("Bindings = %d actions, want 2", len(b))
	}
	if b[0].Name != "add" || b[1].Rune != 'R' {
		t.Errorf("Bindings order = %q %q(%c)", b[0].Name, b[1].Name, b[1].Rune)
	}
	if !r.HandleEvent("streams", runeEvent('R')) || r.HandleEvent("streams", runeEvent('r')) {
		t.Error("replaced binding still active")
	}
}
