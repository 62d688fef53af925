package ui

import (
	"testing"

	"github.com/rivo/tview"
)

func TestPagesStack(t *testing.T) {
	p := NewPages()
	var changes []string
	p.SetOnChange(func(current string) { changes = append(changes, current) })

	p.Register("streams", tview.NewBox())
	p.Register("details", tview.NewBox())
	p.Register("help", tview.NewBox())

	p.Push("streams")
	p.Push("details")
	p.Push("details")
	p.Push("help")

	if p.Depth() != 3 || p.Current() != "help" {
		t.Fatalf("depth %d current %q, want 3 help", p.Depth(), p.Current())
	}
	if !p.Back() || p.Current() != "details" {
		t.Errorf("after Back current = %q", p.Current())
	}
	if !p.Back() || p.Current() != "streams" {
		t.Errorf("after second Back current = %q", p.Current())
	}
	if p.Back() {
		t.Error("Back popped the root page")
	}

	want := []string{"streams", "details", "help", "details", "streams"}
	if len(changes) != len(want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("changes[%d] = %q, want %q", i, changes[i], want[i])
		}
	}
}
