package reconcile

import (
	"testing"

	"github.com/matheus3301/streamtabs/internal/settings"
	"github.com/matheus3301/streamtabs/internal/stream"
)

func TestPartitionCaseInsensitiveNoCrossTabDedup(t *testing.T) {
	s := settings.Settings{
		TabNames:      []string{"Main", "Other"},
		Subscriptions: [][]string{{"Foo", "bar"}, {"FOO"}},
	}
	resp := []stream.Status{
		{Username: "foo", Channel: &stream.Channel{ViewerCount: 3}},
		stream.Offline("bar"),
		stream.Offline("stranger"),
	}

	tabs := Partition(s, resp)
	if len(tabs) != 2 {
		t.Fatalf("tabs = %d, want 2", len(tabs))
	}
	if len(tabs[0].Streams) != 2 || tabs[0].Name != "Main" {
		t.Errorf("tab 0 = %+v", tabs[0])
	}
	if len(tabs[1].Streams) != 1 || tabs[1].Streams[0].Username != "foo" || tabs[1].Index != 1 {
		t.Errorf("tab 1 = %+v", tabs[1])
	}
}

func TestPartitionPadsMissingSlots(t *testing.T) {
	s := settings.Settings{
		TabNames:      []string{"Main", "Later"},
		Subscriptions: [][]string{{"a"}},
	}
	tabs := Partition(s, []stream.Status{stream.Offline("a")})
	if len(tabs) != 2 {
		t.Fatalf("tabs = %d, want 2", len(tabs))
	}
	if tabs[1].Name != "Later" || len(tabs[1].Streams) != 0 {
		t.Errorf("padded tab = %+v", tabs[1])
	}
}

func TestPartitionNilResponse(t *testing.T) {
	tabs := Partition(settings.Defaults(), nil)
	if len(tabs) != 1 || tabs[0].Name != settings.DefaultTabName || tabs[0].Streams != nil {
		t.Errorf("tabs = %+v", tabs)
	}
}
