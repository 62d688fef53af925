package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"q", Command{Name: "quit"}},
		{"  add   Shroud ", Command{Name: "add", Args: "Shroud"}},
		{"RM lirik", Command{Name: "remove", Args: "lirik"}},
		{"tab Speed runs", Command{Name: "tab", Args: "Speed runs"}},
		{"export", Command{Name: "export"}},
		{"import /tmp/x.json", Command{Name: "import", Args: "/tmp/x.json"}},
		{"clear", Command{Name: "remove-all"}},
		{"goto 2", Command{Name: "goto", Args: "2"}},
		{"bogus arg", Command{Name: "bogus", Args: "arg"}},
		{"", Command{}},
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.in); got != tt.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
