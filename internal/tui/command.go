package tui

import "strings"

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

var commandAliases = map[string]string{
	"q":         "quit",
	"quit":      "quit",
	"a":         "add",
	"add":       "add",
	"rm":        "remove",
	"del":       "remove",
	"remove":    "remove",
	"removeall": "remove-all",
	"clear":     "remove-all",
	"t":         "tab",
	"tab":       "tab",
	"newtab":    "tab",
	"rename":    "rename",
	"export":    "export",
	"import":    "import",
	"r":         "refresh",
	"refresh":   "refresh",
	"h":         "help",
	"help":      "help",
	"tabs":      "goto",
	"goto":      "goto",
}

// ParseCommand parses a command string (without the leading ':'). Known
// aliases are folded into their canonical name.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if canonical, ok := commandAliases[cmd.Name]; ok {
		cmd.Name = canonical
	}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}
