package keys

import (
	"github.com/gdamore/tcell/v2"
)

// Action represents a keybinding action.
type Action struct {
	Name        string
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func()
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds keybindings by scope, in registration order.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		views: make(map[string][]*Action),
	}
}

// Rune builds an action bound to a printable key.
func Rune(name string, r rune, description string, handler func()) *Action {
	return &Action{Name: name, Key: tcell.KeyRune, Rune: r, Description: description, Handler: handler}
}

// Key builds an action bound to a special key.
func Key(name string, k tcell.Key, description string, handler func()) *Action {
	return &Action{Name: name, Key: k, Description: description, Handler: handler}
}

// AddGlobal registers a binding active on every page. A binding with the
// same name replaces the earlier one.
func (r *Registry) AddGlobal(a *Action) {
	r.global = upsert(r.global, a)
}

// AddView registers a binding active on one page.
func (r *Registry) AddView(view string, a *Action) {
	r.views[view] = upsert(r.views[view], a)
}

func upsert(actions []*Action, a *Action) []*Action {
	for i, existing := range actions {
		if existing.Name == a.Name {
			actions[i] = a
			return actions
		}
	}
	return append(actions, a)
}

// HandleEvent dispatches a key event to the first matching action, view
// bindings first. Returns true if a handler ran.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, scope := range [][]*Action{r.views[view], r.global} {
		for _, a := range scope {
			if a.Matches(ev) {
				if a.Handler != nil {
					a.Handler()
				}
				return true
			}
		}
	}
	return false
}

// Bindings returns the actions that apply on view, view bindings first.
func (r *Registry) Bindings(view string) []*Action {
	out := make([]*Action, 0, len(r.views[view])+len(r.global))
	out = append(out, r.views[view]...)
	return append(out, r.global...)
}
