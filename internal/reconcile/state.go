package reconcile

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/streamtabs/internal/bus"
)

// State is the reconciler's position in a fetch cycle.
type State string

const (
	Idle     State = "IDLE"
	Loading  State = "LOADING"
	Resolved State = "RESOLVED"
)

// EventStateChanged is published on every transition.
const EventStateChanged = bus.NamespaceReconcile + "state_changed"

// validTransitions defines allowed state transitions. Resolved -> Resolved
// is a cycle whose union was empty.
var validTransitions = map[State][]State{
	Idle:     {Loading, Resolved},
	Loading:  {Resolved},
	Resolved: {Loading, Resolved},
}

// Machine tracks and enforces reconciler state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Idle state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Idle,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Emit(EventStateChanged, StateChange{From: from, To: to})
	}
	return nil
}

// StateChange is the payload for state change events.
type StateChange struct {
	From State
	To   State
}
