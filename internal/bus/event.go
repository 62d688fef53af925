package bus

import "time"

// Event is a domain event. Kind is "<namespace>.<name>", e.g.
// "reconcile.state_changed".
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
