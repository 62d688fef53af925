package stream

import "time"

// Channel carries the metadata the resolver reports for a live stream.
type Channel struct {
	DisplayName string    `json:"displayName"`
	Title       string    `json:"title"`
	Game        string    `json:"game"`
	ViewerCount int       `json:"viewerCount"`
	LiveSince   time.Time `json:"liveSince"`
}

// Status is one resolver result. A nil Channel is the offline variant.
type Status struct {
	Username string   `json:"username"`
	Channel  *Channel `json:"channel,omitempty"`
}

// Offline returns the offline variant for username.
func Offline(username string) Status {
	return Status{Username: username}
}

// Live reports whether s is the live variant.
func (s Status) Live() bool {
	return s.Channel != nil
}

// Tab is the reconciled view of one subscription tab. It is derived on every
// reconcile pass and never persisted.
type Tab struct {
	Index   int
	Name    string
	Streams []Status
}

// LiveCount returns the number of live entries in the tab.
func (t Tab) LiveCount() int {
	n := 0
	for _, s := range t.Streams {
		if s.Live() {
			n++
		}
	}
	return n
}
