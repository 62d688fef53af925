package badge

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/matheus3301/streamtabs/internal/bus"
	"github.com/matheus3301/streamtabs/internal/metrics"
	"go.uber.org/zap"
)

// EventChanged is published whenever the visible badge changes.
const EventChanged = bus.NamespaceBadge + "changed"

// State is the badge as a client would draw it.
type State struct {
	Enabled bool
	Count   int
	Text    string
}

// Text derives the badge label: empty when disabled or when nobody is live.
func Text(enabled bool, count int) string {
	if !enabled || count <= 0 {
		return ""
	}
	return strconv.Itoa(count)
}

// Badge holds the daemon-side badge. It starts enabled with no count.
type Badge struct {
	mu      sync.Mutex
	enabled bool
	count   int

	bus     *bus.Bus
	metrics metrics.Recorder
	logger  *zap.Logger
}

// New creates a badge. b and rec may be nil.
func New(b *bus.Bus, rec metrics.Recorder, logger *zap.Logger) *Badge {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Badge{enabled: true, bus: b, metrics: rec, logger: logger}
}

// SetBadgeText enables the badge, or clears and disables it when show is
// false. A disabled badge ignores counts until re-enabled.
func (b *Badge) SetBadgeText(_ context.Context, show bool) error {
	b.update(func() {
		b.enabled = show
		if !show {
			b.count = 0
		}
	})
	return nil
}

// SetBadgeCount records the aggregate online count.
func (b *Badge) SetBadgeCount(_ context.Context, count int) error {
	if count < 0 {
		return fmt.Errorf("badge count %d is negative", count)
	}
	b.update(func() {
		if b.enabled {
			b.count = count
		}
	})
	return nil
}

// State returns the current badge.
func (b *Badge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state()
}

func (b *Badge) state() State {
	return State{Enabled: b.enabled, Count: b.count, Text: Text(b.enabled, b.count)}
}

func (b *Badge) update(fn func()) {
	b.mu.Lock()
	before := b.state()
	fn()
	after := b.state()
	b.mu.Unlock()

	if before == after {
		return
	}
	b.metrics.SetBadgeCount(after.Count)
	b.logger.Info("badge changed",
		zap.Bool("enabled", after.Enabled),
		zap.Int("count", after.Count),
	)
	if b.bus != nil {
		b.bus.Emit(EventChanged, after)
	}
}
