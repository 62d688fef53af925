package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/streamtabs/internal/bus"
	"github.com/matheus3301/streamtabs/internal/render"
	"github.com/matheus3301/streamtabs/internal/settings"
	"github.com/matheus3301/streamtabs/internal/stream"
	"github.com/matheus3301/streamtabs/internal/subscription"
	"go.uber.org/zap"
)

// ErrResolver wraps every failure returned by the status resolver.
var ErrResolver = errors.New("status resolver failed")

// Resolver returns the current status of each requested username.
type Resolver interface {
	FetchStreamerStatus(ctx context.Context, usernames []string) ([]stream.Status, error)
}

// BadgeUpdater receives the aggregate online count.
type BadgeUpdater interface {
	// SetBadgeText enables (true) or clears and disables (false) the badge.
	SetBadgeText(ctx context.Context, show bool) error
	SetBadgeCount(ctx context.Context, count int) error
}

// Snapshot is the reconciler's view after the latest transition.
type Snapshot struct {
	State    State
	Settings settings.Settings
	// Fetched is true when the last completed cycle got a resolver response.
	Fetched  bool
	Response []stream.Status
	Tabs     []stream.Tab
	Err      error
	CycleID  string
	At       time.Time
}

// Frame adapts the snapshot for the render projector.
func (s Snapshot) Frame(activeTab int) render.Frame {
	return render.Frame{
		Idle:         s.State == Idle,
		Loading:      s.State == Loading,
		Fetched:      s.Fetched,
		Err:          s.Err,
		Tabs:         s.Tabs,
		TabNames:     s.Settings.TabNames,
		ActiveTab:    activeTab,
		HideOffline:  s.Settings.HideOffline,
		HidePreviews: s.Settings.HidePreviews,
	}
}

// Reconciler runs fetch cycles: load settings, request the union of all
// tabs from the resolver, partition the response per tab and signal the
// badge. At most one resolver call is outstanding. A trigger arriving while
// a cycle runs sets a single pending slot, and one follow-up cycle with
// fresh settings runs after the current one.
type Reconciler struct {
	store    settings.Store
	resolver Resolver
	badge    BadgeUpdater
	machine  *Machine
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	pending bool
	done    chan struct{}
	snap    Snapshot
}

// New creates a reconciler. badge and b may be nil.
func New(st settings.Store, resolver Resolver, badge BadgeUpdater, b *bus.Bus, logger *zap.Logger) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	close(done)
	return &Reconciler{
		store:    st,
		resolver: resolver,
		badge:    badge,
		machine:  NewMachine(b),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		done:     done,
		snap:     Snapshot{State: Idle, Settings: settings.Defaults()},
	}
}

// Close stops any running cycle. Triggers after Close are ignored.
func (r *Reconciler) Close() {
	r.cancel()
}

// State returns the current machine state.
func (r *Reconciler) State() State {
	return r.machine.Current()
}

// Snapshot returns the latest reconciled view.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.snap
	s.Settings = s.Settings.Clone()
	return s
}

// Trigger starts a cycle, or marks one pending if a cycle is running. It
// never blocks.
func (r *Reconciler) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx.Err() != nil {
		return
	}
	if r.running {
		r.pending = true
		return
	}
	r.running = true
	r.done = make(chan struct{})
	go r.run()
}

// Wait blocks until no cycle is running or pending.
func (r *Reconciler) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh triggers a cycle and waits for it to settle.
func (r *Reconciler) Refresh(ctx context.Context) (Snapshot, error) {
	r.Trigger()
	if err := r.Wait(ctx); err != nil {
		return r.Snapshot(), err
	}
	return r.Snapshot(), nil
}

// Update applies fn to the current settings, persists the changed keys and
// triggers a re-fetch.
func (r *Reconciler) Update(ctx context.Context, fn func(settings.Settings) (settings.Settings, error)) (settings.Settings, error) {
	next, err := subscription.Update(ctx, r.store, fn)
	if err != nil {
		return next, err
	}
	r.Trigger()
	return next, nil
}

// Import replaces the persisted settings wholesale and triggers a re-fetch.
func (r *Reconciler) Import(ctx context.Context, d settings.Document) error {
	if err := r.store.Replace(ctx, d); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	r.Trigger()
	return nil
}

func (r *Reconciler) run() {
	for {
		r.cycle(r.ctx)

		r.mu.Lock()
		if !r.pending || r.ctx.Err() != nil {
			r.pending = false
			r.running = false
			close(r.done)
			r.mu.Unlock()
			return
		}
		r.pending = false
		r.mu.Unlock()
	}
}

func (r *Reconciler) cycle(ctx context.Context) {
	id := uuid.NewString()
	log := r.logger.With(zap.String("cycle_id", id))

	s, err := subscription.Load(ctx, r.store)
	if err != nil {
		log.Warn("load settings failed, using defaults", zap.Error(err))
	}
	union := subscription.UnionUsernames(s)

	if len(union) == 0 {
		tabs := Partition(s, nil)
		r.settle(Snapshot{Settings: s, Tabs: tabs, CycleID: id}, log)
		r.signalBadge(ctx, s, tabs, log)
		log.Debug("reconcile skipped resolver, no subscriptions")
		return
	}

	r.mu.Lock()
	r.snap.Settings = s
	r.snap.CycleID = id
	r.mu.Unlock()
	r.transition(Loading, log)

	start := time.Now()
	resp, err := r.resolver.FetchStreamerStatus(ctx, union)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrResolver, err)
		r.settle(Snapshot{Settings: s, Tabs: Partition(s, nil), Err: err, CycleID: id}, log)
		log.Warn("reconcile failed",
			zap.Int("usernames", len(union)),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
		return
	}

	tabs := Partition(s, resp)
	r.settle(Snapshot{Settings: s, Fetched: true, Response: resp, Tabs: tabs, CycleID: id}, log)
	r.signalBadge(ctx, s, tabs, log)
	log.Info("reconcile resolved",
		zap.Int("usernames", len(union)),
		zap.Int("online", render.OnlineCount(tabs)),
		zap.Duration("took", time.Since(start)),
	)
}

func (r *Reconciler) settle(s Snapshot, log *zap.Logger) {
	s.State = Resolved
	s.At = time.Now()
	r.mu.Lock()
	r.snap = s
	r.mu.Unlock()
	r.transition(Resolved, log)
}

func (r *Reconciler) transition(to State, log *zap.Logger) {
	if err := r.machine.Transition(to); err != nil {
		log.Error("reconcile state", zap.Error(err))
	}
	r.mu.Lock()
	r.snap.State = r.machine.Current()
	r.mu.Unlock()
}

func (r *Reconciler) signalBadge(ctx context.Context, s settings.Settings, tabs []stream.Tab, log *zap.Logger) {
	if r.badge == nil {
		return
	}
	if s.HideStreamersOnlineCount {
		if err := r.badge.SetBadgeText(ctx, false); err != nil {
			log.Warn("clear badge failed", zap.Error(err))
		}
		return
	}
	if err := r.badge.SetBadgeText(ctx, true); err != nil {
		log.Warn("enable badge failed", zap.Error(err))
		return
	}
	if err := r.badge.SetBadgeCount(ctx, render.OnlineCount(tabs)); err != nil {
		log.Warn("set badge count failed", zap.Error(err))
	}
}
