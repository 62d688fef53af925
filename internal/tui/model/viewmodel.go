package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matheus3301/streamtabs/internal/bus"
	"github.com/matheus3301/streamtabs/internal/reconcile"
	"github.com/matheus3301/streamtabs/internal/render"
	"github.com/matheus3301/streamtabs/internal/settings"
	"github.com/matheus3301/streamtabs/internal/subscription"
)

// ViewModel holds popup-local state (active tab) on top of the reconciler
// and signals UI refreshes whenever a cycle changes state.
type ViewModel struct {
	mu sync.RWMutex

	rec    *reconcile.Reconciler
	store  settings.Store
	bus    *bus.Bus
	active int

	refreshCh chan struct{}
}

// NewViewModel creates a view model over rec. st is the same store rec
// reads, used for exports.
func NewViewModel(rec *reconcile.Reconciler, st settings.Store, b *bus.Bus) *ViewModel {
	return &ViewModel{
		rec:       rec,
		store:     st,
		bus:       b,
		refreshCh: make(chan struct{}, 1),
	}
}

// Start forwards reconcile events to RefreshCh until ctx is done.
func (vm *ViewModel) Start(ctx context.Context) {
	if vm.bus == nil {
		return
	}
	events, unsub := vm.bus.Subscribe(bus.NamespaceReconcile, 16)
	go func() {
		defer unsub()
		for {
			select {
			case <-events:
				vm.signalRefresh()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// Snapshot returns the reconciler's latest snapshot.
func (vm *ViewModel) Snapshot() reconcile.Snapshot {
	return vm.rec.Snapshot()
}

// View projects the latest snapshot for the active tab.
func (vm *ViewModel) View(now time.Time) render.View {
	return render.Project(vm.rec.Snapshot().Frame(vm.ActiveTab()), now)
}

// ActiveTab returns the selected tab index.
func (vm *ViewModel) ActiveTab() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.active
}

// ActiveTabName returns the label of the selected tab.
func (vm *ViewModel) ActiveTabName() string {
	names := vm.rec.Snapshot().Settings.TabNames
	i := vm.ActiveTab()
	if i < len(names) {
		return names[i]
	}
	return ""
}

// SetActiveTab selects tab i. It returns false when i is out of range.
func (vm *ViewModel) SetActiveTab(i int) bool {
	n := vm.rec.Snapshot().Settings.TabCount()
	if i < 0 || i >= n {
		return false
	}
	vm.mu.Lock()
	vm.active = i
	vm.mu.Unlock()
	vm.signalRefresh()
	return true
}

// CycleTab moves the selection by delta, wrapping around.
func (vm *ViewModel) CycleTab(delta int) {
	n := vm.rec.Snapshot().Settings.TabCount()
	if n == 0 {
		return
	}
	vm.mu.Lock()
	vm.active = ((vm.active+delta)%n + n) % n
	vm.mu.Unlock()
	vm.signalRefresh()
}

// Refresh starts a new fetch cycle without waiting for it.
func (vm *ViewModel) Refresh() {
	vm.rec.Trigger()
}

// Add subscribes username in the active tab. It returns false when the
// username was already there.
func (vm *ViewModel) Add(ctx context.Context, username string) (bool, error) {
	tab := vm.ActiveTab()
	added := false
	_, err := vm.rec.Update(ctx, func(s settings.Settings) (settings.Settings, error) {
		next, ok, err := subscription.AddToTab(s, tab, username)
		added = ok
		return next, err
	})
	return added, err
}

// Remove drops username from the active tab.
func (vm *ViewModel) Remove(ctx context.Context, username string) error {
	tab := vm.ActiveTab()
	_, err := vm.rec.Update(ctx, func(s settings.Settings) (settings.Settings, error) {
		next, _ := subscription.RemoveFromTab(s, tab, username)
		return next, nil
	})
	return err
}

// RemoveAll clears every tab.
func (vm *ViewModel) RemoveAll(ctx context.Context) error {
	_, err := vm.rec.Update(ctx, func(s settings.Settings) (settings.Settings, error) {
		next, _ := subscription.RemoveAll(s)
		return next, nil
	})
	return err
}

// CreateTab appends a tab and returns its index. The selection does not move.
func (vm *ViewModel) CreateTab(ctx context.Context, name string) (int, error) {
	index := -1
	_, err := vm.rec.Update(ctx, func(s settings.Settings) (settings.Settings, error) {
		next, i := subscription.CreateTab(s, name)
		index = i
		return next, nil
	})
	return index, err
}

// RenameTab renames the active tab.
func (vm *ViewModel) RenameTab(ctx context.Context, name string) error {
	tab := vm.ActiveTab()
	_, err := vm.rec.Update(ctx, func(s settings.Settings) (settings.Settings, error) {
		return subscription.RenameTab(s, tab, name)
	})
	return err
}

// Toggle flips one of the boolean settings and returns its new value.
func (vm *ViewModel) Toggle(ctx context.Context, key string) (bool, error) {
	next, err := vm.rec.Update(ctx, func(s settings.Settings) (settings.Settings, error) {
		return s.Toggle(key)
	})
	if err != nil {
		return false, err
	}
	switch key {
	case settings.KeyHideOffline:
		return next.HideOffline, nil
	case settings.KeyHidePreviews:
		return next.HidePreviews, nil
	default:
		return next.HideStreamersOnlineCount, nil
	}
}

// Export writes the persisted settings to path. An empty path or a
// directory gets the default export file name. It returns the written path.
func (vm *ViewModel) Export(ctx context.Context, path string) (string, error) {
	path = ExportPath(path)
	s, err := subscription.Load(ctx, vm.store)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := settings.Export(f, s); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}

// Import replaces all settings with the document at path and selects the
// first tab. A malformed document leaves settings untouched.
func (vm *ViewModel) Import(ctx context.Context, path string) error {
	f, err := os.Open(ExportPath(path))
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer func() { _ = f.Close() }()

	d, err := settings.Import(f)
	if err != nil {
		return err
	}
	if err := vm.rec.Import(ctx, d); err != nil {
		return err
	}
	vm.mu.Lock()
	vm.active = 0
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// ExportPath resolves the file used by export and import.
func ExportPath(path string) string {
	if path == "" {
		return settings.ExportFileName
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, settings.ExportFileName)
	}
	return path
}
