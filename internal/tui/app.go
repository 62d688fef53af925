// Package tui is the streamtabs popup: a tview shell over a popup-local
// reconciler whose resolver and badge live in the profile daemon.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/streamtabs/internal/reconcile"
	"github.com/matheus3301/streamtabs/internal/render"
	"github.com/matheus3301/streamtabs/internal/rpc"
	"github.com/matheus3301/streamtabs/internal/settings"
	"github.com/matheus3301/streamtabs/internal/subscription"
	"github.com/matheus3301/streamtabs/internal/tui/keys"
	"github.com/matheus3301/streamtabs/internal/tui/model"
	"github.com/matheus3301/streamtabs/internal/tui/ui"
	"github.com/matheus3301/streamtabs/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// Page names.
const (
	pageStreams = "streams"
	pageDetails = "details"
	pageHelp    = "help"
	pageConfirm = "confirm"
)

const badgePollInterval = 5 * time.Second

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	root     *tview.Flex
	pages    *ui.Pages
	theme    *ui.Theme
	vm       *model.ViewModel
	daemon   *rpc.Client
	registry *keys.Registry
	flash    *ui.FlashModel
	logger   *zap.Logger

	profileInfo *ui.ProfileInfo
	menu        *ui.Menu
	tabBar      *ui.TabBar
	list        *views.StreamList
	details     *views.StreamInfo
	help        *views.HelpView
	confirm     *tview.Modal
	prompt      *ui.Prompt
	statusBar   *views.StatusBar

	profile       string
	daemonStarted time.Time
	badgeText     string
	detailUser    string
	open          func(url string) error

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the popup. pong is the daemon's reply to the startup probe.
func NewApp(vm *model.ViewModel, daemon *rpc.Client, profile string, pong rpc.Pong, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:           tview.NewApplication(),
		pages:         ui.NewPages(),
		theme:         theme,
		vm:            vm,
		daemon:        daemon,
		registry:      keys.NewRegistry(),
		flash:         ui.NewFlashModel(),
		logger:        logger,
		profileInfo:   ui.NewProfileInfo(theme),
		menu:          ui.NewMenu(theme),
		tabBar:        ui.NewTabBar(theme),
		list:          views.NewStreamList(theme),
		details:       views.NewStreamInfo(theme),
		help:          views.NewHelpView(theme),
		prompt:        ui.NewPrompt(theme),
		statusBar:     views.NewStatusBar(theme),
		profile:       profile,
		daemonStarted: time.Now().Add(-time.Duration(pong.UptimeMs) * time.Millisecond),
		open:          openURL,
		ctx:           ctx,
		cancel:        cancel,
	}

	a.statusBar.SetProfile(profile)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	r := a.registry

	r.AddGlobal(keys.Rune("quit", 'q', "Quit", func() {
		if !a.back() {
			a.Stop()
		}
	}))
	r.AddGlobal(keys.Rune("help", '?', "Help", func() { a.pages.Push(pageHelp) }))
	r.AddGlobal(keys.Rune("command", ':', "Command", func() { a.showPrompt(ui.PromptCommand, "") }))
	r.AddGlobal(keys.Rune("refresh", 'R', "Refresh", func() {
		a.vm.Refresh()
		a.flash.Info("Refreshing")
	}))

	r.AddView(pageStreams, keys.Rune("add", 'a', "Add", func() { a.showPrompt(ui.PromptAdd, "") }))
	r.AddView(pageStreams, keys.Rune("remove", 'd', "Remove", a.removeSelected))
	r.AddView(pageStreams, keys.Rune("remove-all", 'D', "Remove all", func() { a.pages.Push(pageConfirm) }))
	r.AddView(pageStreams, keys.Rune("details", 'i', "Details", a.showDetails))
	r.AddView(pageStreams, keys.Rune("new-tab", 't', "New tab", func() { a.showPrompt(ui.PromptNewTab, "") }))
	r.AddView(pageStreams, keys.Rune("rename-tab", 'r', "Rename tab", func() {
		a.showPrompt(ui.PromptRenameTab, a.vm.ActiveTabName())
	}))
	r.AddView(pageStreams, keys.Rune("toggle-offline", 'o', "Offline", func() { a.toggle(settings.KeyHideOffline) }))
	r.AddView(pageStreams, keys.Rune("toggle-previews", 'p', "Previews", func() { a.toggle(settings.KeyHidePreviews) }))
	r.AddView(pageStreams, keys.Rune("toggle-count", 'c', "Count", func() { a.toggle(settings.KeyHideStreamersOnlineCount) }))
	r.AddView(pageStreams, keys.Rune("export", 'e', "Export", func() { a.showPrompt(ui.PromptExport, settings.ExportFileName) }))
	r.AddView(pageStreams, keys.Rune("import", 'I', "Import", func() { a.showPrompt(ui.PromptImport, settings.ExportFileName) }))
	r.AddView(pageStreams, keys.Rune("filter", '/', "Filter", func() { a.showPrompt(ui.PromptFilter, a.list.Filter()) }))
	r.AddView(pageStreams, keys.Rune("prev-tab", '[', "Prev tab", func() { a.switchTab(-1) }))
	r.AddView(pageStreams, keys.Rune("next-tab", ']', "Next tab", func() { a.switchTab(1) }))
	for i := range 9 {
		r.AddView(pageStreams, keys.Rune("tab-"+strconv.Itoa(i+1), rune('1'+i), "Tab", func() { a.selectTab(i) }))
	}

	r.AddView(pageDetails, keys.Key("open", tcell.KeyEnter, "Open", a.openDetail))
	r.AddView(pageDetails, keys.Rune("remove", 'd', "Remove", func() {
		user := a.detailUser
		a.back()
		a.remove(user)
	}))
}

func (a *App) setupCallbacks() {
	a.list.SetSelectedFunc(func(row, col int) {
		if e, ok := a.list.Selected(); ok {
			a.openChannel(e.ChannelURL)
		}
	})

	a.prompt.SetOnSubmit(a.onPromptSubmit)
	a.prompt.SetOnCancel(a.hidePrompt)

	a.confirm = tview.NewModal().
		SetText("Remove every streamer from every tab?").
		AddButtons([]string{"Remove all", "Cancel"}).
		SetDoneFunc(func(_ int, label string) {
			a.back()
			if label == "Remove all" {
				a.do("remove all", func(ctx context.Context) (string, error) {
					return "Removed every streamer", a.vm.RemoveAll(ctx)
				})
			}
		})

	a.pages.SetOnChange(func(current string) {
		a.app.SetFocus(a.pagePrimitive(current))
		a.menu.Update(a.hints(current))
	})
}

func (a *App) setupLayout() {
	a.pages.Register(pageStreams, a.list)
	a.pages.Register(pageDetails, a.details)
	a.pages.Register(pageHelp, a.help)
	a.pages.Register(pageConfirm, a.confirm)
	a.pages.Push(pageStreams)

	header := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.profileInfo, 34, 0, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(ui.NewLogo(a.theme), 22, 0, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 5, 0, false).
		AddItem(a.tabBar, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(a.root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Let text input widgets and the modal handle all keys normally.
		if _, ok := a.app.GetFocus().(*tview.InputField); ok {
			return event
		}
		if a.pages.Current() == pageConfirm {
			return event
		}

		if event.Key() == tcell.KeyEscape {
			if !a.back() && a.list.Filter() != "" {
				a.list.SetFilter("")
			}
			return nil
		}

		if a.registry.HandleEvent(a.pages.Current(), event) {
			return nil
		}
		return event
	})
}

func (a *App) pagePrimitive(name string) tview.Primitive {
	switch name {
	case pageDetails:
		return a.details
	case pageHelp:
		return a.help
	case pageConfirm:
		return a.confirm
	default:
		return a.list
	}
}

func (a *App) hints(page string) []ui.MenuHint {
	switch page {
	case pageDetails:
		return a.details.Hints()
	case pageHelp:
		return a.help.Hints()
	case pageConfirm:
		return nil
	default:
		return a.list.Hints()
	}
}

func (a *App) back() bool {
	if !a.pages.Back() {
		return false
	}
	if a.pages.Current() == pageStreams {
		a.detailUser = ""
	}
	return true
}

func (a *App) showPrompt(mode ui.PromptMode, initial string) {
	a.prompt.Activate(mode, initial)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.app.SetFocus(a.pagePrimitive(a.pages.Current()))
}

func (a *App) onPromptSubmit(mode ui.PromptMode, text string) {
	a.hidePrompt()
	switch mode {
	case ui.PromptCommand:
		a.runCommand(ParseCommand(text))
	case ui.PromptFilter:
		a.list.SetFilter(text)
	case ui.PromptAdd:
		a.add(text)
	case ui.PromptNewTab:
		a.createTab(text)
	case ui.PromptRenameTab:
		a.renameTab(text)
	case ui.PromptExport:
		a.exportSettings(text)
	case ui.PromptImport:
		a.importSettings(text)
	}
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "quit":
		a.Stop()
	case "add":
		a.add(cmd.Args)
	case "remove":
		a.remove(cmd.Args)
	case "remove-all":
		a.pages.Push(pageConfirm)
	case "tab":
		a.createTab(cmd.Args)
	case "rename":
		a.renameTab(cmd.Args)
	case "export":
		a.exportSettings(cmd.Args)
	case "import":
		a.importSettings(cmd.Args)
	case "refresh":
		a.vm.Refresh()
	case "help":
		a.pages.Push(pageHelp)
	case "goto":
		n, err := strconv.Atoi(cmd.Args)
		if err != nil {
			a.flash.Warn("goto needs a tab number")
			return
		}
		a.selectTab(n - 1)
	default:
		a.flash.Warn("Unknown command %q", cmd.Name)
	}
	a.redraw()
}

// do runs fn off the UI goroutine, reports its outcome in the flash bar and
// redraws.
func (a *App) do(what string, fn func(ctx context.Context) (string, error)) {
	go func() {
		msg, err := fn(a.ctx)
		switch {
		case err != nil:
			a.logger.Warn("popup action failed", zap.String("action", what), zap.Error(err))
			a.flash.Err(fmt.Errorf("%s: %w", what, err))
		case msg != "":
			a.flash.Info("%s", msg)
		}
		a.app.QueueUpdateDraw(a.redraw)
	}()
}

func (a *App) add(username string) {
	a.do("add", func(ctx context.Context) (string, error) {
		added, err := a.vm.Add(ctx, username)
		if err != nil {
			return "", err
		}
		if !added {
			return fmt.Sprintf("%s is already in this tab", username), nil
		}
		return fmt.Sprintf("Added %s", username), nil
	})
}

func (a *App) removeSelected() {
	if e, ok := a.list.Selected(); ok {
		a.remove(e.Username)
	}
}

func (a *App) remove(username string) {
	if username == "" {
		a.flash.Warn("Nothing selected")
		return
	}
	a.do("remove", func(ctx context.Context) (string, error) {
		return fmt.Sprintf("Removed %s", username), a.vm.Remove(ctx, username)
	})
}

func (a *App) createTab(name string) {
	a.do("new tab", func(ctx context.Context) (string, error) {
		i, err := a.vm.CreateTab(ctx, name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Created tab %d", i+1), nil
	})
}

func (a *App) renameTab(name string) {
	a.do("rename tab", func(ctx context.Context) (string, error) {
		return "Renamed tab", a.vm.RenameTab(ctx, name)
	})
}

func (a *App) toggle(key string) {
	a.do("toggle", func(ctx context.Context) (string, error) {
		hidden, err := a.vm.Toggle(ctx, key)
		if err != nil {
			return "", err
		}
		state := "shown"
		if hidden {
			state = "hidden"
		}
		return fmt.Sprintf("%s %s", toggleLabel(key), state), nil
	})
}

func toggleLabel(key string) string {
	switch key {
	case settings.KeyHideOffline:
		return "Offline streamers"
	case settings.KeyHidePreviews:
		return "Previews"
	default:
		return "Online count"
	}
}

func (a *App) exportSettings(path string) {
	a.do("export", func(ctx context.Context) (string, error) {
		written, err := a.vm.Export(ctx, path)
		if err != nil {
			return "", err
		}
		return "Exported to " + written, nil
	})
}

func (a *App) importSettings(path string) {
	a.do("import", func(ctx context.Context) (string, error) {
		err := a.vm.Import(ctx, path)
		if errors.Is(err, settings.ErrMalformedDocument) {
			return "", fmt.Errorf("not a settings file: %w", err)
		}
		if err != nil {
			return "", err
		}
		return "Imported settings", nil
	})
}

func (a *App) selectTab(i int) {
	if !a.vm.SetActiveTab(i) {
		return
	}
	a.list.SetFilter("")
	a.redraw()
}

func (a *App) switchTab(delta int) {
	a.vm.CycleTab(delta)
	a.list.SetFilter("")
	a.redraw()
}

func (a *App) showDetails() {
	e, ok := a.list.Selected()
	if !ok {
		return
	}
	a.detailUser = e.Username
	a.details.Update(e)
	a.pages.Push(pageDetails)
}

func (a *App) openDetail() {
	if a.detailUser != "" {
		a.openChannel(render.ChannelURL(a.detailUser))
	}
}

func (a *App) openChannel(url string) {
	if err := a.open(url); err != nil {
		a.flash.Err(fmt.Errorf("open %s: %w", url, err))
		return
	}
	a.flash.Info("Opened %s", url)
}

// redraw refreshes every widget from the view model. It must run on the UI
// goroutine.
func (a *App) redraw() {
	now := time.Now()
	snap := a.vm.Snapshot()
	v := a.vm.View(now)

	a.tabBar.Update(v.Tabs)
	a.list.Update(v, a.vm.ActiveTabName())
	if a.detailUser != "" {
		for _, e := range v.Entries {
			if e.Username == a.detailUser {
				a.details.Update(e)
				break
			}
		}
	}

	a.profileInfo.Update(ui.ProfileData{
		Profile:     a.profile,
		Daemon:      "up " + humanize.RelTime(a.daemonStarted, now, "", ""),
		Badge:       a.badgeText,
		Online:      render.OnlineCount(snap.Tabs),
		Subscribed:  len(subscription.UnionUsernames(snap.Settings)),
		LastRefresh: snap.At,
	}, now)
	a.menu.Update(a.hints(a.pages.Current()))

	a.statusBar.SetState(stateLabel(snap))
	a.statusBar.SetFlags(snap.Settings.HideOffline, snap.Settings.HidePreviews, snap.Settings.HideStreamersOnlineCount)
	a.statusBar.SetFlash(a.flash.Current())
}

func stateLabel(s reconcile.Snapshot) string {
	switch {
	case s.State == reconcile.Loading:
		return "[yellow]loading[-]"
	case s.Err != nil:
		return "[red]error[-]"
	case s.State == reconcile.Resolved:
		return "[green]ok[-]"
	default:
		return "idle"
	}
}

func (a *App) loop() {
	ticker := time.NewTicker(badgePollInterval)
	defer ticker.Stop()
	a.pollBadge()
	for {
		select {
		case <-a.vm.RefreshCh():
			a.pollBadge()
			a.app.QueueUpdateDraw(a.redraw)
		case <-ticker.C:
			a.pollBadge()
			a.app.QueueUpdateDraw(a.redraw)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) pollBadge() {
	ctx, cancel := context.WithTimeout(a.ctx, 2*time.Second)
	defer cancel()
	b, err := a.daemon.Badge(ctx)
	if err != nil {
		a.logger.Debug("badge poll failed", zap.Error(err))
		a.app.QueueUpdate(func() { a.badgeText = "?" })
		return
	}
	a.app.QueueUpdate(func() { a.badgeText = b.Text })
}

// Run starts the TUI application. It returns when the user quits.
func (a *App) Run() error {
	defer a.cancel()
	a.vm.Start(a.ctx)
	a.vm.Refresh()
	a.redraw()
	go a.loop()
	return a.app.Run()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
