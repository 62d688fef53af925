package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/matheus3301/streamtabs/internal/config"
	"github.com/matheus3301/streamtabs/internal/lock"
	"github.com/matheus3301/streamtabs/internal/profile"
	"github.com/matheus3301/streamtabs/internal/reconcile"
	"github.com/matheus3301/streamtabs/internal/render"
	"github.com/matheus3301/streamtabs/internal/settings"
	"github.com/matheus3301/streamtabs/internal/subscription"
	"github.com/matheus3301/streamtabs/internal/tui/client"
	"github.com/matheus3301/streamtabs/internal/tui/model"
	"github.com/matheus3301/streamtabs/internal/tui/views"
	qrcode "github.com/skip2/go-qrcode"
)

type statusOutput struct {
	Profile       string     `json:"profile"`
	Dir           string     `json:"dir"`
	DaemonPID     int        `json:"daemonPid,omitempty"`
	DaemonStarted *time.Time `json:"daemonStarted,omitempty"`
	DaemonRunning bool       `json:"daemonRunning"`
	UptimeMs      int64      `json:"uptimeMs,omitempty"`
	Badge         string     `json:"badge"`
	SchemaVersion uint       `json:"schemaVersion"`
	Tabs          int        `json:"tabs"`
	Subscribed    int        `json:"subscribed"`
	LastWrite     *time.Time `json:"lastWrite,omitempty"`
	LastWriteOp   string     `json:"lastWriteOp,omitempty"`
}

func cmdStatus(ctx context.Context, e *env) error {
	out := statusOutput{Profile: e.profile, Dir: profile.Dir(e.profile)}

	holder, held, err := lock.Inspect(profile.Dir(e.profile))
	if err != nil {
		return err
	}
	if held {
		out.DaemonPID = holder.PID
		if !holder.Started.IsZero() {
			out.DaemonStarted = &holder.Started
		}
	}
	if pong, err := client.Probe(ctx, profile.SocketPath(e.profile)); err == nil {
		out.DaemonRunning = true
		out.UptimeMs = pong.UptimeMs
		if c, err := e.connect(ctx); err == nil {
			if b, err := c.Badge(ctx); err == nil {
				out.Badge = b.Text
			}
		}
	}

	st, err := e.settingsStore()
	if err != nil {
		return err
	}
	s, err := subscription.Load(ctx, st)
	if err != nil {
		return err
	}
	out.Tabs = s.TabCount()
	out.Subscribed = len(subscription.UnionUsernames(s))
	if v, _, err := e.db.SchemaVersion(); err == nil {
		out.SchemaVersion = v
	}
	if w, err := e.db.LastSettingsWrite(); err == nil && w != nil {
		out.LastWrite = &w.CreatedAt
		out.LastWriteOp = w.Op
	}

	if e.jsonOut {
		return outputJSON(out)
	}
	fmt.Printf("Profile:    %s (%s)\n", out.Profile, out.Dir)
	if out.DaemonRunning {
		fmt.Printf("Daemon:     running, pid %d, up %s\n", out.DaemonPID,
			humanize.RelTime(time.Now().Add(-time.Duration(out.UptimeMs)*time.Millisecond), time.Now(), "", ""))
		fmt.Printf("Badge:      %q\n", out.Badge)
	} else {
		fmt.Println("Daemon:     stopped")
	}
	fmt.Printf("Schema:     v%d\n", out.SchemaVersion)
	fmt.Printf("Tabs:       %d\n", out.Tabs)
	fmt.Printf("Subscribed: %d\n", out.Subscribed)
	if out.LastWrite != nil {
		fmt.Printf("Last write: %s (%s)\n", humanize.Time(*out.LastWrite), out.LastWriteOp)
	}
	return nil
}

func cmdProfiles(e *env) error {
	names, err := profile.List()
	if err != nil {
		return err
	}
	type row struct {
		Name    string `json:"name"`
		Running bool   `json:"running"`
		PID     int    `json:"pid,omitempty"`
	}
	rows := make([]row, 0, len(names))
	for _, name := range names {
		holder, held, _ := lock.Inspect(profile.Dir(name))
		r := row{Name: name, Running: held}
		if held {
			r.PID = holder.PID
		}
		rows = append(rows, r)
	}
	if e.jsonOut {
		return outputJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Println("No profiles found.")
		return nil
	}
	for _, r := range rows {
		state := "stopped"
		if r.Running {
			state = fmt.Sprintf("running (pid %d)", r.PID)
		}
		fmt.Printf("%-20s %s\n", r.Name, state)
	}
	return nil
}

func cmdPing(ctx context.Context, e *env) error {
	c, err := e.connect(ctx)
	if err != nil {
		return err
	}
	pong, err := c.Ping(ctx)
	if err != nil {
		return err
	}
	if e.jsonOut {
		return outputJSON(pong)
	}
	fmt.Printf("pong from %s, up %s\n", pong.Profile, time.Duration(pong.UptimeMs)*time.Millisecond)
	return nil
}

func cmdBadge(ctx context.Context, e *env) error {
	c, err := e.connect(ctx)
	if err != nil {
		return err
	}
	b, err := c.Badge(ctx)
	if err != nil {
		return err
	}
	if e.jsonOut {
		return outputJSON(b)
	}
	if !b.Enabled {
		fmt.Println("badge hidden")
		return nil
	}
	fmt.Printf("badge %q (%d online)\n", b.Text, b.Count)
	return nil
}

// refresh runs one reconcile cycle through the daemon so the badge follows
// the stored settings.
func refresh(ctx context.Context, e *env) (reconcile.Snapshot, error) {
	st, err := e.settingsStore()
	if err != nil {
		return reconcile.Snapshot{}, err
	}
	c, err := e.connect(ctx)
	if err != nil {
		return reconcile.Snapshot{}, err
	}
	rec := reconcile.New(st, c, c, nil, e.logger)
	defer rec.Close()
	return rec.Refresh(ctx)
}

// resync refreshes after a mutation. A missing daemon is not an error: the
// change is already stored.
func resync(ctx context.Context, e *env) {
	if _, err := refresh(ctx, e); err != nil {
		fmt.Fprintf(os.Stderr, "warning: settings saved, badge not refreshed: %v\n", err)
	}
}

func tabFlag(name string) (*flag.FlagSet, *int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	tab := fs.Int("tab", 1, "tab number, starting at 1")
	return fs, tab
}

type listTab struct {
	Index   int            `json:"index"`
	Name    string         `json:"name"`
	Label   string         `json:"label"`
	Entries []render.Entry `json:"entries"`
}

func cmdList(ctx context.Context, e *env, args []string) error {
	fs, tab := tabFlag("list")
	all := fs.Bool("all", false, "list every tab")
	if err := fs.Parse(args); err != nil {
		return err
	}

	snap, err := refresh(ctx, e)
	if err != nil {
		return err
	}
	if snap.Err != nil {
		return snap.Err
	}

	now := time.Now()
	var tabs []listTab
	for i, name := range snap.Settings.TabNames {
		if !*all && i != *tab-1 {
			continue
		}
		v := render.Project(snap.Frame(i), now)
		tabs = append(tabs, listTab{Index: i + 1, Name: name, Label: v.Tabs[i].Label, Entries: v.Entries})
	}
	if len(tabs) == 0 {
		return fmt.Errorf("%w: %d", subscription.ErrTabOutOfRange, *tab)
	}

	if e.jsonOut {
		return outputJSON(tabs)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, t := range tabs {
		_, _ = fmt.Fprintf(w, "[%d] %s\n", t.Index, t.Label)
		if len(t.Entries) == 0 {
			_, _ = fmt.Fprintln(w, "  (nobody to show)")
		}
		for _, en := range t.Entries {
			if !en.Live {
				_, _ = fmt.Fprintf(w, "  ○ %s\toffline\t\t\t\n", en.Username)
				continue
			}
			_, _ = fmt.Fprintf(w, "  ● %s\t%s\t%s\t%s\t%s\n", en.DisplayName, en.Viewers, en.Game, en.LiveFor, truncate(en.Title, 60))
		}
	}
	live := 0
	for _, st := range snap.Response {
		if st.Live() {
			live++
		}
	}
	_, _ = fmt.Fprintf(w, "\n%d streamers resolved, %d live\n", len(snap.Response), live)
	return w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func update(ctx context.Context, e *env, fn func(settings.Settings) (settings.Settings, error)) (settings.Settings, error) {
	st, err := e.settingsStore()
	if err != nil {
		return settings.Settings{}, err
	}
	s, err := subscription.Update(ctx, st, fn)
	if err != nil {
		return s, err
	}
	resync(ctx, e)
	return s, nil
}

func cmdAdd(ctx context.Context, e *env, args []string) error {
	fs, tab := tabFlag("add")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: streamctl add [--tab N] <username>...")
	}
	var added, skipped []string
	_, err := update(ctx, e, func(s settings.Settings) (settings.Settings, error) {
		next, a, sk, err := addUsernames(s, *tab, fs.Args())
		added, skipped = a, sk
		return next, err
	})
	if err != nil {
		return err
	}
	for _, u := range added {
		fmt.Printf("added %s to tab %d\n", u, *tab)
	}
	for _, u := range skipped {
		fmt.Printf("%s is already in tab %d\n", u, *tab)
	}
	return nil
}

func cmdRemove(ctx context.Context, e *env, args []string) error {
	fs, tab := tabFlag("remove")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: streamctl remove [--tab N] <username>...")
	}
	var removed []string
	_, err := update(ctx, e, func(s settings.Settings) (settings.Settings, error) {
		next, r, err := removeUsernames(s, *tab, fs.Args())
		removed = r
		return next, err
	})
	if err != nil {
		return err
	}
	fmt.Printf("removed %d of %d from tab %d\n", len(removed), fs.NArg(), *tab)
	return nil
}

// checkTab rejects a 1-based tab number that names no existing tab, so a
// typo never pads the settings with generated tabs.
func checkTab(s settings.Settings, tab int) error {
	if tab < 1 || tab > s.TabCount() {
		return fmt.Errorf("%w: %d (have %d)", subscription.ErrTabOutOfRange, tab, s.TabCount())
	}
	return nil
}

func addUsernames(s settings.Settings, tab int, usernames []string) (settings.Settings, []string, []string, error) {
	if err := checkTab(s, tab); err != nil {
		return s, nil, nil, err
	}
	var added, skipped []string
	for _, u := range usernames {
		next, ok, err := subscription.AddToTab(s, tab-1, u)
		if err != nil {
			return s, nil, nil, err
		}
		if ok {
			added = append(added, u)
		} else {
			skipped = append(skipped, u)
		}
		s = next
	}
	return s, added, skipped, nil
}

func removeUsernames(s settings.Settings, tab int, usernames []string) (settings.Settings, []string, error) {
	if err := checkTab(s, tab); err != nil {
		return s, nil, err
	}
	var removed []string
	for _, u := range usernames {
		next, ok := subscription.RemoveFromTab(s, tab-1, u)
		if ok {
			removed = append(removed, u)
		}
		s = next
	}
	return s, removed, nil
}

func cmdRemoveAll(ctx context.Context, e *env) error {
	_, err := update(ctx, e, func(s settings.Settings) (settings.Settings, error) {
		next, _ := subscription.RemoveAll(s)
		return next, nil
	})
	if err != nil {
		return err
	}
	fmt.Println("removed every streamer")
	return nil
}

func cmdTab(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: streamctl tab <list|add|rename>")
	}
	switch args[0] {
	case "list":
		st, err := e.settingsStore()
		if err != nil {
			return err
		}
		s, err := subscription.Load(ctx, st)
		if err != nil {
			return err
		}
		if e.jsonOut {
			return outputJSON(s.TabNames)
		}
		for i, name := range s.TabNames {
			fmt.Printf("%d  %-24s %d streamers\n", i+1, name, len(s.Subscriptions[i]))
		}
		return nil
	case "add":
		var index int
		_, err := update(ctx, e, func(s settings.Settings) (settings.Settings, error) {
			next, i := subscription.CreateTab(s, strings.Join(args[1:], " "))
			index = i
			return next, nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("created tab %d\n", index+1)
		return nil
	case "rename":
		if len(args) < 3 {
			return errors.New("usage: streamctl tab rename <N> <name>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("tab number: %w", err)
		}
		_, err = update(ctx, e, func(s settings.Settings) (settings.Settings, error) {
			return subscription.RenameTab(s, n-1, strings.Join(args[2:], " "))
		})
		return err
	default:
		return fmt.Errorf("unknown tab subcommand: %s", args[0])
	}
}

var toggleKeys = map[string]string{
	"offline":  settings.KeyHideOffline,
	"previews": settings.KeyHidePreviews,
	"count":    settings.KeyHideStreamersOnlineCount,
}

func cmdToggle(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: streamctl toggle offline|previews|count")
	}
	key, ok := toggleKeys[args[0]]
	if !ok {
		return fmt.Errorf("unknown setting %q", args[0])
	}
	s, err := update(ctx, e, func(s settings.Settings) (settings.Settings, error) {
		return s.Toggle(key)
	})
	if err != nil {
		return err
	}
	hidden := map[string]bool{
		settings.KeyHideOffline:              s.HideOffline,
		settings.KeyHidePreviews:             s.HidePreviews,
		settings.KeyHideStreamersOnlineCount: s.HideStreamersOnlineCount,
	}[key]
	state := "shown"
	if hidden {
		state = "hidden"
	}
	fmt.Printf("%s: %s\n", args[0], state)
	return nil
}

func cmdExport(ctx context.Context, e *env, args []string) error {
	st, err := e.settingsStore()
	if err != nil {
		return err
	}
	s, err := subscription.Load(ctx, st)
	if err != nil {
		return err
	}
	if len(args) > 0 && args[0] == "-" {
		return settings.Export(os.Stdout, s)
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	path = model.ExportPath(path)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := settings.Export(f, s); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func cmdImport(ctx context.Context, e *env, args []string) error {
	var r io.Reader = os.Stdin
	if len(args) == 0 || args[0] != "-" {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		f, err := os.Open(model.ExportPath(path))
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	d, err := settings.Import(r)
	if err != nil {
		return err
	}
	st, err := e.settingsStore()
	if err != nil {
		return err
	}
	if err := st.Replace(ctx, d); err != nil {
		return err
	}
	resync(ctx, e)
	fmt.Println("imported settings")
	return nil
}

func cmdQR(args []string) error {
	fs := flag.NewFlagSet("qr", flag.ContinueOnError)
	out := fs.String("out", "", "write a PNG instead of printing")
	size := fs.Int("size", 256, "PNG size in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: streamctl qr [--out file.png] <username>")
	}
	url := render.ChannelURL(subscription.Normalize(fs.Arg(0)))

	if *out != "" {
		if err := qrcode.WriteFile(url, qrcode.Medium, *size, *out); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", *out)
		return nil
	}
	art, err := views.RenderQR(url, "  ")
	if err != nil {
		return err
	}
	fmt.Printf("\n%s\n  %s\n", art, url)
	return nil
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdInit(e *env, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	clientID := fs.String("client-id", "", "Twitch application client id")
	clientSecret := fs.String("client-secret", "", "Twitch application client secret")
	force := fs.Bool("force", false, "overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg := config.Default()
	cfg.DefaultProfile = e.profile
	cfg.Twitch.ClientID = *clientID
	cfg.Twitch.ClientSecret = *clientSecret
	if err := writeConfig(e.configPath, cfg, *force); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", e.configPath)
	if cfg.Twitch.ClientID == "" {
		fmt.Println("set twitch.client_id before starting the daemon")
	}
	return nil
}

// writeConfig validates cfg and saves it, refusing to replace an existing
// file unless force is set.
func writeConfig(path string, cfg *config.Config, force bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	return config.Save(path, cfg)
}
