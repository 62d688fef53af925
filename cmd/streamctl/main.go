package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/streamtabs/internal/config"
	"github.com/matheus3301/streamtabs/internal/logging"
	"github.com/matheus3301/streamtabs/internal/profile"
	"github.com/matheus3301/streamtabs/internal/rpc"
	"github.com/matheus3301/streamtabs/internal/settings"
	"github.com/matheus3301/streamtabs/internal/store"
	"github.com/matheus3301/streamtabs/internal/tui/client"
	"go.uber.org/zap"
)

// env is what every command gets: the profile, its settings store, and a
// daemon client when one could be reached.
type env struct {
	profile    string
	configPath string
	cfg        *config.Config
	db         *store.DB
	st         settings.Store
	daemon     *rpc.Client
	autoStart  bool
	jsonOut    bool
	logger     *zap.Logger
}

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	configFlag := flag.String("config", profile.ConfigPath(), "config file")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	noStart := flag.Bool("no-start", false, "do not start the daemon when it is not running")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadOrDefault(*configFlag)
	if err != nil {
		fatal(err)
	}
	profileName := profile.Resolve(*profileFlag, cfg)
	if err := profile.ValidateName(profileName); err != nil {
		fatal(err)
	}

	logger, err := logging.New(logging.Options{
		Path:      profile.LogPath(profileName, "streamctl"),
		Component: "streamctl",
		Profile:   profileName,
		Level:     cfg.Log.Level,
		Quiet:     true,
	})
	if err != nil {
		fatal(err)
	}

	e := &env{
		profile:    profileName,
		configPath: *configFlag,
		cfg:        cfg,
		autoStart:  !*noStart,
		jsonOut:    *jsonFlag,
		logger:     logger,
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := dispatch(ctx, e, args); err != nil {
		e.close()
		fatal(err)
	}
}

func dispatch(ctx context.Context, e *env, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "init":
		return cmdInit(e, rest)
	case "status":
		return cmdStatus(ctx, e)
	case "profiles":
		return cmdProfiles(e)
	case "ping":
		return cmdPing(ctx, e)
	case "badge":
		return cmdBadge(ctx, e)
	case "list":
		return cmdList(ctx, e, rest)
	case "add":
		return cmdAdd(ctx, e, rest)
	case "remove":
		return cmdRemove(ctx, e, rest)
	case "remove-all":
		return cmdRemoveAll(ctx, e)
	case "tab":
		return cmdTab(ctx, e, rest)
	case "toggle":
		return cmdToggle(ctx, e, rest)
	case "export":
		return cmdExport(ctx, e, rest)
	case "import":
		return cmdImport(ctx, e, rest)
	case "qr":
		return cmdQR(rest)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: streamctl [--profile <name>] [--config <file>] [--json] [--no-start] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  init [--client-id ID]          Write a starter config file")
	fmt.Fprintln(os.Stderr, "  status                         Show daemon and settings status")
	fmt.Fprintln(os.Stderr, "  profiles                       List known profiles")
	fmt.Fprintln(os.Stderr, "  ping                           Check the daemon answers")
	fmt.Fprintln(os.Stderr, "  badge                          Show the online count badge")
	fmt.Fprintln(os.Stderr, "  list [--tab N] [--all]         Resolve and list streamers")
	fmt.Fprintln(os.Stderr, "  add [--tab N] <username>...    Subscribe to streamers")
	fmt.Fprintln(os.Stderr, "  remove [--tab N] <username>... Unsubscribe streamers")
	fmt.Fprintln(os.Stderr, "  remove-all                     Clear every tab")
	fmt.Fprintln(os.Stderr, "  tab list                       List tabs")
	fmt.Fprintln(os.Stderr, "  tab add [name]                 Create a tab")
	fmt.Fprintln(os.Stderr, "  tab rename <N> <name>          Rename tab N")
	fmt.Fprintln(os.Stderr, "  toggle offline|previews|count  Flip a display setting")
	fmt.Fprintln(os.Stderr, "  export [file|-]                Export settings")
	fmt.Fprintln(os.Stderr, "  import [file|-]                Import settings")
	fmt.Fprintln(os.Stderr, "  qr [--out file.png] <username> Print a QR code for a channel")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// settingsStore opens the profile's settings database on first use.
func (e *env) settingsStore() (settings.Store, error) {
	if e.st != nil {
		return e.st, nil
	}
	if err := profile.EnsureDir(e.profile); err != nil {
		return nil, err
	}
	db, _, err := store.OpenMigrated(profile.SettingsDBPath(e.profile))
	if err != nil {
		return nil, err
	}
	e.db = db
	e.st = settings.NewDBStore(db)
	return e.st, nil
}

// connect reaches the daemon, starting it unless --no-start was given.
func (e *env) connect(ctx context.Context) (*rpc.Client, error) {
	if e.daemon != nil {
		return e.daemon, nil
	}
	c, _, err := client.Connect(ctx, client.Options{
		Profile:    e.profile,
		SocketPath: profile.SocketPath(e.profile),
		ConfigPath: e.configPath,
		AutoStart:  e.autoStart,
		Logger:     e.logger,
	})
	if err != nil {
		return nil, err
	}
	e.daemon = c
	return c, nil
}

func (e *env) close() {
	if e.daemon != nil {
		_ = e.daemon.Close()
	}
	if e.db != nil {
		_ = e.db.Close()
	}
	_ = e.logger.Sync()
}
