package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/streamtabs/internal/bus"
	"github.com/matheus3301/streamtabs/internal/config"
	"github.com/matheus3301/streamtabs/internal/logging"
	"github.com/matheus3301/streamtabs/internal/profile"
	"github.com/matheus3301/streamtabs/internal/reconcile"
	"github.com/matheus3301/streamtabs/internal/settings"
	"github.com/matheus3301/streamtabs/internal/store"
	"github.com/matheus3301/streamtabs/internal/tui"
	"github.com/matheus3301/streamtabs/internal/tui/client"
	"github.com/matheus3301/streamtabs/internal/tui/model"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	configFlag := flag.String("config", profile.ConfigPath(), "config file")
	noStart := flag.Bool("no-start", false, "do not start the daemon when it is not running")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configFlag)
	if err != nil {
		return err
	}
	profileName := profile.Resolve(*profileFlag, cfg)
	if err := profile.ValidateName(profileName); err != nil {
		return err
	}
	if err := profile.EnsureDir(profileName); err != nil {
		return err
	}

	// The terminal belongs to tview, so only the file core is used.
	logger, err := logging.New(logging.Options{
		Path:      profile.LogPath(profileName, "streampop"),
		Component: "streampop",
		Profile:   profileName,
		Level:     cfg.Log.Level,
		Quiet:     true,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	daemon, pong, err := client.Connect(context.Background(), client.Options{
		Profile:    profileName,
		SocketPath: profile.SocketPath(profileName),
		ConfigPath: *configFlag,
		AutoStart:  !*noStart,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = daemon.Close() }()

	db, _, err := store.OpenMigrated(profile.SettingsDBPath(profileName))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	st := settings.NewDBStore(db)
	b := bus.New()
	rec := reconcile.New(st, daemon, daemon, b, logger)
	defer rec.Close()

	logger.Info("popup opened", zap.Int64("daemon_uptime_ms", pong.UptimeMs))
	app := tui.NewApp(model.NewViewModel(rec, st, b), daemon, profileName, pong, logger)
	return app.Run()
}
