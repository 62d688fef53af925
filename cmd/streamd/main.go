package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/streamtabs/internal/config"
	"github.com/matheus3301/streamtabs/internal/daemon"
	"github.com/matheus3301/streamtabs/internal/profile"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	configFlag := flag.String("config", profile.ConfigPath(), "config file")
	quiet := flag.Bool("quiet", false, "log to the profile log file only")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateDaemon(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v (set it in %s or %s)\n", err, *configFlag, config.EnvTwitchClientID)
		os.Exit(1)
	}

	profileName := profile.Resolve(*profileFlag, cfg)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	opts := []fx.Option{
		daemon.Module(daemon.Params{ProfileName: profileName, Config: cfg, Quiet: *quiet}),
	}
	if *quiet {
		opts = append(opts, fx.WithLogger(daemon.EventLogger))
	}
	fx.New(opts...).Run()
}
