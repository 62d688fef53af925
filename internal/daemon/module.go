package daemon

import (
	"context"
	"errors"

	"github.com/matheus3301/streamtabs/internal/api"
	"github.com/matheus3301/streamtabs/internal/badge"
	"github.com/matheus3301/streamtabs/internal/bus"
	"github.com/matheus3301/streamtabs/internal/config"
	"github.com/matheus3301/streamtabs/internal/lock"
	"github.com/matheus3301/streamtabs/internal/logging"
	"github.com/matheus3301/streamtabs/internal/metrics"
	"github.com/matheus3301/streamtabs/internal/poller"
	"github.com/matheus3301/streamtabs/internal/profile"
	"github.com/matheus3301/streamtabs/internal/reconcile"
	"github.com/matheus3301/streamtabs/internal/settings"
	"github.com/matheus3301/streamtabs/internal/store"
	"github.com/matheus3301/streamtabs/internal/twitch"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	Config      *config.Config
	SocketPath  string // optional override for testing; empty = use default
	// Quiet keeps logs off stderr. Set when a popup or ctl started us.
	Quiet bool
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideSettingsStore,
			provideMetrics,
			provideMetricsServer,
			provideResolver,
			provideBadge,
			provideReconciler,
			providePoller,
			provideRuntimeService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Path:      profile.LogPath(p.ProfileName, "streamd"),
		Component: "streamd",
		Profile:   p.ProfileName,
		Level:     p.Config.Log.Level,
		Quiet:     p.Quiet,
	})
}

// EventLogger sends fx lifecycle events to the daemon log instead of the
// console. Used with fx.WithLogger when running quiet.
func EventLogger(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	var held *lock.LockHeldError
	if errors.As(err, &held) {
		logger.Error("profile already served",
			zap.Int("holder_pid", held.Holder.PID),
			zap.Time("holder_started", held.Holder.Started))
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired", zap.Int("pid", l.Info().PID))
	return l, nil
}

// provideStore depends on the lock so a second daemon fails before touching
// the database. Popups and streamctl open settings.db alongside the daemon;
// WAL and the busy timeout in store.Open let them share it.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.SettingsDBPath(p.ProfileName)
	db, result, err := store.OpenMigrated(dbPath)
	if err != nil {
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideSettingsStore(db *store.DB) settings.Store {
	return settings.NewDBStore(db)
}

func provideMetrics(p Params) metrics.Recorder {
	return metrics.New(p.Config.Daemon.MetricsAddr)
}

func provideMetricsServer(p Params, rec metrics.Recorder, logger *zap.Logger) *metrics.Server {
	return metrics.NewServer(p.Config.Daemon.MetricsAddr, rec, logger)
}

func provideResolver(p Params, rec metrics.Recorder, logger *zap.Logger) reconcile.Resolver {
	return twitch.New(p.Config.Twitch, rec, logger.Named("twitch"))
}

func provideBadge(b *bus.Bus, rec metrics.Recorder, logger *zap.Logger) *badge.Badge {
	return badge.New(b, rec, logger.Named("badge"))
}

func provideReconciler(st settings.Store, resolver reconcile.Resolver, bd *badge.Badge, b *bus.Bus, logger *zap.Logger) *reconcile.Reconciler {
	return reconcile.New(st, resolver, bd, b, logger.Named("reconcile"))
}

func providePoller(p Params, rec *reconcile.Reconciler, logger *zap.Logger) *poller.Poller {
	return poller.New(rec, p.Config.Daemon.PollInterval, logger.Named("poller"))
}

func provideRuntimeService(p Params, resolver reconcile.Resolver, bd *badge.Badge, logger *zap.Logger) *api.RuntimeService {
	return api.NewRuntimeService(p.ProfileName, resolver, bd, logger.Named("runtime"))
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *store.DB, rec *reconcile.Reconciler, pl *poller.Poller, ms *metrics.Server, b *bus.Bus, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Start gRPC server in background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			go ms.Start()

			pl.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			pl.Stop()
			rec.Close()
			srv.Stop(ctx)
			ms.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped",
				zap.Uint64("bus_dropped", b.Dropped()),
				zap.Int("bus_subscribers", b.Subscribers()))
			_ = logger.Sync()
			return nil
		},
	})
}
