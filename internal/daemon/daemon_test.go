package daemon

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/streamtabs/internal/api"
	"github.com/matheus3301/streamtabs/internal/badge"
	"github.com/matheus3301/streamtabs/internal/bus"
	"github.com/matheus3301/streamtabs/internal/config"
	"github.com/matheus3301/streamtabs/internal/lock"
	"github.com/matheus3301/streamtabs/internal/reconcile"
	"github.com/matheus3301/streamtabs/internal/rpc"
	"github.com/matheus3301/streamtabs/internal/settings"
	"github.com/matheus3301/streamtabs/internal/store"
	"github.com/matheus3301/streamtabs/internal/stream"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

type staticResolver map[string]int

func (r staticResolver) FetchStreamerStatus(_ context.Context, usernames []string) ([]stream.Status, error) {
	out := make([]stream.Status, 0, len(usernames))
	for _, u := range usernames {
		if v, ok := r[u]; ok {
			out = append(out, stream.Status{Username: u, Channel: &stream.Channel{DisplayName: u, ViewerCount: v}})
			continue
		}
		out = append(out, stream.Offline(u))
	}
	return out, nil
}

func TestDaemonLifecycle(t *testing.T) {
	// Use a short path to avoid macOS 104-char Unix socket limit.
	tmpDir, err := os.MkdirTemp("/tmp", "streamtabs-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	profileDir := filepath.Join(tmpDir, "test")
	socketPath := filepath.Join(profileDir, "d.sock")

	// Acquire lock.
	lk, err := lock.Acquire(profileDir)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = lk.Release() }()

	// Open store and seed two tabs sharing a streamer.
	db, _, err := store.OpenMigrated(filepath.Join(profileDir, "settings.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()
	st := settings.NewDBStore(db)
	if err := st.Save(context.Background(), settings.Patch{
		TabNames:      []string{"Main", "Friends"},
		Subscriptions: [][]string{{"alpha", "beta"}, {"Alpha"}},
	}); err != nil {
		t.Fatal(err)
	}

	// Setup components.
	logger := zap.NewNop()
	b := bus.New()
	resolver := staticResolver{"alpha": 10}
	bd := badge.New(b, nil, logger)
	rec := reconcile.New(st, resolver, bd, b, logger)
	defer rec.Close()
	runtimeSvc := api.NewRuntimeService("test", resolver, bd, logger)

	grpcSrv := grpc.NewServer()
	rpc.RegisterRuntimeServer(grpcSrv, runtimeSvc)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = grpcSrv.Serve(listener) }()
	defer grpcSrv.GracefulStop()

	// Connect as client.
	c, err := rpc.Dial(socketPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := c.Ping(ctx)
	if err != nil {
		t.Fatalf("Ping error = %v", err)
	}
	if pong.Profile != "test" {
		t.Errorf("profile = %q, want test", pong.Profile)
	}

	// A daemon-side cycle updates the badge, counting alpha once.
	if _, err := rec.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	bs, err := c.Badge(ctx)
	if err != nil {
		t.Fatalf("Badge error = %v", err)
	}
	if bs.Text != "1" || !bs.Enabled {
		t.Errorf("badge = %+v, want text 1", bs)
	}

	// A popup-side reconciler talking over the socket sees the same data.
	popup := reconcile.New(st, c, c, nil, logger)
	defer popup.Close()
	snap, err := popup.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Err != nil || !snap.Fetched {
		t.Fatalf("popup snapshot = %+v", snap)
	}
	if snap.Tabs[0].LiveCount() != 1 || snap.Tabs[1].LiveCount() != 1 {
		t.Errorf("popup tabs = %+v", snap.Tabs)
	}
}

func TestFxModuleWiring(t *testing.T) {
	p := Params{ProfileName: "fxtest", Config: config.Default()}
	if err := fx.ValidateApp(Module(p)); err != nil {
		t.Fatalf("fx graph does not resolve: %v", err)
	}
}

func TestNewServerUsesSocketOverride(t *testing.T) {
	// Use /tmp for short socket paths (macOS 104-char limit).
	tmpDir, err := os.MkdirTemp("/tmp", "streamtabs-fx-*")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	socketPath := filepath.Join(tmpDir, "d.sock")
	// Leave a stale socket file behind; NewServer must replace it.
	if err := os.WriteFile(socketPath, nil, 0600); err != nil {
		t.Fatal(err)
	}

	p := Params{ProfileName: "fxtest", Config: config.Default(), SocketPath: socketPath}
	srv, err := NewServer(p, zap.NewNop(), api.NewRuntimeService("fxtest", staticResolver{}, badge.New(nil, nil, zap.NewNop()), zap.NewNop()))
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}

	info, statErr := os.Stat(socketPath)
	if statErr != nil {
		t.Fatalf("socket not created at %s: %v", socketPath, statErr)
	}
	if info.Mode()&os.ModeSocket == 0 {
		t.Errorf("mode = %v, want socket", info.Mode())
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("socket permission = %o, want 0600", info.Mode().Perm())
	}

	go func() { _ = srv.Start() }()
	srv.Stop(context.Background())
	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Errorf("socket still present after Stop: %v", err)
	}
}

func TestNewServerRefusesLiveSocket(t *testing.T) {
	tmpDir, err := os.MkdirTemp("/tmp", "streamtabs-live-*")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	socketPath := filepath.Join(tmpDir, "d.sock")
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = ln.Close() }()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	p := Params{ProfileName: "live", Config: config.Default(), SocketPath: socketPath}
	_, err = NewServer(p, zap.NewNop(), api.NewRuntimeService("live", staticResolver{}, badge.New(nil, nil, zap.NewNop()), zap.NewNop()))
	if !errors.Is(err, ErrSocketInUse) {
		t.Fatalf("NewServer() error = %v, want ErrSocketInUse", err)
	}
	if _, err := os.Stat(socketPath); err != nil {
		t.Errorf("live socket removed: %v", err)
	}
}

func TestQuietLoggerWritesProfileLog(t *testing.T) {
	home := t.TempDir()
	t.Setenv("STREAMTABS_HOME", home)

	logger, err := provideLogger(Params{ProfileName: "quiet", Config: config.Default(), Quiet: true})
	if err != nil {
		t.Fatal(err)
	}
	EventLogger(logger).LogEvent(&fxevent.Started{})
	logger.Info("reconcile resolved")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(home, "profiles", "quiet", "logs", "streamd.log"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"reconcile resolved", `"logger":"fx"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %s:\n%s", want, data)
		}
	}
}
