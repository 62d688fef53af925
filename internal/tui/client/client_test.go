package client

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/streamtabs/internal/api"
	"github.com/matheus3301/streamtabs/internal/badge"
	"github.com/matheus3301/streamtabs/internal/rpc"
	"github.com/matheus3301/streamtabs/internal/stream"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

type offlineResolver struct{}

func (offlineResolver) FetchStreamerStatus(_ context.Context, usernames []string) ([]stream.Status, error) {
	out := make([]stream.Status, len(usernames))
	for i, u := range usernames {
		out[i] = stream.Offline(u)
	}
	return out, nil
}

func socketDir(t *testing.T) string {
	t.Helper()
	// Use /tmp for short socket paths (macOS 104-char limit).
	dir, err := os.MkdirTemp("/tmp", "streamtabs-client-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func newServer() *grpc.Server {
	srv := grpc.NewServer()
	rpc.RegisterRuntimeServer(srv, api.NewRuntimeService("test", offlineResolver{}, badge.New(nil, nil, zap.NewNop()), zap.NewNop()))
	return srv
}

func serve(t *testing.T, socketPath string) {
	t.Helper()
	srv := newServer()
	lis, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.GracefulStop)
}

func TestConnectToRunningDaemon(t *testing.T) {
	socket := filepath.Join(socketDir(t), "d.sock")
	serve(t, socket)

	c, pong, err := Connect(context.Background(), Options{Profile: "test", SocketPath: socket})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()
	if pong.Profile != "test" {
		t.Errorf("pong profile = %q, want test", pong.Profile)
	}

	got, err := c.FetchStreamerStatus(context.Background(), []string{"shroud"})
	if err != nil || len(got) != 1 || got[0].Live() {
		t.Errorf("FetchStreamerStatus = %+v, %v", got, err)
	}
}

func TestConnectWithoutDaemon(t *testing.T) {
	socket := filepath.Join(socketDir(t), "missing.sock")
	if _, _, err := Connect(context.Background(), Options{Profile: "test", SocketPath: socket}); err == nil {
		t.Fatal("Connect succeeded with no daemon")
	}
}

func TestWaitForDaemonTimesOut(t *testing.T) {
	socket := filepath.Join(socketDir(t), "missing.sock")
	start := time.Now()
	_, err := WaitForDaemon(context.Background(), socket, 700*time.Millisecond)
	if !errors.Is(err, ErrDaemonNotReady) {
		t.Fatalf("err = %v, want ErrDaemonNotReady", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("WaitForDaemon took %v", time.Since(start))
	}
}

func TestWaitForDaemonSeesLateStart(t *testing.T) {
	socket := filepath.Join(socketDir(t), "late.sock")
	srv := newServer()
	t.Cleanup(srv.Stop)
	go func() {
		time.Sleep(400 * time.Millisecond)
		lis, err := net.Listen("unix", socket)
		if err != nil {
			t.Error(err)
			return
		}
		_ = srv.Serve(lis)
	}()

	pong, err := WaitForDaemon(context.Background(), socket, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if pong.Profile != "test" {
		t.Errorf("pong profile = %q", pong.Profile)
	}
}

func TestDaemonArgsAreQuiet(t *testing.T) {
	got := daemonArgs("work", "/etc/streamtabs.toml")
	want := []string{"--profile", "work", "--quiet", "--config", "/etc/streamtabs.toml"}
	if !slices.Equal(got, want) {
		t.Errorf("daemonArgs = %v, want %v", got, want)
	}
	if got := daemonArgs("main", ""); slices.Contains(got, "--config") {
		t.Errorf("daemonArgs without config = %v", got)
	}
}

func TestDaemonStderrGoesToProfileLog(t *testing.T) {
	home := t.TempDir()
	t.Setenv("STREAMTABS_HOME", home)

	path := DaemonStderrPath("work")
	if !strings.HasPrefix(path, home) {
		t.Fatalf("DaemonStderrPath = %q, want under %q", path, home)
	}

	for _, line := range []string{"first\n", "second\n"} {
		f, err := openDaemonStderr(path)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.WriteString(line); err != nil {
			t.Fatal(err)
		}
		_ = f.Close()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("stderr log = %q, want both writes appended", data)
	}
}
