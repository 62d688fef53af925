// Package client connects popup and CLI processes to the profile daemon,
// starting it on demand.
package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/matheus3301/streamtabs/internal/profile"
	"github.com/matheus3301/streamtabs/internal/rpc"
	"go.uber.org/zap"
)

// DaemonBinary is the daemon executable name.
const DaemonBinary = "streamd"

// ErrDaemonNotReady is returned when a started daemon never answers.
var ErrDaemonNotReady = errors.New("daemon did not become ready")

// Options controls Connect.
type Options struct {
	Profile    string
	SocketPath string
	// ConfigPath is forwarded to a started daemon when set.
	ConfigPath string
	// AutoStart starts the daemon when the socket does not answer.
	AutoStart    bool
	StartTimeout time.Duration
	Logger       *zap.Logger
}

// Connect returns a client for the profile's daemon along with its ping
// reply.
func Connect(ctx context.Context, opts Options) (*rpc.Client, rpc.Pong, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = 10 * time.Second
	}

	pong, err := Probe(ctx, opts.SocketPath)
	if err != nil {
		if !opts.AutoStart {
			return nil, rpc.Pong{}, fmt.Errorf("daemon not running for profile %q: %w", opts.Profile, err)
		}
		log.Info("daemon not answering, starting", zap.String("socket", opts.SocketPath), zap.Error(err))
		if err := StartDaemon(opts.Profile, opts.ConfigPath); err != nil {
			return nil, rpc.Pong{}, fmt.Errorf("start daemon: %w", err)
		}
		pong, err = WaitForDaemon(ctx, opts.SocketPath, opts.StartTimeout)
		if err != nil {
			return nil, rpc.Pong{}, fmt.Errorf("%w (see %s)", err, DaemonStderrPath(opts.Profile))
		}
		log.Info("daemon started", zap.String("profile", pong.Profile))
	}

	c, err := rpc.Dial(opts.SocketPath)
	if err != nil {
		return nil, rpc.Pong{}, err
	}
	return c, pong, nil
}

// Probe sends a ping over socketPath.
func Probe(ctx context.Context, socketPath string) (rpc.Pong, error) {
	c, err := rpc.Dial(socketPath)
	if err != nil {
		return rpc.Pong{}, err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.Ping(ctx)
}

// DaemonStderrPath is where a started daemon's stderr goes, so nothing it
// prints lands on the terminal of the process that started it.
func DaemonStderrPath(name string) string {
	return profile.LogPath(name, "streamd-stderr")
}

func daemonArgs(name, configPath string) []string {
	args := []string{"--profile", name, "--quiet"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return args
}

func openDaemonStderr(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open daemon stderr log: %w", err)
	}
	return f, nil
}

// StartDaemon launches a quiet streamd for profile name in the background.
// The binary next to the running executable wins over one on PATH.
func StartDaemon(name, configPath string) error {
	bin := DaemonBinary
	if executable, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(executable), DaemonBinary)
		if _, err := os.Stat(sibling); err == nil {
			bin = sibling
		}
	}

	stderr, err := openDaemonStderr(DaemonStderrPath(name))
	if err != nil {
		return err
	}
	// The child keeps its own descriptor.
	defer func() { _ = stderr.Close() }()

	cmd := exec.Command(bin, daemonArgs(name, configPath)...)
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return err
	}
	// The daemon outlives us; reap it if it exits first.
	go func() { _ = cmd.Wait() }()
	return nil
}

// WaitForDaemon polls with a real ping until the daemon answers or timeout
// elapses.
func WaitForDaemon(ctx context.Context, socketPath string, timeout time.Duration) (rpc.Pong, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	for {
		if pong, err := Probe(ctx, socketPath); err == nil {
			return pong, nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return rpc.Pong{}, ErrDaemonNotReady
		}
	}
}
