package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// FileName is the lock file inside a profile directory.
const FileName = "LOCK"

// Info is the record a daemon writes into its lock file.
type Info struct {
	PID     int
	Started time.Time
}

func (i Info) String() string {
	return fmt.Sprintf("pid=%d\nstarted=%s\n", i.PID, i.Started.UTC().Format(time.RFC3339))
}

// ParseInfo reads a lock file body. Unknown or malformed lines are ignored.
func ParseInfo(content string) Info {
	var info Info
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			info.PID, _ = strconv.Atoi(value)
		case "started":
			info.Started, _ = time.Parse(time.RFC3339, value)
		}
	}
	return info
}

// LockHeldError is returned when another daemon already serves the profile.
type LockHeldError struct {
	Holder Info
	Path   string
}

func (e *LockHeldError) Error() string {
	return fmt.Sprintf("profile already served by daemon pid %d (%s)", e.Holder.PID, e.Path)
}

// Lock is an exclusive flock on a profile's lock file, held for the daemon's
// lifetime.
type Lock struct {
	file *os.File
	path string
	info Info
}

// Acquire takes the lock for profileDir, creating the directory if needed.
// It returns *LockHeldError when another process holds it.
func Acquire(profileDir string) (*Lock, error) {
	if err := os.MkdirAll(profileDir, 0700); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	path := filepath.Join(profileDir, FileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		data, _ := os.ReadFile(path)
		_ = f.Close()
		return nil, &LockHeldError{Holder: ParseInfo(string(data)), Path: path}
	}

	info := Info{PID: os.Getpid(), Started: time.Now().Truncate(time.Second)}
	if err := rewrite(f, info.String()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	return &Lock{file: f, path: path, info: info}, nil
}

func rewrite(f *os.File, content string) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err := f.WriteString(content)
	return err
}

// Info returns the record written when the lock was taken.
func (l *Lock) Info() Info {
	return l.info
}

// Release removes the lock file and drops the lock. Safe on a nil or
// already released Lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

// Inspect reports the record in profileDir's lock file and whether a live
// process still holds it. A file left behind by a crashed daemon reports
// held=false with the stale record.
func Inspect(profileDir string) (info Info, held bool, err error) {
	path := filepath.Join(profileDir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Info{}, false, nil
	}
	if err != nil {
		return Info{}, false, fmt.Errorf("read lock file: %w", err)
	}
	info = ParseInfo(string(data))

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return info, false, nil
	}
	if err != nil {
		return info, false, fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_SH|syscall.LOCK_NB); err != nil {
		return info, true, nil
	}
	_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	return info, false, nil
}
