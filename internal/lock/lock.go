// Package lock provides the single-writer guard around a publish attempt.
//
// The lock is a marker file created with O_CREATE|O_EXCL: whoever creates it
// owns the publish slot until Release removes it. Contention is reported
// once, immediately, as ErrBusy. There is no waiting and no retry.
//
// A process killed while holding the lock leaves the marker behind. Stale
// markers are never reclaimed automatically; an operator removes them
// (postbot unlock --force) after checking that no run is active.
package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrBusy means another run holds the lock.
var ErrBusy = errors.New("another run is already active")

// Handle is exclusive ownership of the lock marker.
type Handle struct {
	path string
	file *os.File
	once sync.Once
}

// Acquire creates the marker at path and writes the current pid into it.
// It returns ErrBusy (wrapped, with the path) if the marker already exists.
func Acquire(path string) (*Handle, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%w (lock exists: %s)", ErrBusy, path)
	}
	if err != nil {
		return nil, fmt.Errorf("create lock %s: %w", path, err)
	}

	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write lock %s: %w", path, err)
	}

	return &Handle{path: path, file: f}, nil
}

// Path returns the marker location.
func (h *Handle) Path() string {
	return h.path
}

// Release closes and removes the marker. It is idempotent and safe on a nil
// handle. Cleanup failures are logged, never returned, so they cannot mask
// the outcome of the locked work.
//
// The marker is removed only while it still carries this process's pid. If
// an operator force-removed it and another run acquired the lock since, that
// run's marker is left in place.
func (h *Handle) Release(logger *slog.Logger) {
	if h == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	h.once.Do(func() {
		if err := h.file.Close(); err != nil {
			logger.Warn("closing lock marker", "path", h.path, "error", err)
		}

		raw, err := os.ReadFile(h.path)
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		if err != nil {
			logger.Warn("reading lock marker", "path", h.path, "error", err)
			return
		}
		if owner := strings.TrimSpace(string(raw)); owner != strconv.Itoa(os.Getpid()) {
			logger.Warn("lock marker owned by another run, leaving it", "path", h.path, "owner", owner)
			return
		}

		if err := os.Remove(h.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("removing lock marker", "path", h.path, "error", err)
		}
	})
}

// Info describes a lock marker found on disk.
type Info struct {
	Held bool
	PID  int // 0 if the marker content is not a pid
	Age  time.Duration
}

// Inspect reports whether the marker at path exists and who wrote it.
// Diagnostic only: the result may be stale by the time it is read.
func Inspect(path string, now time.Time) (Info, error) {
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, fmt.Errorf("stat lock: %w", err)
	}

	info := Info{Held: true, Age: now.Sub(st.ModTime())}
	raw, err := os.ReadFile(path)
	if err != nil {
		return info, fmt.Errorf("read lock: %w", err)
	}
	if pid, err := strconv.Atoi(strings.TrimSpace(string(raw))); err == nil {
		info.PID = pid
	}
	return info, nil
}

// ForceRemove deletes the marker regardless of owner. It reports whether a
// marker was present. Only for operator use on stale locks.
func ForceRemove(path string) (bool, error) {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remove lock: %w", err)
	}
	return true, nil
}
