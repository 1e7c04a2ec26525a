package scratch

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

// Tracker registers scratch files that must be removed when a request ends.
type Tracker interface {
	Track(path string)
}

// Reaper owns the scratch files created for one request.
// Track is safe for concurrent use by rasterizer workers.
type Reaper struct {
	mu     sync.Mutex
	paths  []string
	done   bool
	logger *slog.Logger
}

func NewReaper(logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{logger: logger}
}

// Track records path for removal. Register a path before writing to it so a
// failure half way through still gets cleaned.
func (r *Reaper) Track(path string) {
	if path == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		// Cleanup already ran; remove now so nothing outlives the request.
		r.remove(path)
		return
	}
	r.paths = append(r.paths, path)
}

// Tracked returns a copy of the registered paths.
func (r *Reaper) Tracked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

// Cleanup removes every tracked path, newest first. Failures are logged and
// swallowed. Calling it again is a no-op.
func (r *Reaper) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	for i := len(r.paths) - 1; i >= 0; i-- {
		r.remove(r.paths[i])
	}
	r.logger.Debug("scratch.cleanup.ok", "files", len(r.paths))
	r.paths = nil
}

func (r *Reaper) remove(path string) {
	if err := os.RemoveAll(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("scratch.cleanup.remove_failed", "path", path, "error", err)
	}
}
