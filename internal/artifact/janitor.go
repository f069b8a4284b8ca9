package artifact

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Janitor deletes files after a delay. Each scheduled path is deleted at most once,
// whether by its timer or by Flush; failures are logged and otherwise ignored.
type Janitor struct {
	fs     afero.Fs
	logger zerolog.Logger
	// OnDelete, when set, is called after every deletion attempt. Set it before the
	// first Schedule.
	OnDelete func(path string, err error)

	mu      sync.Mutex
	pending map[string]*cleanupEntry
}

type cleanupEntry struct {
	timer *time.Timer
}

func NewJanitor(fs afero.Fs, logger zerolog.Logger) *Janitor {
	return &Janitor{
		fs:      fs,
		logger:  logger,
		pending: make(map[string]*cleanupEntry),
	}
}

// Schedule deletes path after delay. Scheduling a path that is already pending replaces
// the earlier deadline.
func (j *Janitor) Schedule(path string, delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	entry := &cleanupEntry{}

	j.mu.Lock()
	if previous, ok := j.pending[path]; ok {
		previous.timer.Stop()
	}
	j.pending[path] = entry
	entry.timer = time.AfterFunc(delay, func() { j.fire(path, entry) })
	j.mu.Unlock()
}

// Cancel drops a pending deletion. It reports whether one was pending.
func (j *Janitor) Cancel(path string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, ok := j.pending[path]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(j.pending, path)
	return true
}

// Pending is the number of deletions not yet carried out.
func (j *Janitor) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.pending)
}

// Flush runs every pending deletion now and returns how many were attempted.
func (j *Janitor) Flush() int {
	j.mu.Lock()
	paths := make([]string, 0, len(j.pending))
	for path, entry := range j.pending {
		entry.timer.Stop()
		paths = append(paths, path)
	}
	j.pending = make(map[string]*cleanupEntry)
	j.mu.Unlock()

	for _, path := range paths {
		j.remove(path)
	}
	return len(paths)
}

func (j *Janitor) fire(path string, entry *cleanupEntry) {
	j.mu.Lock()
	if j.pending[path] != entry {
		// Cancelled, rescheduled or flushed in the meantime.
		j.mu.Unlock()
		return
	}
	delete(j.pending, path)
	j.mu.Unlock()

	j.remove(path)
}

func (j *Janitor) remove(path string) {
	err := j.fs.Remove(path)
	switch {
	case err == nil:
		j.logger.Debug().Str("path", path).Msg("upload artifact removed")
	case errors.Is(err, os.ErrNotExist):
		j.logger.Debug().Str("path", path).Msg("upload artifact already gone")
	default:
		j.logger.Warn().Err(err).Str("path", path).Msg("failed to remove upload artifact")
	}
	if j.OnDelete != nil {
		j.OnDelete(path, err)
	}
}
