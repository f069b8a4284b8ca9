package artifact

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deleteLog struct {
	mu    sync.Mutex
	paths []string
	done  chan string
}

func newDeleteLog() *deleteLog {
	return &deleteLog{done: make(chan string, 16)}
}

func (l *deleteLog) record(path string, _ error) {
	l.mu.Lock()
	l.paths = append(l.paths, path)
	l.mu.Unlock()
	l.done <- path
}

func (l *deleteLog) count(path string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, p := range l.paths {
		if p == path {
			n++
		}
	}
	return n
}

func newTestJanitor(t *testing.T, files ...string) (*Janitor, afero.Fs, *deleteLog) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, name := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte("img"), 0o644))
	}
	log := newDeleteLog()
	janitor := NewJanitor(fs, zerolog.Nop())
	janitor.OnDelete = log.record
	return janitor, fs, log
}

func TestJanitorDeletesAfterDelay(t *testing.T) {
	t.Parallel()

	janitor, fs, log := newTestJanitor(t, "a.jpg")
	janitor.Schedule("a.jpg", 10*time.Millisecond)
	assert.Equal(t, 1, janitor.Pending())

	select {
	case path := <-log.done:
		assert.Equal(t, "a.jpg", path)
	case <-time.After(2 * time.Second):
		t.Fatalf("deletion did not run")
	}

	exists, err := afero.Exists(fs, "a.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, janitor.Pending())
}

func TestJanitorFlushDeletesExactlyOnce(t *testing.T) {
	t.Parallel()

	janitor, fs, log := newTestJanitor(t, "a.jpg", "b.jpg")
	janitor.Schedule("a.jpg", time.Hour)
	janitor.Schedule("b.jpg", time.Hour)
	janitor.Schedule("a.jpg", time.Hour)

	assert.Equal(t, 2, janitor.Flush())
	assert.Equal(t, 0, janitor.Pending())
	assert.Equal(t, 0, janitor.Flush())

	for _, name := range []string{"a.jpg", "b.jpg"} {
		exists, err := afero.Exists(fs, name)
		require.NoError(t, err)
		assert.False(t, exists, name)
		assert.Equal(t, 1, log.count(name), name)
	}
}

func TestJanitorFlushRacesTimers(t *testing.T) {
	t.Parallel()

	janitor, _, log := newTestJanitor(t, "a.jpg")
	janitor.Schedule("a.jpg", 0)
	janitor.Flush()

	<-log.done
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, log.count("a.jpg"))
}

func TestJanitorCancel(t *testing.T) {
	t.Parallel()

	janitor, fs, log := newTestJanitor(t, "a.jpg")
	janitor.Schedule("a.jpg", 10*time.Millisecond)
	assert.True(t, janitor.Cancel("a.jpg"))
	assert.False(t, janitor.Cancel("a.jpg"))

	time.Sleep(50 * time.Millisecond)
	exists, err := afero.Exists(fs, "a.jpg")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 0, log.count("a.jpg"))
}

func TestJanitorToleratesMissingFiles(t *testing.T) {
	t.Parallel()

	janitor, _, log := newTestJanitor(t)
	janitor.Schedule("gone.jpg", time.Hour)
	assert.Equal(t, 1, janitor.Flush())
	assert.Equal(t, 1, log.count("gone.jpg"))
}
