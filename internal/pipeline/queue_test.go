package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horse.fit/camtranslate/internal/artifact"
)

type blockingProcessor struct {
	release chan struct{}
	mu      sync.Mutex
	paths   []string
}

func (p *blockingProcessor) Process(_ context.Context, path string) Result {
	<-p.release
	p.mu.Lock()
	p.paths = append(p.paths, path)
	p.mu.Unlock()
	return Result{Message: MessageNoText, Outcome: OutcomeNoText}
}

type recordingScheduler struct {
	mu     sync.Mutex
	paths  []string
	delays []time.Duration
}

func (s *recordingScheduler) Schedule(path string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
	s.delays = append(s.delays, delay)
}

func (s *recordingScheduler) scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

func TestQueueRunsJobsAndSchedulesCleanup(t *testing.T) {
	t.Parallel()

	processor := &blockingProcessor{release: make(chan struct{})}
	close(processor.release)
	scheduler := &recordingScheduler{}
	done := make(chan Result, 2)

	queue := NewQueue(processor, scheduler, QueueOptions{
		Workers:      2,
		Size:         4,
		CleanupDelay: 30 * time.Second,
		OnJobDone:    func(_ artifact.Artifact, result Result) { done <- result },
	}, zerolog.Nop())
	queue.Start(context.Background())

	require.NoError(t, queue.Submit(artifact.Artifact{Name: "a.jpg", Path: "a.jpg"}))
	require.NoError(t, queue.Submit(artifact.Artifact{Name: "b.jpg", Path: "b.jpg"}))

	for i := 0; i < 2; i++ {
		select {
		case result := <-done:
			assert.Equal(t, OutcomeNoText, result.Outcome)
		case <-time.After(2 * time.Second):
			t.Fatalf("job %d did not finish", i)
		}
	}
	require.NoError(t, queue.Close())

	assert.ElementsMatch(t, []string{"a.jpg", "b.jpg"}, scheduler.scheduled())
	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second}, scheduler.delays)
}

func TestQueueSubmitIsNonBlockingWhenFull(t *testing.T) {
	t.Parallel()

	processor := &blockingProcessor{release: make(chan struct{})}
	scheduler := &recordingScheduler{}
	started := make(chan struct{}, 1)

	queue := NewQueue(processor, scheduler, QueueOptions{
		Workers:    1,
		Size:       1,
		OnJobStart: func(artifact.Artifact) { started <- struct{}{} },
	}, zerolog.Nop())
	queue.Start(context.Background())

	require.NoError(t, queue.Submit(artifact.Artifact{Path: "running.jpg"}))
	<-started
	require.NoError(t, queue.Submit(artifact.Artifact{Path: "waiting.jpg"}))
	assert.ErrorIs(t, queue.Submit(artifact.Artifact{Path: "rejected.jpg"}), ErrQueueFull)
	assert.Equal(t, 1, queue.Len())

	close(processor.release)
	require.NoError(t, queue.Close())

	assert.ElementsMatch(t, []string{"running.jpg", "waiting.jpg"}, scheduler.scheduled())
	assert.ErrorIs(t, queue.Submit(artifact.Artifact{Path: "late.jpg"}), ErrQueueClosed)
}

func TestQueueCloseWithoutStart(t *testing.T) {
	t.Parallel()

	queue := NewQueue(&blockingProcessor{}, &recordingScheduler{}, QueueOptions{}, zerolog.Nop())
	require.NoError(t, queue.Close())
	require.NoError(t, queue.Close())
}

func TestQueueCloseBeforeStartSchedulesCleanup(t *testing.T) {
	t.Parallel()

	processor := &blockingProcessor{release: make(chan struct{})}
	close(processor.release)
	scheduler := &recordingScheduler{}

	queue := NewQueue(processor, scheduler, QueueOptions{Size: 4, CleanupDelay: time.Second}, zerolog.Nop())
	require.NoError(t, queue.Submit(artifact.Artifact{Name: "a.jpg", Path: "a.jpg"}))
	require.NoError(t, queue.Submit(artifact.Artifact{Name: "b.jpg", Path: "b.jpg"}))

	require.NoError(t, queue.Close())
	require.NoError(t, queue.Close())

	assert.Equal(t, []string{"a.jpg", "b.jpg"}, scheduler.scheduled())
	assert.Equal(t, 0, queue.Len())
	processor.mu.Lock()
	assert.Empty(t, processor.paths)
	processor.mu.Unlock()
}
