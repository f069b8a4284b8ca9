package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"horse.fit/camtranslate/internal/artifact"
	"horse.fit/camtranslate/internal/metrics"
)

var (
	// ErrQueueFull is returned by Submit when every slot is taken.
	ErrQueueFull = errors.New("processing queue is full")
	// ErrQueueClosed is returned by Submit after Close.
	ErrQueueClosed = errors.New("processing queue is closed")
)

// JobProcessor handles one upload artifact.
type JobProcessor interface {
	Process(ctx context.Context, path string) Result
}

// CleanupScheduler deletes a file after a delay.
type CleanupScheduler interface {
	Schedule(path string, delay time.Duration)
}

type QueueOptions struct {
	Workers      int
	Size         int
	CleanupDelay time.Duration
	Metrics      metrics.Metrics
	// OnJobStart runs on the worker goroutine right before processing.
	OnJobStart func(artifact.Artifact)
	// OnJobDone runs after processing and after cleanup has been scheduled.
	OnJobDone func(artifact.Artifact, Result)
}

// Queue runs uploads through a JobProcessor on a fixed set of workers. Every job's
// artifact is handed to the cleanup scheduler once processing ends.
type Queue struct {
	processor JobProcessor
	cleanup   CleanupScheduler
	opts      QueueOptions
	logger    zerolog.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan artifact.Artifact

	group     *errgroup.Group
	startOnce sync.Once
	closeOnce sync.Once
}

func NewQueue(processor JobProcessor, cleanup CleanupScheduler, opts QueueOptions, logger zerolog.Logger) *Queue {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Size < 1 {
		opts.Size = 1
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	return &Queue{
		processor: processor,
		cleanup:   cleanup,
		opts:      opts,
		logger:    logger,
		jobs:      make(chan artifact.Artifact, opts.Size),
	}
}

// Start launches the workers. ctx is handed to every job; cancelling it does not stop
// the workers, Close does.
func (q *Queue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		group, groupCtx := errgroup.WithContext(ctx)
		q.mu.Lock()
		q.group = group
		q.mu.Unlock()
		for worker := 0; worker < q.opts.Workers; worker++ {
			worker := worker
			group.Go(func() error {
				for job := range q.jobs {
					q.opts.Metrics.SetQueueDepth(len(q.jobs))
					q.run(groupCtx, worker, job)
				}
				return nil
			})
		}
		q.logger.Info().Int("workers", q.opts.Workers).Int("size", q.opts.Size).Msg("processing queue started")
	})
}

// Submit enqueues a job without blocking.
func (q *Queue) Submit(job artifact.Artifact) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		q.opts.Metrics.SetQueueDepth(len(q.jobs))
		return nil
	default:
		return ErrQueueFull
	}
}

// Len is the number of jobs waiting for a worker.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// Close stops intake, lets the workers finish every queued job and waits for them. On a
// queue that was never started, queued jobs are not processed but their artifacts still
// go to the cleanup scheduler.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()
	})

	q.mu.RLock()
	group := q.group
	q.mu.RUnlock()
	if group == nil {
		q.dropPending()
		return nil
	}
	return group.Wait()
}

func (q *Queue) dropPending() {
	for job := range q.jobs {
		q.logger.Warn().Str("filename", job.Name).Msg("queue closed before start, job dropped")
		q.cleanup.Schedule(job.Path, q.opts.CleanupDelay)
	}
	q.opts.Metrics.SetQueueDepth(0)
}

func (q *Queue) run(ctx context.Context, worker int, job artifact.Artifact) {
	logger := q.logger.With().Int("worker", worker).Str("filename", job.Name).Logger()
	result := q.process(ctx, logger, job)
	if q.opts.OnJobDone != nil {
		q.opts.OnJobDone(job, result)
	}
}

func (q *Queue) process(ctx context.Context, logger zerolog.Logger, job artifact.Artifact) Result {
	defer q.cleanup.Schedule(job.Path, q.opts.CleanupDelay)

	if q.opts.OnJobStart != nil {
		q.opts.OnJobStart(job)
	}

	started := time.Now()
	result := q.processor.Process(ctx, job.Path)

	event := logger.Info()
	if result.Outcome != OutcomeTranslated {
		event = logger.Warn()
	}
	event.
		Bool("text_detected", result.TextDetected).
		Str("outcome", result.Outcome).
		Str("record", result.RecordName).
		Dur("elapsed", time.Since(started)).
		Msg(result.Message)
	return result
}
