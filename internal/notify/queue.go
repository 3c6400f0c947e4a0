// Package notify queues and processes registration confirmation jobs.
// Jobs run on in-process workers or through a rabbitmq queue.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GoEventHub/GoEventHub/internal/config"
)

var (
	// ErrQueueFull is returned by LocalQueue.Publish when the buffer is exhausted.
	ErrQueueFull = errors.New("notification queue is full")
	// ErrQueueClosed is returned when publishing after Close.
	ErrQueueClosed = errors.New("notification queue is closed")
)

// Job asks for the confirmation of one registration.
type Job struct {
	ID             string    `json:"id"`
	RegistrationID uint64    `json:"registration_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewJob returns a job with a fresh id.
func NewJob(registrationID uint64) Job {
	return Job{ID: uuid.NewString(), RegistrationID: registrationID, CreatedAt: time.Now().UTC()}
}

// Handler processes a job. A returned error is logged. The local queue drops
// the job, RabbitQueue requeues it once.
type Handler func(ctx context.Context, job Job) error

// Publisher enqueues jobs without blocking the caller.
type Publisher interface {
	Publish(ctx context.Context, job Job) error
}

// Queue is a Publisher with consumers.
type Queue interface {
	Publisher
	Start(ctx context.Context, h Handler) error
	Close() error
}

// New returns the queue backend selected by cfg.
func New(cfg config.Queue) (Queue, error) {
	switch cfg.Backend {
	case "", config.QueueBackendLocal:
		return NewLocalQueue(cfg.Workers, cfg.Buffer), nil
	case config.QueueBackendRabbitMQ:
		return NewRabbitQueue(cfg.RabbitURL, cfg.Exchange, cfg.Name, cfg.Workers)
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownQueueBackend, cfg.Backend)
	}
}

// LocalQueue runs jobs on worker goroutines fed by a bounded channel.
type LocalQueue struct {
	jobs    chan Job
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewLocalQueue returns a LocalQueue. Non positive values default to one worker and a buffer of 64.
func NewLocalQueue(workers, buffer int) *LocalQueue {
	if workers <= 0 {
		workers = 1
	}

	if buffer <= 0 {
		buffer = 64
	}

	return &LocalQueue{jobs: make(chan Job, buffer), workers: workers}
}

// Publish implements Publisher. It never blocks.
func (q *LocalQueue) Publish(_ context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the workers. They stop when ctx is done or the queue is closed.
func (q *LocalQueue) Start(ctx context.Context, h Handler) error {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)

		go func(worker int) {
			defer q.wg.Done()

			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-q.jobs:
					if !ok {
						return
					}

					if err := h(ctx, job); err != nil {
						log.Warn().Err(err).Int("worker", worker).Str("job_id", job.ID).
							Uint64("registration_id", job.RegistrationID).Msg("Notification job failed")
					}
				}
			}
		}(i)
	}

	log.Info().Int("workers", q.workers).Msg("Local notification queue started")

	return nil
}

// Close stops accepting jobs, drains the buffer and waits for the workers.
func (q *LocalQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}

	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()

	return nil
}
