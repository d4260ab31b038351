package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/file-manager/internal/logging"
	"github.com/iliyamo/file-manager/internal/metrics"
)

var (
	// ErrQueueFull is reported when the in-process buffer has no room.
	ErrQueueFull = errors.New("queue: buffer full")
	// ErrQueueClosed is reported after Close.
	ErrQueueClosed = errors.New("queue: dispatcher closed")
)

// Defaults applied to zero DispatcherOptions fields.
const (
	DefaultBuffer  = 256
	DefaultTimeout = 5 * time.Second
	DefaultWorkers = 2
)

// DispatcherOptions tunes a Dispatcher.
type DispatcherOptions struct {
	Buffer  int
	Timeout time.Duration
	Workers int
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

type job struct {
	queue string
	body  []byte
	done  chan error
}

// Dispatcher decouples request handling from the broker. Enqueue never
// blocks: jobs go into a bounded buffer drained by publisher goroutines,
// each publish bounded by its own timeout rather than the caller's context.
type Dispatcher struct {
	pub     Publisher
	timeout time.Duration
	log     logging.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	wg     sync.WaitGroup
}

// NewDispatcher starts the publisher goroutines.
func NewDispatcher(pub Publisher, opts DispatcherOptions) *Dispatcher {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	d := &Dispatcher{
		pub:     pub,
		timeout: opts.Timeout,
		log:     opts.Logger.With("component", "dispatcher"),
		metrics: opts.Metrics,
		jobs:    make(chan job, opts.Buffer),
	}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.run()
	}
	return d
}

// Enqueue schedules payload for publication to queue. The returned channel
// yields exactly one value: nil once the broker confirmed the message, or
// the reason it was not published.
func (d *Dispatcher) Enqueue(queue string, payload any) <-chan error {
	done := make(chan error, 1)

	body, err := json.Marshal(payload)
	if err != nil {
		done <- fmt.Errorf("marshal %s job: %w", queue, err)
		return done
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.metrics.ObserveEnqueue(queue, metrics.EnqueueClosed)
		done <- ErrQueueClosed
		return done
	}
	select {
	case d.jobs <- job{queue: queue, body: body, done: done}:
	default:
		d.metrics.ObserveEnqueue(queue, metrics.EnqueueFull)
		done <- ErrQueueFull
	}
	return done
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for j := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.pub.Publish(ctx, j.queue, j.body)
		cancel()
		if err != nil {
			d.metrics.ObserveEnqueue(j.queue, metrics.EnqueueFailed)
			d.log.Warn(ctx, "publish failed", "queue", j.queue, "error", err)
		} else {
			d.metrics.ObserveEnqueue(j.queue, metrics.EnqueueOK)
		}
		j.done <- err
	}
}

// Close stops accepting jobs and waits until the buffered ones are
// published or ctx expires.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
