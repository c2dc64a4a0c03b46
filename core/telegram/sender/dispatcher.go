package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/meteobot/core/logger"
	"github.com/m3rciful/meteobot/core/telegram/netutil"
)

const component = "tg.sender"

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull means the job was rejected because the queue is saturated.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options tunes the worker pool. Zero values get small defaults; retries
// are off unless MaxRetries is set.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds one job including its retries.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	o.QueueSize = positiveOr(o.QueueSize, 64)
	o.Workers = positiveOr(o.Workers, 2)
	o.MaxRetries = max(o.MaxRetries, 0)
	o.RetryBackoff = positiveOr(o.RetryBackoff, time.Second)
	o.MaxDuration = positiveOr(o.MaxDuration, 10*time.Second)
	return o
}

func positiveOr[T int | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}

type job struct {
	ctx    context.Context
	action string
	run    func(ctx context.Context) error
}

// Dispatcher runs fire-and-forget Bot API calls on a fixed worker pool.
type Dispatcher struct {
	opts    Options
	queue   chan job
	workers errgroup.Group

	mu     sync.RWMutex
	closed bool

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, queue: make(chan job, opts.QueueSize)}
	for range opts.Workers {
		d.workers.Go(func() error {
			for j := range d.queue {
				d.process(j)
			}
			return nil
		})
	}
	return d
}

// Enqueue schedules run without blocking. run gets a context that keeps the
// values of ctx but not its cancellation.
func (d *Dispatcher) Enqueue(ctx context.Context, action string, run func(ctx context.Context) error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), action: action, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Sent counts jobs that eventually succeeded.
func (d *Dispatcher) Sent() uint64 { return d.sent.Load() }

// ErrorCount counts jobs that gave up.
func (d *Dispatcher) ErrorCount() uint64 { return d.failed.Load() }

// Close stops intake and drains the queue. Repeated calls are no-ops.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	_ = d.workers.Wait()
}

func (d *Dispatcher) process(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempt, err := d.attempt(ctx, j)
	attrs := []slog.Attr{
		slog.String("action", j.action),
		slog.Int("attempts", attempt),
		slog.Duration("duration", logger.Took(start)),
	}
	if err == nil {
		d.sent.Add(1)
		logger.Debug(j.ctx, component, "send.success", attrs...)
		return
	}
	d.failed.Add(1)
	logger.Error(j.ctx, component, "send.fail", append(attrs,
		slog.String("error_kind", netutil.Classify(err)),
		slog.String("err", netutil.Redact(err)),
	)...)
}

// attempt runs j until it succeeds, fails permanently or runs out of
// attempts, backing off linearly between tries.
func (d *Dispatcher) attempt(ctx context.Context, j job) (int, error) {
	limit := d.opts.MaxRetries + 1
	for n := 1; ; n++ {
		err := j.run(ctx)
		if err == nil || n == limit || !netutil.ShouldRetry(err) {
			return n, err
		}
		wait := time.NewTimer(d.opts.RetryBackoff * time.Duration(n))
		select {
		case <-ctx.Done():
			wait.Stop()
			return n, errors.Join(err, ctx.Err())
		case <-wait.C:
		}
	}
}
