package worker

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/krunch/internal/derive"
)

// ErrPoolClosed is returned by Submit after the pool has stopped, and
// delivered to jobs still queued when it stops.
var ErrPoolClosed = errors.New("worker pool closed")

// Job is one derivation request. Secret is read, never modified or
// retained; the submitter clears it once every result has arrived.
type Job struct {
	Secret []byte
	Params derive.Params
}

// Result is the outcome of one Job. Exactly one of Password and Err is set.
type Result struct {
	RequestID string
	Domain    string
	Password  string
	Err       error
}

// Pool runs derivations off the requester's goroutine.
//
// Thread-safety model:
//   - Submit, Generate and Stop: safe from any goroutine
//   - Run: call exactly once
//
// Delivery is guarded: a result whose submitting context is done by the time
// it is ready is dropped, not sent. A derivation that already started always
// runs to completion; the engine has no cancellation hooks.
type Pool struct {
	engine  *derive.Engine
	queue   *jobQueue
	ids     IDGenerator
	workers int
	logger  *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers sets the number of concurrent derivations. Values below one
// select runtime.NumCPU.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		p.workers = n
	}
}

// WithIDGenerator replaces the UUIDv7 request ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(p *Pool) {
		p.ids = g
	}
}

// WithLogger sets the logger. Secrets and passwords are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = l
	}
}

// NewPool returns a Pool deriving with engine. Call Run to start it.
func NewPool(engine *derive.Engine, opts ...Option) *Pool {
	p := &Pool{
		engine: engine,
		queue:  newJobQueue(),
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = runtime.NumCPU()
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// Workers returns the number of worker goroutines Run starts.
func (p *Pool) Workers() int {
	return p.workers
}

// Run processes jobs until ctx is done or Stop is called. It returns
// ctx.Err() on cancellation and nil after Stop. Jobs still queued when Run
// returns receive ErrPoolClosed.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Debug("worker pool starting", "workers", p.workers)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			return p.work(gctx, i)
		})
	}
	err := g.Wait()

	p.queue.Close()
	for _, t := range p.queue.Drain() {
		p.deliver(t, Result{RequestID: t.id, Domain: t.job.Params.Domain, Err: ErrPoolClosed})
	}

	p.logger.Debug("worker pool stopped", "error", err)
	return err
}

// Stop closes the queue. Workers finish the jobs already queued, then Run
// returns.
func (p *Pool) Stop() {
	p.queue.Close()
}

// Submit enqueues job and returns the channel its result arrives on. The
// channel is buffered and closed after at most one value; it is closed
// without a value when delivery is dropped because ctx is done.
func (p *Pool) Submit(ctx context.Context, job Job) (<-chan Result, error) {
	t := &task{
		id:     p.ids.Generate(),
		ctx:    ctx,
		job:    job,
		result: make(chan Result, 1),
	}
	if !p.queue.Enqueue(t) {
		return nil, ErrPoolClosed
	}
	p.logger.Debug("job queued", "request_id", t.id, "domain", job.Params.Domain)
	return t.result, nil
}

// Generate submits job and waits for its result or for ctx to be done.
func (p *Pool) Generate(ctx context.Context, job Job) (Result, error) {
	ch, err := p.Submit(ctx, job)
	if err != nil {
		return Result{}, err
	}
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res, ok := <-ch:
		if !ok {
			return Result{}, ctx.Err()
		}
		return res, res.Err
	}
}

func (p *Pool) work(ctx context.Context, worker int) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t, ok := p.queue.TryDequeue(); ok {
			p.process(t, worker)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.queue.Wait():
			// The signal channel closes with the queue.
			if p.queue.Len() == 0 && p.queue.Closed() {
				return nil
			}
		}
	}
}

func (p *Pool) process(t *task, worker int) {
	logger := p.logger.With("request_id", t.id, "domain", t.job.Params.Domain, "worker", worker)

	if t.ctx.Err() != nil {
		logger.Debug("requester gone before start, skipping derivation")
		close(t.result)
		return
	}

	password, err := p.engine.Generate(t.job.Secret, t.job.Params)
	if err != nil {
		logger.Warn("derivation failed", "error", err)
	} else {
		logger.Debug("derivation complete")
	}
	p.deliver(t, Result{RequestID: t.id, Domain: t.job.Params.Domain, Password: password, Err: err})
}

// deliver sends res unless the requester's context is done, then closes the
// channel.
func (p *Pool) deliver(t *task, res Result) {
	defer close(t.result)

	if t.ctx.Err() != nil {
		p.logger.Debug("requester gone, dropping result", "request_id", t.id)
		return
	}
	t.result <- res
}
