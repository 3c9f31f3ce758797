package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultWorkers is the worker count used when none is configured.
const DefaultWorkers = 10

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// Workers bounds how many requests run at once. Defaults to DefaultWorkers.
	Workers int
	Logger  *slog.Logger
	// Registerer receives the dispatcher's metrics when non-nil.
	Registerer prometheus.Registerer
}

type job struct {
	id   string
	req  Request
	done func(*Response, error)
}

// Dispatcher runs requests on a fixed pool of workers. Each worker waits for
// a rate limiter permit, calls the transport and reports the outcome to the
// job's completion func exactly once.
//
// The queue in front of the pool is unbounded: Dispatch never blocks and
// never rejects work because the pool is busy. Callers that submit faster
// than the API allows will grow the queue without limit.
type Dispatcher struct {
	limiter   RateLimiter
	transport Transport
	pool      *ants.Pool
	log       *slog.Logger
	metrics   *dispatchMetrics

	// ctx is cancelled only when Close gives up waiting.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []job
	closed bool
	fed    chan struct{}
}

// NewDispatcher starts a dispatcher. Close must be called to release its
// workers.
func NewDispatcher(limiter RateLimiter, transport Transport, cfg DispatcherConfig) (*Dispatcher, error) {
	if limiter == nil {
		limiter = noopLimiter{}
	}
	if transport == nil {
		return nil, &UsageError{Op: "new dispatcher", Reason: "nil transport"}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "dispatcher"))

	metrics, err := newDispatchMetrics(cfg.Registerer)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(cfg.Workers,
		ants.WithPreAlloc(true),
		ants.WithLogger(antsLogger{log}),
	)
	if err != nil {
		return nil, fmt.Errorf("enrich: create worker pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		limiter:   limiter,
		transport: transport,
		pool:      pool,
		log:       log,
		metrics:   metrics,
		ctx:       ctx,
		cancel:    cancel,
		fed:       make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.feed()
	return d, nil
}

// Dispatch queues req and returns at once. done receives the outcome on a
// worker goroutine. The only error is ErrClosed, returned before anything
// is queued.
func (d *Dispatcher) Dispatch(req Request, done func(*Response, error)) error {
	if done == nil {
		return &UsageError{Op: "dispatch", Reason: "nil completion func"}
	}
	j := job{id: uuid.NewString(), req: req, done: done}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.queue = append(d.queue, j)
	d.metrics.Queued.Inc()
	d.mu.Unlock()

	d.cond.Signal()
	d.log.Debug("request queued", "request_id", j.id, "method", req.method(), "path", req.Path)
	return nil
}

// QueueDepth returns the number of requests not yet handed to a worker.
func (d *Dispatcher) QueueDepth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Running returns the number of busy workers.
func (d *Dispatcher) Running() int { return d.pool.Running() }

// Workers returns the pool size.
func (d *Dispatcher) Workers() int { return d.pool.Cap() }

// feed moves jobs from the queue into the pool, blocking on Submit while all
// workers are busy. It exits once the dispatcher is closed and the queue is
// empty.
func (d *Dispatcher) feed() {
	defer close(d.fed)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		j := d.queue[0]
		d.queue[0] = job{}
		d.queue = d.queue[1:]
		d.metrics.Queued.Dec()
		d.mu.Unlock()

		if err := d.pool.Submit(func() { d.run(j) }); err != nil {
			d.log.Error("submit to worker pool failed", "request_id", j.id, "error", err)
			d.deliver(j, nil, &TransportError{Err: fmt.Errorf("submit: %w", err)})
		}
	}
}

func (d *Dispatcher) run(j job) {
	d.metrics.InFlight.Inc()
	defer d.metrics.InFlight.Dec()

	resp, err := d.execute(j)
	if err != nil {
		d.metrics.Requests.WithLabelValues("failure").Inc()
		d.log.Warn("request failed", "request_id", j.id, "path", j.req.Path, "error", err)
	} else {
		d.metrics.Requests.WithLabelValues("success").Inc()
		d.log.Debug("request succeeded", "request_id", j.id, "path", j.req.Path, "status", resp.StatusCode)
	}
	d.deliver(j, resp, err)
}

// execute never panics; a panic in the limiter or transport becomes an error.
func (d *Dispatcher) execute(j job) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic while executing request", "request_id", j.id, "panic", r)
			resp, err = nil, &TransportError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	waitStart := time.Now()
	if err := d.limiter.Acquire(d.ctx); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("wait for permit: %w", err)}
	}
	if waited := time.Since(waitStart); waited > time.Millisecond {
		d.log.Debug("waited for permit", "request_id", j.id, "wait", waited)
	}
	d.metrics.PermitWait.Observe(time.Since(waitStart).Seconds())

	resp, err = d.transport.Execute(d.ctx, j.req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, &TransportError{Err: fmt.Errorf("transport returned no response")}
	}
	if perSecond, ok := rateFromHeader(resp.Header); ok && d.limiter.SetRate(perSecond) {
		d.metrics.Rate.Set(perSecond)
		d.log.Info("rate limit discovered", "permits_per_second", perSecond, "request_id", j.id)
	}
	return resp, nil
}

// deliver hands the outcome to the job. Panics from user code are logged and
// swallowed so the worker stays alive.
func (d *Dispatcher) deliver(j job, resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic in completion callback", "request_id", j.id, "panic", r)
		}
	}()
	j.done(resp, err)
}

// Close stops accepting requests and waits for queued and running ones to
// finish. If ctx ends first, pending permit waits and HTTP calls are
// cancelled so the remaining requests fail quickly.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	already := d.closed
	d.closed = true
	d.mu.Unlock()
	d.cond.Broadcast()
	if already {
		<-d.fed
		return nil
	}

	select {
	case <-d.fed:
	case <-ctx.Done():
		d.cancel()
		<-d.fed
	}

	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = max(time.Until(deadline), 10*time.Millisecond)
	}
	err := d.pool.ReleaseTimeout(timeout)
	d.cancel()
	if err != nil {
		return fmt.Errorf("enrich: release workers: %w", err)
	}
	return nil
}

type antsLogger struct{ log *slog.Logger }

func (l antsLogger) Printf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}
