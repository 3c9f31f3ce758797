package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ryhazerus/enrich/store"
)

// Client is the entry point of the package. It owns the rate limiter, the
// dispatcher and the usage store, and is safe for concurrent use.
type Client struct {
	cfg        Config
	limiter    RateLimiter
	dispatcher *Dispatcher
	converter  BodyConverter
	usage      *usageTransport
	log        *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// New builds a Client from DefaultConfig and opts.
func New(opts ...Option) (*Client, error) {
	s := settings{cfg: DefaultConfig()}
	for _, o := range opts {
		o(&s)
	}
	cfg := s.cfg
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log := s.logger
	if log == nil {
		log = newLogger(cfg.LogLevel)
	}
	if s.converter == nil {
		s.converter = JSONConverter{}
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}

	transport := s.transport
	if transport == nil {
		t, err := NewHTTPTransport(cfg.BaseURL, cfg.HTTPClient, s.converter, cfg.Headers,
			log.With(slog.String("component", "transport")))
		if err != nil {
			return nil, err
		}
		transport = t
	}
	usage := &usageTransport{base: transport, store: s.store, window: cfg.UsageWindow, log: log}

	limiter := NewRateLimiter(cfg.Policy)
	d, err := NewDispatcher(limiter, usage, DispatcherConfig{
		Workers:    cfg.WorkerCount,
		Logger:     log,
		Registerer: s.registerer,
	})
	if err != nil {
		return nil, err
	}

	log.Debug("client created",
		"base_url", cfg.BaseURL,
		"policy", cfg.Policy.String(),
		"workers", d.Workers(),
		"usage_window", cfg.UsageWindow.String())

	return &Client{
		cfg:        cfg,
		limiter:    limiter,
		dispatcher: d,
		converter:  s.converter,
		usage:      usage,
		log:        log.With(slog.String("component", "client")),
	}, nil
}

// Send dispatches req and blocks until its result is decoded into a T. When
// ctx ends first, Send returns an *InterruptedWaitError; the request keeps
// running and its result is dropped.
func Send[T any](ctx context.Context, c *Client, req Request) (T, error) {
	pending := NewPendingResult[T]()
	if err := SendAsync[T](c, req, pending); err != nil {
		var zero T
		return zero, err
	}
	return pending.Get(ctx)
}

// SendAsync dispatches req and returns without waiting. The outcome goes to
// cb. A nil cb is only allowed when req carries a webhook, since the result
// would otherwise be lost; that case returns a *UsageError before anything
// is queued. A typed nil, such as a nil *PendingResult, counts as nil.
func SendAsync[T any](c *Client, req Request, cb Callback[T]) error {
	t := target[T]{kind: userTarget, cb: cb}
	if isNilCallback(cb) {
		if !req.HasWebhook() {
			return &UsageError{Op: "send async", Reason: "cannot send an asynchronous request without a callback or a webhook"}
		}
		t = target[T]{kind: noopTarget}
	}

	b := newBridge(c.converter, t)
	if err := c.dispatcher.Dispatch(req, b.complete); err != nil {
		if errors.Is(err, ErrClosed) {
			return &UsageError{Op: "send async", Reason: "client is closed", Err: err}
		}
		return err
	}
	return nil
}

// Do sends req and returns the undecoded response body.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	return Send[json.RawMessage](ctx, c, req)
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// Policy returns the configured rate limiting policy.
func (c *Client) Policy() Policy { return c.cfg.Policy }

// RateLimit returns the permits per second discovered from the API, or 0.
func (c *Client) RateLimit() float64 { return c.limiter.Rate() }

// QueueDepth returns the number of requests waiting for a worker.
func (c *Client) QueueDepth() int { return c.dispatcher.QueueDepth() }

// Usage returns how many requests were sent to path in the current usage window.
func (c *Client) Usage(ctx context.Context, path string) (int64, error) {
	return c.usage.store.Count(ctx, path, c.usage.window.Bucket(time.Now()))
}

// ResetUsage clears the counter for path.
func (c *Client) ResetUsage(ctx context.Context, path string) error {
	return c.usage.store.Reset(ctx, path)
}

// OperationUsage is one row of UsageSnapshot.
type OperationUsage struct {
	Path     string
	Requests int64
}

// UsageSnapshot returns the current-window counter of every path this client
// has sent, sorted by path.
func (c *Client) UsageSnapshot(ctx context.Context) ([]OperationUsage, error) {
	w := c.usage.window.Bucket(time.Now())
	paths := c.usage.paths()
	out := make([]OperationUsage, 0, len(paths))
	for _, p := range paths {
		n, err := c.usage.store.Count(ctx, p, w)
		if err != nil {
			return nil, fmt.Errorf("enrich: usage snapshot %s: %w", p, err)
		}
		out = append(out, OperationUsage{Path: p, Requests: n})
	}
	return out, nil
}

// Close stops accepting requests, waits for queued ones to finish (see
// Dispatcher.Close) and closes the usage store.
func (c *Client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.closeErr = errors.Join(c.dispatcher.Close(ctx), c.usage.store.Close())
		c.log.Debug("client closed", "error", c.closeErr)
	})
	return c.closeErr
}

// usageTransport counts every request that reaches the wire.
type usageTransport struct {
	base   Transport
	store  store.Store
	window UsageWindow
	log    *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func (u *usageTransport) Execute(ctx context.Context, req Request) (*Response, error) {
	if _, err := u.store.Record(ctx, req.Path, u.window.Bucket(time.Now())); err != nil {
		u.log.Warn("usage record failed", "path", req.Path, "error", err)
	}
	u.mu.Lock()
	if u.seen == nil {
		u.seen = make(map[string]struct{})
	}
	u.seen[req.Path] = struct{}{}
	u.mu.Unlock()
	return u.base.Execute(ctx, req)
}

func (u *usageTransport) paths() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, 0, len(u.seen))
	for p := range u.seen {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
