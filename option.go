package enrich

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ryhazerus/enrich/store"
)

// Option configures a Client.
type Option func(*settings)

type settings struct {
	cfg        Config
	logger     *slog.Logger
	transport  Transport
	converter  BodyConverter
	store      store.Store
	registerer prometheus.Registerer
}

// WithConfig replaces the whole configuration. Options after it still apply.
func WithConfig(cfg Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithBaseURL sets the API root request paths are resolved against.
func WithBaseURL(url string) Option {
	return func(s *settings) { s.cfg.BaseURL = url }
}

// WithPolicy selects the rate limiting policy. Disabled removes the limiter
// from the request path entirely.
func WithPolicy(p Policy) Option {
	return func(s *settings) { s.cfg.Policy = p }
}

// WithWorkerCount sets how many requests may be in flight at once.
func WithWorkerCount(n int) Option {
	return func(s *settings) { s.cfg.WorkerCount = n }
}

// WithHTTPClient sets the client used for HTTP exchanges.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.cfg.HTTPClient = c }
}

// WithHeader adds a header sent with every request, e.g. an API key.
func WithHeader(key, value string) Option {
	return func(s *settings) {
		h := make(map[string]string, len(s.cfg.Headers)+1)
		for k, v := range s.cfg.Headers {
			h[k] = v
		}
		h[key] = value
		s.cfg.Headers = h
	}
}

// WithAPIKey is shorthand for WithHeader(HeaderAPIKey, key).
func WithAPIKey(key string) Option {
	return WithHeader(HeaderAPIKey, key)
}

// WithLogger sets the logger. Without it a JSON logger on stderr is used.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithTransport replaces the HTTP transport. Base URL, HTTP client, headers
// and converter settings are then only used by the caller's transport, if at all.
func WithTransport(t Transport) Option {
	return func(s *settings) { s.transport = t }
}

// WithConverter sets how request bodies are encoded and responses decoded.
func WithConverter(c BodyConverter) Option {
	return func(s *settings) { s.converter = c }
}

// WithStore sets the usage counter backend. An in-memory store is used by
// default. The client closes the store when it is closed.
func WithStore(st store.Store) Option {
	return func(s *settings) { s.store = st }
}

// WithUsageWindow sets the bucket size of the usage counters.
func WithUsageWindow(w UsageWindow) Option {
	return func(s *settings) { s.cfg.UsageWindow = w }
}

// WithMetrics registers the client's Prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *settings) { s.registerer = reg }
}
