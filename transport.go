package enrich

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Response is a raw API response as returned by a Transport.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs one HTTP exchange for a Request. A non-2xx status must
// be reported as an error.
type Transport interface {
	Execute(ctx context.Context, req Request) (*Response, error)
}

// HTTPTransport is the default Transport. It resolves request paths against
// a base URL and sends them with an *http.Client.
type HTTPTransport struct {
	base      *url.URL
	client    *http.Client
	converter BodyConverter
	headers   http.Header
}

// NewHTTPTransport builds a transport for baseURL. A nil client gets a 30s
// timeout client; a nil converter gets JSONConverter. Every request is logged
// at debug level through logger.
func NewHTTPTransport(baseURL string, client *http.Client, converter BodyConverter, headers map[string]string, logger *slog.Logger) (*HTTPTransport, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("enrich: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("enrich: base url %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if converter == nil {
		converter = JSONConverter{}
	}
	if logger != nil {
		// Wrap a copy so the caller's client is left alone.
		c := *client
		c.Transport = &loggingRoundTripper{base: client.Transport, log: logger}
		client = &c
	}
	h := make(http.Header, len(headers))
	for k, v := range headers {
		h.Set(k, v)
	}
	return &HTTPTransport{base: base, client: client, converter: converter, headers: h}, nil
}

// Execute sends req and reads the whole response body.
func (t *HTTPTransport) Execute(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := t.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Header: resp.Header, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (t *HTTPTransport) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	ref, err := url.Parse(strings.TrimPrefix(req.Path, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", req.Path, err)
	}
	if ref.Scheme != "" || ref.Host != "" {
		return nil, fmt.Errorf("path %q must be relative to the base url", req.Path)
	}
	target := t.base.ResolveReference(ref)
	method := req.method()

	var body io.Reader
	var contentType string
	if method == http.MethodGet || method == http.MethodDelete || method == http.MethodHead {
		q := target.Query()
		for k, v := range req.params {
			q.Set(k, v)
		}
		target.RawQuery = q.Encode()
	} else {
		b, ct, err := t.converter.Encode(req.params)
		if err != nil {
			return nil, err
		}
		body, contentType = bytes.NewReader(b), ct
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}
	maps.Copy(httpReq.Header, t.headers)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

// loggingRoundTripper is the transport's logging hook.
type loggingRoundTripper struct {
	base http.RoundTripper
	log  *slog.Logger
}

// RoundTrip logs the exchange around the base transport.
func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	base := l.base
	if base == nil {
		base = http.DefaultTransport
	}
	start := time.Now()
	l.log.DebugContext(req.Context(), "http request", "method", req.Method, "url", redactURL(req.URL))

	resp, err := base.RoundTrip(req)
	if err != nil {
		l.log.DebugContext(req.Context(), "http request failed",
			"method", req.Method, "url", redactURL(req.URL), "error", err, "duration", time.Since(start))
		return nil, err
	}
	l.log.DebugContext(req.Context(), "http response",
		"method", req.Method,
		"url", redactURL(req.URL),
		"status", resp.StatusCode,
		"content_length", resp.ContentLength,
		"duration", time.Since(start))
	return resp, nil
}

// redactURL hides query values that commonly carry credentials.
func redactURL(u *url.URL) string {
	q := u.Query()
	for _, k := range []string{"apiKey", "api_key", "key", "token"} {
		if q.Has(k) {
			q.Set(k, "REDACTED")
		}
	}
	c := *u
	c.RawQuery = q.Encode()
	return c.String()
}
