package enrich

import (
	"maps"
	"net/http"
)

// ParamWebhookURL is the parameter the API reads as the out-of-band delivery
// address for a result.
const ParamWebhookURL = "webhookUrl"

// Request describes one API call. It is a value: WithParam returns a copy and
// the parameter map is never shared with the caller, so a Request cannot
// change after it has been handed to the client.
type Request struct {
	// Method defaults to GET when empty.
	Method string
	// Path is resolved against the client's base URL, e.g. "person.json".
	Path string

	params map[string]string
}

// NewRequest copies params into a new Request.
func NewRequest(method, path string, params map[string]string) Request {
	return Request{Method: method, Path: path, params: maps.Clone(params)}
}

// Get is shorthand for NewRequest(http.MethodGet, path, params).
func Get(path string, params map[string]string) Request {
	return NewRequest(http.MethodGet, path, params)
}

// WithParam returns a copy of r with key set to value.
func (r Request) WithParam(key, value string) Request {
	p := make(map[string]string, len(r.params)+1)
	maps.Copy(p, r.params)
	p[key] = value
	r.params = p
	return r
}

// WithWebhook returns a copy of r that asks the API to deliver the result to url.
func (r Request) WithWebhook(url string) Request {
	return r.WithParam(ParamWebhookURL, url)
}

// Param returns the value of key, or "" when unset.
func (r Request) Param(key string) string { return r.params[key] }

// HasParam reports whether key is set, even to "".
func (r Request) HasParam(key string) bool {
	_, ok := r.params[key]
	return ok
}

// Params returns a copy of the request parameters.
func (r Request) Params() map[string]string { return maps.Clone(r.params) }

// Webhook returns the webhook address, or "".
func (r Request) Webhook() string { return r.params[ParamWebhookURL] }

// HasWebhook reports whether a non-empty webhook address is set.
func (r Request) HasWebhook() bool { return r.Webhook() != "" }

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}
