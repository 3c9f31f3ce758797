package enrich

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUsage is matched by every *UsageError.
	ErrUsage = errors.New("enrich: invalid usage")

	// ErrTransport is matched by every *TransportError.
	ErrTransport = errors.New("enrich: transport failure")

	// ErrInterrupted is matched by every *InterruptedWaitError.
	ErrInterrupted = errors.New("enrich: interrupted while waiting for a result")

	// ErrClosed is returned when work is submitted to a closed dispatcher.
	ErrClosed = errors.New("enrich: dispatcher closed")
)

// UsageError reports a call that broke the client's API contract. It is
// always returned directly by the call, never delivered to a callback.
type UsageError struct {
	Op     string
	Reason string
	Err    error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("enrich: %s: %s", e.Op, e.Reason)
}

func (e *UsageError) Is(target error) bool { return target == ErrUsage }

func (e *UsageError) Unwrap() error { return e.Err }

// TransportError wraps anything that went wrong between handing a request to
// the transport and decoding its response: network errors, non-2xx statuses,
// undecodable bodies and permit waits that were cancelled.
type TransportError struct {
	// StatusCode is 0 when no HTTP response was received.
	StatusCode int
	Header     http.Header
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("enrich: HTTP %d: %v", e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("enrich: HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("enrich: transport: %v", e.Err)
	default:
		return ErrTransport.Error()
	}
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }

// InterruptedWaitError is returned by a blocking call whose context ended
// before the result arrived. The request itself may still complete.
type InterruptedWaitError struct {
	Err error
}

func (e *InterruptedWaitError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInterrupted, e.Err)
}

func (e *InterruptedWaitError) Is(target error) bool { return target == ErrInterrupted }

func (e *InterruptedWaitError) Unwrap() error { return e.Err }

// asTransportError makes sure callbacks only ever see library error kinds.
func asTransportError(err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Err: err}
}
