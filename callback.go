package enrich

import (
	"fmt"
	"reflect"
	"sync"
)

// Callback receives the outcome of an asynchronous request. Exactly one of
// its methods is called, once, on a dispatcher worker goroutine. If the
// client is torn down before the request finishes, neither may be called.
type Callback[T any] interface {
	OnSuccess(result T)
	OnFailure(err error)
}

// CallbackFuncs adapts a pair of functions to Callback. Nil fields are skipped.
type CallbackFuncs[T any] struct {
	Success func(T)
	Failure func(error)
}

// OnSuccess calls Success when it is set.
func (c CallbackFuncs[T]) OnSuccess(result T) {
	if c.Success != nil {
		c.Success(result)
	}
}

// OnFailure calls Failure when it is set.
func (c CallbackFuncs[T]) OnFailure(err error) {
	if c.Failure != nil {
		c.Failure(err)
	}
}

// isNilCallback reports whether cb is nil or an interface holding a nil
// reference value.
func isNilCallback[T any](cb Callback[T]) bool {
	if cb == nil {
		return true
	}
	switch v := reflect.ValueOf(cb); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

type targetKind uint8

const (
	userTarget targetKind = iota
	// noopTarget is used for webhook requests sent without a callback; the
	// result is delivered by the API, not by us.
	noopTarget
)

// target is where a bridge delivers its outcome.
type target[T any] struct {
	kind targetKind
	cb   Callback[T]
}

func (t target[T]) success(v T) {
	if t.kind == userTarget {
		t.cb.OnSuccess(v)
	}
}

func (t target[T]) failure(err error) {
	if t.kind == userTarget {
		t.cb.OnFailure(err)
	}
}

// bridge turns the dispatcher's (response, error) completion into a single
// typed callback invocation.
type bridge[T any] struct {
	once      sync.Once
	converter BodyConverter
	target    target[T]
}

func newBridge[T any](converter BodyConverter, t target[T]) *bridge[T] {
	return &bridge[T]{converter: converter, target: t}
}

// complete is safe to call more than once and from any goroutine; only the
// first call is delivered.
func (b *bridge[T]) complete(resp *Response, err error) {
	b.once.Do(func() {
		if err != nil {
			b.target.failure(asTransportError(err))
			return
		}
		var v T
		if resp == nil {
			b.target.failure(&TransportError{Err: fmt.Errorf("no response")})
			return
		}
		if err := b.decode(resp, &v); err != nil {
			b.target.failure(&TransportError{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body, Err: err})
			return
		}
		b.target.success(v)
	})
}

// decode runs the converter and turns a panic in it, or in the result
// type's own unmarshalling, into an error.
func (b *bridge[T]) decode(resp *Response, v *T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode panic: %v", r)
		}
	}()
	return b.converter.Decode(resp.Body, v)
}
