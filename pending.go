package enrich

import (
	"context"
	"sync"
)

// PendingResult is a single-assignment cell that a blocking caller waits on.
// It implements Callback, so it can be handed to SendAsync directly.
type PendingResult[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// NewPendingResult returns an empty cell.
func NewPendingResult[T any]() *PendingResult[T] {
	return &PendingResult[T]{done: make(chan struct{})}
}

// OnSuccess fills the cell with v unless it is already filled.
func (p *PendingResult[T]) OnSuccess(v T) {
	p.once.Do(func() {
		p.value = v
		close(p.done)
	})
}

// OnFailure fills the cell with err unless it is already filled.
func (p *PendingResult[T]) OnFailure(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Done is closed once the cell is filled.
func (p *PendingResult[T]) Done() <-chan struct{} { return p.done }

// Get waits for the cell to be filled and returns its contents. If ctx ends
// first it returns an *InterruptedWaitError and leaves the cell untouched, so
// a later Get can still collect the result.
func (p *PendingResult[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	default:
	}
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, &InterruptedWaitError{Err: context.Cause(ctx)}
	}
}
