package worker

import (
	"context"
	"sync"
)

// Future is the pending result of one submitted task. It settles exactly
// once; later resolve or reject calls are ignored.
type Future struct {
	id   uint64
	once sync.Once
	done chan struct{}
	val  any
	err  error
}

func newFuture(id uint64) *Future {
	return &Future{id: id, done: make(chan struct{})}
}

// ID is the pool-unique task id the result is correlated by.
func (f *Future) ID() uint64 { return f.id }

// Done is closed once the future settles.
func (f *Future) Done() <-chan struct{} { return f.done }

func (f *Future) resolve(v any) bool {
	return f.settle(v, nil)
}

func (f *Future) reject(err error) bool {
	return f.settle(nil, err)
}

func (f *Future) settle(v any, err error) bool {
	settled := false
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
		settled = true
	})
	return settled
}

// Wait blocks until the future settles or ctx ends.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
