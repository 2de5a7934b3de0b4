package writer

import (
	"context"
	"github.com/litetable/litetable-io/internal/litetable"
)

// Future is the pending outcome of one written record. It resolves exactly once.
type Future struct {
	done chan struct{}
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(err error) {
	f.err = err
	close(f.done)
}

// Done is closed once the outcome is known.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the record was acknowledged or rejected and returns the outcome.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return litetable.WrapError(litetable.ErrInterrupted, ctx.Err(), "waiting for write")
	}
}

// Err returns the outcome, or nil while the record is still pending.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}
