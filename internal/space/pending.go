package space

import (
	"context"
	"sync"

	"tuplespace/internal/tuple"
)

// Pending is the handle of a submitted retrieval.
type Pending struct {
	once   sync.Once
	done   chan struct{}
	result *tuple.Tuple
	err    error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// resolve settles the handle. Only the first call has an effect; it
// reports whether this call was the one.
func (p *Pending) resolve(t *tuple.Tuple, err error) bool {
	resolved := false
	p.once.Do(func() {
		p.result = t
		p.err = err
		close(p.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the retrieval has resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result blocks until the retrieval resolves and returns its outcome.
func (p *Pending) Result() (*tuple.Tuple, error) {
	<-p.done
	return p.result, p.err
}

// Wait is like Result but gives up when ctx is done. Giving up does not
// cancel the retrieval; use InContext or ReadContext for that.
func (p *Pending) Wait(ctx context.Context) (*tuple.Tuple, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
