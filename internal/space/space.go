package space

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"tuplespace/internal/gossip"
	"tuplespace/internal/storage"
	"tuplespace/internal/tuple"
)

// DefaultMaxPending bounds the number of in-flight retrievals.
const DefaultMaxPending = 50

var (
	// ErrCapacity is returned when a retrieval would exceed the in-flight
	// bound. The caller may retry later.
	ErrCapacity = errors.New("space: too many pending retrievals")

	// ErrClosed resolves retrievals outstanding when the space closes and
	// rejects new ones.
	ErrClosed = errors.New("space: closed")
)

// Options configures a Space.
type Options struct {
	HostID     string
	Capacity   int
	MaxPending int
	HopBudget  int
	Clock      clock.Clock
	Logger     *zap.Logger
}

// Stats is a point-in-time view of a space.
type Stats struct {
	Stored   int
	Pending  int
	Messages int
}

// op is one admitted retrieval.
type op struct {
	ctx     context.Context
	pattern *tuple.Tuple
	remove  bool
	pending *Pending
}

// Space ties a store and its gossip router together and runs blocking
// retrievals on a fixed worker pool.
type Space struct {
	store  *storage.Store
	router *gossip.Router
	logger *zap.Logger

	maxPending int64
	inFlight   atomic.Int64
	jobs       chan *op

	closeMu sync.RWMutex
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a space and starts its worker pool.
func New(opts Options) *Space {
	if opts.MaxPending <= 0 {
		opts.MaxPending = DefaultMaxPending
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gossip.NewRouter(opts.HostID, opts.HopBudget, logger)
	store := storage.NewStore(opts.Capacity, router, opts.Clock, logger)
	router.SetSink(store)

	s := &Space{
		store:      store,
		router:     router,
		logger:     logger,
		maxPending: int64(opts.MaxPending),
		jobs:       make(chan *op, opts.MaxPending),
		done:       make(chan struct{}),
	}
	s.wg.Add(opts.MaxPending)
	for i := 0; i < opts.MaxPending; i++ {
		go s.worker()
	}
	return s
}

// Router returns the gossip router replicating this space.
func (s *Space) Router() *gossip.Router {
	return s.router
}

// Out deposits a tuple. It never fails: a full store evicts the tuples
// with the earliest leasing.
func (s *Space) Out(t *tuple.Tuple) {
	s.store.Insert(t)
}

// OutMany deposits a batch as one insert.
func (s *Space) OutMany(tuples ...*tuple.Tuple) {
	s.store.Insert(tuples...)
}

// In removes and returns a tuple matching pattern, waiting for one to be
// inserted if necessary.
func (s *Space) In(pattern *tuple.Tuple) (*Pending, error) {
	return s.submit(context.Background(), pattern, true)
}

// Read returns a tuple matching pattern without removing it.
func (s *Space) Read(pattern *tuple.Tuple) (*Pending, error) {
	return s.submit(context.Background(), pattern, false)
}

// InContext is In bound to ctx. When ctx ends first the handle resolves
// with the context error and the space is left as it was.
func (s *Space) InContext(ctx context.Context, pattern *tuple.Tuple) (*Pending, error) {
	return s.submit(ctx, pattern, true)
}

// ReadContext is Read bound to ctx.
func (s *Space) ReadContext(ctx context.Context, pattern *tuple.Tuple) (*Pending, error) {
	return s.submit(ctx, pattern, false)
}

func (s *Space) submit(ctx context.Context, pattern *tuple.Tuple, remove bool) (*Pending, error) {
	if pattern == nil {
		return nil, errors.New("space: nil pattern")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if !s.admit() {
		s.logger.Debug("retrieval rejected",
			zap.Int64("in_flight", s.inFlight.Load()),
			zap.Stringer("pattern", pattern))
		return nil, ErrCapacity
	}

	o := &op{ctx: ctx, pattern: pattern, remove: remove, pending: newPending()}
	// Admitted ops never outnumber the buffer, so this does not block.
	s.jobs <- o
	return o.pending, nil
}

func (s *Space) admit() bool {
	for {
		n := s.inFlight.Load()
		if n >= s.maxPending {
			return false
		}
		if s.inFlight.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (s *Space) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case o := <-s.jobs:
			s.run(o)
			s.inFlight.Add(-1)
		}
	}
}

// run scans until a match is found, waiting on the store's wake channel
// between passes.
func (s *Space) run(o *op) {
	for {
		if err := o.ctx.Err(); err != nil {
			o.pending.resolve(nil, err)
			return
		}
		gen, wake := s.store.Snapshot()

		if t, ok := s.attempt(o); ok {
			s.finish(o, t)
			return
		}
		if s.store.Generation() != gen {
			continue
		}

		select {
		case <-wake:
		case <-o.ctx.Done():
			o.pending.resolve(nil, o.ctx.Err())
			return
		case <-s.done:
			o.pending.resolve(nil, ErrClosed)
			return
		}
	}
}

// attempt makes one pass over the store. Lost claim races and tuples that
// expire under the claim are skipped and the pass continues.
func (s *Space) attempt(o *op) (*tuple.Tuple, bool) {
	var (
		result  *tuple.Tuple
		claimed gossip.Message
		known   bool
	)
	s.store.Scan(func(slot int, t *tuple.Tuple) bool {
		m, ok := tuple.Match(o.pattern, t)
		if !ok {
			return false
		}
		if o.remove {
			claimed, known = s.router.Lookup(t)
			if !s.store.Claim(slot, t) {
				return false
			}
			claimed.Tuple = t
		}
		result = m
		return true
	})
	if result == nil {
		return nil, false
	}
	if o.remove && o.ctx.Err() != nil {
		// The caller is gone; put the tuple back instead of losing it.
		s.putBack(claimed, known)
		return nil, false
	}
	return result, true
}

// putBack returns a claimed tuple to the store under the message it was
// claimed with, so peers still see the same id and hop count.
func (s *Space) putBack(m gossip.Message, known bool) {
	if !known {
		s.store.Insert(m.Tuple)
		return
	}
	if !s.router.Restore(m) {
		return
	}
	s.store.InsertFromGossip(m.Tuple)
}

func (s *Space) finish(o *op, t *tuple.Tuple) {
	if err := o.ctx.Err(); err != nil && !o.remove {
		o.pending.resolve(nil, err)
		return
	}
	o.pending.resolve(t, nil)
}

// Close resolves every outstanding retrieval with ErrClosed, rejects new
// ones and stops the workers. Out keeps working.
func (s *Space) Close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.closeMu.Unlock()

	s.wg.Wait()
	for {
		select {
		case o := <-s.jobs:
			o.pending.resolve(nil, ErrClosed)
			s.inFlight.Add(-1)
		default:
			return
		}
	}
}

// Stats returns the number of stored tuples, in-flight retrievals and
// live gossip messages.
func (s *Space) Stats() Stats {
	return Stats{
		Stored:   s.store.Len(),
		Pending:  int(s.inFlight.Load()),
		Messages: s.router.Len(),
	}
}
