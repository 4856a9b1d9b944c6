package storage

import (
	"container/heap"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"tuplespace/internal/tuple"
)

// DefaultCapacity is the number of slots used when none is configured.
const DefaultCapacity = 1_000_000

// Router is notified about tuples entering and leaving the store.
// It is never called with the store lock held.
type Router interface {
	Register(t *tuple.Tuple)
	Forget(t *tuple.Tuple)
}

type noopRouter struct{}

func (noopRouter) Register(*tuple.Tuple) {}
func (noopRouter) Forget(*tuple.Tuple)   {}

// Store is a fixed-capacity arena of tuple slots.
// Scans read slots through atomic pointers; insert, evict and claim
// serialize on mu.
type Store struct {
	mu    sync.Mutex
	slots []atomic.Pointer[tuple.Tuple]
	free  []int // recycled slots below limit; last element is reused first
	count int
	limit atomic.Int64 // slots at or above limit have never held a tuple

	notifyMu sync.Mutex
	gen      uint64
	wake     chan struct{}

	router Router
	clock  clock.Clock
	logger *zap.Logger
}

// NewStore creates a store with the given number of slots. A nil router,
// clock or logger falls back to a no-op router, the wall clock and a
// no-op logger.
func NewStore(capacity int, router Router, clk clock.Clock, logger *zap.Logger) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if router == nil {
		router = noopRouter{}
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		slots:  make([]atomic.Pointer[tuple.Tuple], capacity),
		wake:   make(chan struct{}),
		router: router,
		clock:  clk,
		logger: logger,
	}
}

// SetRouter replaces the router. It must be called before the store is
// shared.
func (s *Store) SetRouter(router Router) {
	if router == nil {
		router = noopRouter{}
	}
	s.router = router
}

// Insert stores tuples produced locally and registers them with the router.
func (s *Store) Insert(tuples ...*tuple.Tuple) {
	s.insert(tuples, true)
}

// InsertFromGossip stores tuples handed over by the router. They are not
// registered again: the router already holds a message for each of them.
func (s *Store) InsertFromGossip(tuples ...*tuple.Tuple) {
	s.insert(tuples, false)
}

func (s *Store) insert(tuples []*tuple.Tuple, register bool) {
	batch := make([]*tuple.Tuple, 0, len(tuples))
	for _, t := range tuples {
		if t != nil {
			batch = append(batch, t)
		}
	}
	if len(batch) == 0 {
		return
	}

	// A batch larger than the arena keeps its tail, as if the head had been
	// inserted and then evicted.
	if len(batch) > len(s.slots) {
		dropped := len(batch) - len(s.slots)
		if !register {
			for _, t := range batch[:dropped] {
				s.router.Forget(t)
			}
		}
		batch = batch[dropped:]
	}

	// Register before the tuples become visible so a racing claim can
	// never forget a tuple ahead of its registration.
	if register {
		for _, t := range batch {
			s.router.Register(t)
		}
	}

	s.mu.Lock()
	var evicted []*tuple.Tuple
	if need := len(batch) - s.freeLocked(); need > 0 {
		evicted = s.evictLocked(need)
	}
	for _, t := range batch {
		s.slots[s.allocLocked()].Store(t)
		s.count++
	}
	s.mu.Unlock()

	for _, t := range evicted {
		s.router.Forget(t)
	}
	if len(evicted) > 0 {
		s.logger.Debug("evicted tuples to make room",
			zap.Int("evicted", len(evicted)),
			zap.Int("inserted", len(batch)))
	}

	s.signal()
}

// freeLocked returns the number of empty slots.
func (s *Store) freeLocked() int {
	return len(s.slots) - s.count
}

// allocLocked returns an empty slot, preferring recycled ones.
func (s *Store) allocLocked() int {
	if n := len(s.free); n > 0 {
		i := s.free[n-1]
		s.free = s.free[:n-1]
		return i
	}
	i := s.limit.Load()
	s.limit.Store(i + 1)
	return int(i)
}

// releaseLocked empties slot i.
func (s *Store) releaseLocked(i int) {
	s.slots[i].Store(nil)
	s.free = append(s.free, i)
	s.count--
}

// evictLocked empties the n occupied slots with the smallest leasing,
// breaking ties by slot index, and returns the removed tuples.
func (s *Store) evictLocked(n int) []*tuple.Tuple {
	h := make(victimHeap, 0, n)
	limit := int(s.limit.Load())
	for i := 0; i < limit; i++ {
		t := s.slots[i].Load()
		if t == nil {
			continue
		}
		v := victim{slot: i, tuple: t}
		if len(h) < n {
			heap.Push(&h, v)
		} else if v.less(h[0]) {
			h[0] = v
			heap.Fix(&h, 0)
		}
	}

	evicted := make([]*tuple.Tuple, 0, len(h))
	for _, v := range h {
		s.releaseLocked(v.slot)
		evicted = append(evicted, v.tuple)
	}
	return evicted
}

// Scan visits every live, unexpired tuple in slot order until visit
// returns true. It does not take the mutation lock, so tuples may be
// claimed or evicted while the scan runs.
func (s *Store) Scan(visit func(slot int, t *tuple.Tuple) bool) {
	now := s.clock.Now()
	limit := int(s.limit.Load())
	for i := 0; i < limit; i++ {
		t := s.slots[i].Load()
		if t == nil || t.Expired(now) {
			continue
		}
		if visit(i, t) {
			return
		}
	}
}

// Claim removes t from slot i if the slot still holds it. It returns false
// when another claim or an eviction got there first, or when t has expired;
// an expired tuple is removed all the same.
func (s *Store) Claim(slot int, t *tuple.Tuple) bool {
	if slot < 0 || slot >= len(s.slots) || t == nil {
		return false
	}

	s.mu.Lock()
	if s.slots[slot].Load() != t {
		s.mu.Unlock()
		return false
	}
	s.releaseLocked(slot)
	s.mu.Unlock()

	s.router.Forget(t)
	return !t.Expired(s.clock.Now())
}

// Snapshot returns the current generation and the channel that is closed
// by the next insert. Both are read together so no insert can slip between
// them.
func (s *Store) Snapshot() (uint64, <-chan struct{}) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	return s.gen, s.wake
}

// Generation returns the number of completed inserts.
func (s *Store) Generation() uint64 {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	return s.gen
}

// signal bumps the generation and wakes every waiter.
func (s *Store) signal() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.gen++
	close(s.wake)
	s.wake = make(chan struct{})
}

// Len returns the number of occupied slots, expired tuples included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Capacity returns the number of slots.
func (s *Store) Capacity() int {
	return len(s.slots)
}

// victim is an eviction candidate.
type victim struct {
	slot  int
	tuple *tuple.Tuple
}

func (v victim) less(o victim) bool {
	if !v.tuple.Leasing().Equal(o.tuple.Leasing()) {
		return v.tuple.Leasing().Before(o.tuple.Leasing())
	}
	return v.slot < o.slot
}

// victimHeap is a max-heap: the root is the candidate evicted last.
type victimHeap []victim

func (h victimHeap) Len() int           { return len(h) }
func (h victimHeap) Less(i, j int) bool { return h[j].less(h[i]) }
func (h victimHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *victimHeap) Push(x any)        { *h = append(*h, x.(victim)) }
func (h *victimHeap) Pop() any {
	old := *h
	v := old[len(old)-1]
	*h = old[:len(old)-1]
	return v
}
