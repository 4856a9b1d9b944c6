package gossip

import (
	"bytes"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tuplespace/internal/tuple"
)

// DefaultHopBudget is the hop count given to locally registered messages.
const DefaultHopBudget = 5

// Message wraps a stored tuple for replication.
type Message struct {
	ID       uuid.UUID
	HopCount int
	Tuple    *tuple.Tuple
}

// Relayed returns the message as held by the host that receives it: same
// id and tuple, one hop less, never below zero.
func (m Message) Relayed() Message {
	hops := m.HopCount - 1
	if hops < 0 {
		hops = 0
	}
	return Message{ID: m.ID, HopCount: hops, Tuple: m.Tuple}
}

// Sink receives the tuples of accepted deliveries.
type Sink interface {
	InsertFromGossip(tuples ...*tuple.Tuple)
}

// entry is a live message plus the number of store slots holding its tuple.
type entry struct {
	msg  Message
	refs int
}

// Router keeps one message per stored tuple and implements the pull-based
// reconciliation primitives used between hosts.
type Router struct {
	mu      sync.Mutex
	hostID  string
	hops    int
	byID    map[uuid.UUID]*entry
	byTuple map[*tuple.Tuple]*entry

	sink   Sink
	newID  func() uuid.UUID
	logger *zap.Logger
}

// NewRouter creates a router for the given host. A non-positive hop budget
// uses DefaultHopBudget.
func NewRouter(hostID string, hopBudget int, logger *zap.Logger) *Router {
	if hopBudget <= 0 {
		hopBudget = DefaultHopBudget
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		hostID:  hostID,
		hops:    hopBudget,
		byID:    make(map[uuid.UUID]*entry),
		byTuple: make(map[*tuple.Tuple]*entry),
		newID:   uuid.New,
		logger:  logger,
	}
}

// SetSink sets where delivered tuples go. It must be called before the
// router is shared.
func (r *Router) SetSink(sink Sink) {
	r.sink = sink
}

// ID returns the host identity.
func (r *Router) ID() string {
	return r.hostID
}

// Register wraps t in a new message with the full hop budget. Registering
// the same tuple again only counts another reference to its message.
func (r *Router) Register(t *tuple.Tuple) {
	if t == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byTuple[t]; ok {
		e.refs++
		return
	}
	e := &entry{
		msg:  Message{ID: r.newID(), HopCount: r.hops, Tuple: t},
		refs: 1,
	}
	r.byID[e.msg.ID] = e
	r.byTuple[t] = e
}

// Forget drops the message wrapping t, if any.
func (r *Router) Forget(t *tuple.Tuple) {
	if t == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byTuple[t]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(r.byTuple, t)
	delete(r.byID, e.msg.ID)
}

// Lookup returns the message wrapping t.
func (r *Router) Lookup(t *tuple.Tuple) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byTuple[t]
	if !ok {
		return Message{}, false
	}
	return e.msg, true
}

// Restore re-indexes a message dropped by Forget, keeping its id and hop
// count, so its tuple can go back into the store without looking new to
// peers. It returns false when the id came back in the meantime, in which
// case the tuple is already held under it and must not be stored again.
func (r *Router) Restore(m Message) bool {
	if m.Tuple == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byTuple[m.Tuple]; ok {
		e.refs++
		return true
	}
	if _, ok := r.byID[m.ID]; ok {
		return false
	}
	e := &entry{msg: m, refs: 1}
	r.byID[m.ID] = e
	r.byTuple[m.Tuple] = e
	return true
}

// Advertise returns the ids of every message that still has hops left,
// sorted. Messages with no hops left stay stored but are not offered.
func (r *Router) Advertise() []uuid.UUID {
	r.mu.Lock()
	ids := make([]uuid.UUID, 0, len(r.byID))
	for id, e := range r.byID {
		if e.msg.HopCount > 0 {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

// Digest summarizes the advertised id set. Two routers advertising the same
// ids have the same digest regardless of order.
func (r *Router) Digest() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var h uint64
	var n uint64
	for id, e := range r.byID {
		if e.msg.HopCount > 0 {
			h ^= xxhash.Sum64(id[:])
			n++
		}
	}
	return h ^ n
}

// Fetch returns the messages for the given ids that are still known, in
// request order.
func (r *Router) Fetch(ids []uuid.UUID) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Message, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if e, ok := r.byID[id]; ok {
			out = append(out, e.msg)
		}
	}
	return out
}

// Missing returns the ids from remote that this host does not know, in
// the order given.
func (r *Router) Missing(remote []uuid.UUID) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]struct{}, len(remote))
	for _, id := range remote {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := r.byID[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Deliver accepts messages from a peer. Each unknown id is indexed with one
// hop less and its tuple handed to the sink; known ids are dropped. It
// returns the number of accepted messages.
func (r *Router) Deliver(msgs []Message) int {
	r.mu.Lock()
	accepted := make([]*tuple.Tuple, 0, len(msgs))
	for _, m := range msgs {
		if m.Tuple == nil {
			continue
		}
		if _, known := r.byID[m.ID]; known {
			continue
		}
		if _, known := r.byTuple[m.Tuple]; known {
			continue
		}
		e := &entry{msg: m.Relayed(), refs: 1}
		r.byID[m.ID] = e
		r.byTuple[m.Tuple] = e
		accepted = append(accepted, m.Tuple)
	}
	r.mu.Unlock()

	if len(accepted) > 0 {
		r.logger.Debug("accepted gossip delivery",
			zap.Int("accepted", len(accepted)),
			zap.Int("dropped", len(msgs)-len(accepted)))
		if r.sink != nil {
			r.sink.InsertFromGossip(accepted...)
		}
	}
	return len(accepted)
}

// Len returns the number of live messages.
func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
