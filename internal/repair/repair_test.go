package repair

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"tuplespace/internal/gossip"
	"tuplespace/internal/space"
	"tuplespace/internal/tuple"
)

func newHost(t *testing.T, id string) *space.Space {
	t.Helper()
	s := space.New(space.Options{HostID: id, Capacity: 64})
	t.Cleanup(s.Close)
	return s
}

func out(s *space.Space, v int64) {
	s.Out(tuple.New(time.Now().Add(time.Hour), tuple.Int(v)))
}

// countingPeer records how often a peer was contacted.
type countingPeer struct {
	LocalPeer
	digests atomic.Int32
}

func (p *countingPeer) Digest(ctx context.Context) (uint64, error) {
	p.digests.Add(1)
	return p.LocalPeer.Digest(ctx)
}

// failingPeer fails every call after Digest.
type failingPeer struct {
	LocalPeer
}

func (failingPeer) Advertise(ctx context.Context) ([]uuid.UUID, error) {
	return nil, errors.New("connection refused")
}

func (failingPeer) Missing(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return nil, errors.New("connection refused")
}

func TestExchange_PullAndPush(t *testing.T) {
	a, b := newHost(t, "a"), newHost(t, "b")
	out(a, 1)
	out(b, 2)
	out(b, 3)

	res, err := Exchange(context.Background(), LocalPeer{a.Router()}, LocalPeer{b.Router()})
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if res.Pulled != 2 || res.Pushed != 1 {
		t.Errorf("Expected pulled=2 pushed=1, got pulled=%d pushed=%d", res.Pulled, res.Pushed)
	}
	if a.Stats().Stored != 3 || b.Stats().Stored != 3 {
		t.Errorf("Expected 3 tuples on each host, got a=%d b=%d", a.Stats().Stored, b.Stats().Stored)
	}
}

func TestExchange_ConvergedHostsSkip(t *testing.T) {
	a, b := newHost(t, "a"), newHost(t, "b")
	out(a, 1)
	out(b, 2)

	local, remote := LocalPeer{a.Router()}, LocalPeer{b.Router()}
	if _, err := Exchange(context.Background(), local, remote); err != nil {
		t.Fatalf("First exchange failed: %v", err)
	}

	res, err := Exchange(context.Background(), local, remote)
	if err != nil {
		t.Fatalf("Second exchange failed: %v", err)
	}
	if !res.Skipped {
		t.Errorf("Expected converged hosts to skip, got %+v", res)
	}
}

func TestExchange_DeliveredTupleIsRetrievable(t *testing.T) {
	a, b := newHost(t, "a"), newHost(t, "b")
	a.Out(tuple.New(time.Now().Add(time.Hour), tuple.String("greeting"), tuple.String("hi")))

	if _, err := Exchange(context.Background(), LocalPeer{b.Router()}, LocalPeer{a.Router()}); err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}

	p, err := b.In(tuple.Template(tuple.String("greeting"), tuple.Formal(tuple.KindString)))
	if err != nil {
		t.Fatalf("In failed: %v", err)
	}
	got, err := p.Wait(context.Background())
	if err != nil || got.Field(1).AsString() != "hi" {
		t.Errorf("Expected gossiped tuple on b, got %v, %v", got, err)
	}
	if a.Stats().Stored != 1 {
		t.Errorf("Consuming on b must not touch a, a has %d", a.Stats().Stored)
	}
}

func TestExchange_RemoteFailure(t *testing.T) {
	a, b := newHost(t, "a"), newHost(t, "b")
	out(a, 1)
	out(b, 2)

	_, err := Exchange(context.Background(), LocalPeer{a.Router()}, failingPeer{LocalPeer{b.Router()}})
	if err == nil {
		t.Fatal("Expected exchange with a failing peer to fail")
	}
}

func TestDriver_RespectsThrottle(t *testing.T) {
	mock := clock.NewMock()
	a, b, c := newHost(t, "a"), newHost(t, "b"), newHost(t, "c")
	out(b, 1)
	out(c, 2)

	pb := &countingPeer{LocalPeer: LocalPeer{b.Router()}}
	pc := &countingPeer{LocalPeer: LocalPeer{c.Router()}}
	throttle := gossip.NewThrottle(0, 30*time.Second, mock)
	d := NewDriver(LocalPeer{a.Router()}, func() []Peer { return []Peer{pb, pc} },
		throttle, DriverConfig{Fanout: 3}, mock, nil)

	results := d.RunRound(context.Background())
	if len(results) != 2 {
		t.Fatalf("Expected 2 exchanges, got %d", len(results))
	}
	if a.Stats().Stored != 2 {
		t.Errorf("Expected a to pull both tuples, has %d", a.Stats().Stored)
	}

	mock.Add(10 * time.Second)
	if results := d.RunRound(context.Background()); len(results) != 0 {
		t.Errorf("Expected throttled round to contact nobody, got %d", len(results))
	}

	mock.Add(21 * time.Second)
	if results := d.RunRound(context.Background()); len(results) != 2 {
		t.Errorf("Expected both peers after cooldown, got %d", len(results))
	}
	if pb.digests.Load() != 2 || pc.digests.Load() != 2 {
		t.Errorf("Expected 2 contacts per peer, got b=%d c=%d", pb.digests.Load(), pc.digests.Load())
	}
}

func TestDriver_FanoutAndSelf(t *testing.T) {
	hosts := []*space.Space{newHost(t, "self"), newHost(t, "p1"), newHost(t, "p2"), newHost(t, "p3")}
	peers := make([]Peer, 0, len(hosts))
	for _, h := range hosts {
		peers = append(peers, LocalPeer{h.Router()})
	}

	d := NewDriver(peers[0], func() []Peer { return peers }, nil, DriverConfig{Fanout: 2}, clock.NewMock(), nil)
	results := d.RunRound(context.Background())
	if len(results) != 2 {
		t.Fatalf("Expected fanout of 2, got %d", len(results))
	}
	for _, res := range results {
		if res.Peer == "self" {
			t.Error("Driver must not exchange with itself")
		}
	}
}

func TestDriver_LoopRunsOnTick(t *testing.T) {
	mock := clock.NewMock()
	a, b := newHost(t, "a"), newHost(t, "b")
	out(b, 7)

	d := NewDriver(LocalPeer{a.Router()}, func() []Peer { return []Peer{LocalPeer{b.Router()}} },
		nil, DriverConfig{Interval: time.Second}, mock, nil)
	d.Start()
	defer d.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for a.Stats().Stored == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for a gossip round")
		}
		mock.Add(time.Second)
		time.Sleep(time.Millisecond)
	}
}
