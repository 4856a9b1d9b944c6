package repair

import (
	"context"

	"github.com/google/uuid"

	"tuplespace/internal/gossip"
)

// Peer is one side of a reconciliation. Remote peers are reached over
// gRPC; the local host is wrapped by LocalPeer.
type Peer interface {
	ID() string
	Advertise(ctx context.Context) ([]uuid.UUID, error)
	Digest(ctx context.Context) (uint64, error)
	Missing(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	Fetch(ctx context.Context, ids []uuid.UUID) ([]gossip.Message, error)
	Deliver(ctx context.Context, msgs []gossip.Message) (int, error)
}

// LocalPeer adapts a router to Peer. Its calls never fail.
type LocalPeer struct {
	Router *gossip.Router
}

func (p LocalPeer) ID() string { return p.Router.ID() }

func (p LocalPeer) Advertise(ctx context.Context) ([]uuid.UUID, error) {
	return p.Router.Advertise(), nil
}

func (p LocalPeer) Digest(ctx context.Context) (uint64, error) {
	return p.Router.Digest(), nil
}

func (p LocalPeer) Missing(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return p.Router.Missing(ids), nil
}

func (p LocalPeer) Fetch(ctx context.Context, ids []uuid.UUID) ([]gossip.Message, error) {
	return p.Router.Fetch(ids), nil
}

func (p LocalPeer) Deliver(ctx context.Context, msgs []gossip.Message) (int, error) {
	return p.Router.Deliver(msgs), nil
}
