package node

import (
	"context"

	"github.com/google/uuid"

	"tuplespace/internal/gossip"
	"tuplespace/internal/wire"
)

// RemotePeer reaches another host's PeerExchange service.
type RemotePeer struct {
	id      string
	addr    string
	localID string
	clients *ClientManager
}

// NewRemotePeer creates a peer for the host id listening at addr. localID
// identifies this host in requests.
func NewRemotePeer(id, addr, localID string, clients *ClientManager) *RemotePeer {
	return &RemotePeer{id: id, addr: addr, localID: localID, clients: clients}
}

func (p *RemotePeer) ID() string { return p.id }

func (p *RemotePeer) Addr() string { return p.addr }

func (p *RemotePeer) Advertise(ctx context.Context) ([]uuid.UUID, error) {
	client, err := p.clients.GetPeerClient(p.addr)
	if err != nil {
		return nil, err
	}
	resp, err := client.Advertise(ctx, &wire.HostRequest{FromId: p.localID})
	if err != nil {
		return nil, err
	}
	return gossip.IDsFromWire(resp.Ids)
}

func (p *RemotePeer) Digest(ctx context.Context) (uint64, error) {
	client, err := p.clients.GetPeerClient(p.addr)
	if err != nil {
		return 0, err
	}
	resp, err := client.Digest(ctx, &wire.HostRequest{FromId: p.localID})
	if err != nil {
		return 0, err
	}
	return resp.Digest, nil
}

func (p *RemotePeer) Missing(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	client, err := p.clients.GetPeerClient(p.addr)
	if err != nil {
		return nil, err
	}
	resp, err := client.Missing(ctx, &wire.IDList{FromId: p.localID, Ids: gossip.IDsToWire(ids)})
	if err != nil {
		return nil, err
	}
	return gossip.IDsFromWire(resp.Ids)
}

func (p *RemotePeer) Fetch(ctx context.Context, ids []uuid.UUID) ([]gossip.Message, error) {
	client, err := p.clients.GetPeerClient(p.addr)
	if err != nil {
		return nil, err
	}
	resp, err := client.Fetch(ctx, &wire.IDList{FromId: p.localID, Ids: gossip.IDsToWire(ids)})
	if err != nil {
		return nil, err
	}
	return gossip.MessagesFromWire(resp.Messages)
}

func (p *RemotePeer) Deliver(ctx context.Context, msgs []gossip.Message) (int, error) {
	client, err := p.clients.GetPeerClient(p.addr)
	if err != nil {
		return 0, err
	}
	resp, err := client.Deliver(ctx, &wire.MessageList{FromId: p.localID, Messages: gossip.MessagesToWire(msgs)})
	if err != nil {
		return 0, err
	}
	return int(resp.Accepted), nil
}
