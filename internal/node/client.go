package node

import (
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"tuplespace/internal/wire"
)

// ClientManager manages gRPC connections to peer hosts, one per address.
type ClientManager struct {
	mu    sync.RWMutex
	conns map[string]*grpc.ClientConn
	opts  []grpc.DialOption
}

// NewClientManager creates a new client manager. Extra dial options are
// appended to the insecure transport credentials.
func NewClientManager(opts ...grpc.DialOption) *ClientManager {
	return &ClientManager{
		conns: make(map[string]*grpc.ClientConn),
		opts:  append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...),
	}
}

// conn returns the connection for addr, creating it if needed. Connections
// are established lazily on first use.
func (cm *ClientManager) conn(addr string) (*grpc.ClientConn, error) {
	cm.mu.RLock()
	cc, exists := cm.conns[addr]
	cm.mu.RUnlock()

	if exists {
		return cc, nil
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	// Double-check after acquiring write lock
	if cc, exists := cm.conns[addr]; exists {
		return cc, nil
	}

	cc, err := grpc.NewClient(addr, cm.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	cm.conns[addr] = cc
	return cc, nil
}

// GetPeerClient returns a PeerExchange client for the given address.
func (cm *ClientManager) GetPeerClient(addr string) (wire.PeerExchangeClient, error) {
	cc, err := cm.conn(addr)
	if err != nil {
		return nil, err
	}
	return wire.NewPeerExchangeClient(cc), nil
}

// GetSpaceClient returns a TupleSpace client for the given address.
func (cm *ClientManager) GetSpaceClient(addr string) (wire.TupleSpaceClient, error) {
	cc, err := cm.conn(addr)
	if err != nil {
		return nil, err
	}
	return wire.NewTupleSpaceClient(cc), nil
}

// Close closes all client connections.
func (cm *ClientManager) Close() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for addr, cc := range cm.conns {
		cc.Close()
		delete(cm.conns, addr)
	}
}
