package it

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"tuplespace/internal/config"
	"tuplespace/internal/node"
	"tuplespace/internal/wire"
)

const bufSize = 1 << 20

// Cluster represents an in-process test cluster of nodes connected over
// in-memory listeners.
type Cluster struct {
	mu        sync.Mutex
	nodes     []*Node
	listeners map[string]*bufconn.Listener
}

// Node represents a single node in the test cluster
type Node struct {
	ID     string
	node   *node.Node
	conn   *grpc.ClientConn
	client wire.TupleSpaceClient
	done   chan struct{}
}

// NewCluster creates a new test cluster harness
func NewCluster() *Cluster {
	return &Cluster{
		listeners: make(map[string]*bufconn.Listener),
	}
}

// Target returns the dial target of a node id.
func Target(nodeID string) string {
	return "passthrough:///" + nodeID
}

func (c *Cluster) dialer() grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
		c.mu.Lock()
		lis, ok := c.listeners[addr]
		c.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("no node %s", addr)
		}
		return lis.DialContext(ctx)
	})
}

// BaseConfig returns the configuration every test node starts from: fast
// gossip rounds and a short contact cooldown.
func BaseConfig(nodeID string) *config.Config {
	cfg := config.Default()
	cfg.NodeID = nodeID
	cfg.ListenAddr = Target(nodeID)
	cfg.Capacity = 1024
	cfg.GossipInterval = 20 * time.Millisecond
	cfg.ContactCooldown = time.Millisecond
	cfg.RPCTimeout = time.Second
	return &cfg
}

// StartNode starts a node whose peers are the given ids.
func (c *Cluster) StartNode(nodeID string, peers []string, mutate func(*config.Config)) error {
	cfg := BaseConfig(nodeID)
	for _, p := range peers {
		cfg.Peers = append(cfg.Peers, config.Peer{ID: p, Addr: Target(p)})
	}
	if mutate != nil {
		mutate(cfg)
	}

	lis := bufconn.Listen(bufSize)
	c.mu.Lock()
	if _, exists := c.listeners[nodeID]; exists {
		c.mu.Unlock()
		return fmt.Errorf("node %s already started", nodeID)
	}
	c.listeners[nodeID] = lis
	c.mu.Unlock()

	n := node.NewNode(cfg, nil, c.dialer())
	done := make(chan struct{})
	go func() {
		defer close(done)
		n.Serve(lis)
	}()

	conn, err := grpc.NewClient(Target(nodeID),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		c.dialer(),
	)
	if err != nil {
		n.Stop()
		return fmt.Errorf("failed to dial node %s: %w", nodeID, err)
	}

	c.mu.Lock()
	c.nodes = append(c.nodes, &Node{
		ID:     nodeID,
		node:   n,
		conn:   conn,
		client: wire.NewTupleSpaceClient(conn),
		done:   done,
	})
	c.mu.Unlock()
	return nil
}

// StartMesh starts n nodes named n1..nN, each peered with all others.
func (c *Cluster) StartMesh(n int) error {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%d", i+1)
	}
	for _, id := range ids {
		peers := make([]string, 0, n-1)
		for _, p := range ids {
			if p != id {
				peers = append(peers, p)
			}
		}
		if err := c.StartNode(id, peers, nil); err != nil {
			c.Stop()
			return err
		}
	}
	return nil
}

// StartLine starts n nodes named n1..nN where each node only peers with
// its neighbours.
func (c *Cluster) StartLine(n int, mutate func(*config.Config)) error {
	for i := 1; i <= n; i++ {
		peers := make([]string, 0, 2)
		if i > 1 {
			peers = append(peers, fmt.Sprintf("n%d", i-1))
		}
		if i < n {
			peers = append(peers, fmt.Sprintf("n%d", i+1))
		}
		if err := c.StartNode(fmt.Sprintf("n%d", i), peers, mutate); err != nil {
			c.Stop()
			return err
		}
	}
	return nil
}

// GetNode returns a node by ID
func (c *Cluster) GetNode(nodeID string) *Node {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.nodes {
		if n.ID == nodeID {
			return n
		}
	}
	return nil
}

// KillNode stops a specific node and makes it unreachable.
func (c *Cluster) KillNode(nodeID string) error {
	n := c.GetNode(nodeID)
	if n == nil {
		return fmt.Errorf("node %s not found", nodeID)
	}
	c.mu.Lock()
	delete(c.listeners, nodeID)
	for i, m := range c.nodes {
		if m == n {
			c.nodes = append(c.nodes[:i], c.nodes[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	n.Stop()
	return nil
}

// Stop stops all nodes in the cluster
func (c *Cluster) Stop() {
	c.mu.Lock()
	nodes := c.nodes
	c.nodes = nil
	c.mu.Unlock()

	for _, n := range nodes {
		n.Stop()
	}
}

// Stop stops a single node
func (n *Node) Stop() {
	n.conn.Close()
	n.node.Stop()
	<-n.done
}

// GetClient returns the TupleSpace client for a node
func (n *Node) GetClient() wire.TupleSpaceClient {
	return n.client
}

// Stored returns the number of tuples held by the node.
func (n *Node) Stored() int {
	return n.node.Space().Stats().Stored
}
