package node

import (
	"fmt"
	"net"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"tuplespace/internal/config"
	"tuplespace/internal/gossip"
	"tuplespace/internal/logx"
	"tuplespace/internal/repair"
	"tuplespace/internal/space"
	"tuplespace/internal/wire"
)

// Node represents a single host: a tuple space served over gRPC and a
// gossip driver reconciling it with the configured peers.
type Node struct {
	nodeID     string
	listenAddr string
	grpcServer *grpc.Server
	space      *space.Space
	throttle   *gossip.Throttle
	driver     *repair.Driver
	clientMgr  *ClientManager
	peers      []repair.Peer
	logger     *zap.Logger

	stopOnce sync.Once
}

// NewNode creates a new node instance. Dial options are used for
// connections to peers.
func NewNode(cfg *config.Config, logger *zap.Logger, dialOpts ...grpc.DialOption) *Node {
	logger = logx.ForHost(logger, cfg.NodeID)
	clk := clock.New()

	sp := space.New(space.Options{
		HostID:     cfg.NodeID,
		Capacity:   cfg.Capacity,
		MaxPending: cfg.MaxPending,
		HopBudget:  cfg.HopBudget,
		Clock:      clk,
		Logger:     logger,
	})
	clientMgr := NewClientManager(dialOpts...)

	remotes := cfg.RemotePeers()
	peers := make([]repair.Peer, 0, len(remotes))
	for _, p := range remotes {
		peers = append(peers, NewRemotePeer(p.ID, p.Addr, cfg.NodeID, clientMgr))
	}

	throttle := gossip.NewThrottle(cfg.PeerCacheSize, cfg.ContactCooldown, clk)
	driver := repair.NewDriver(
		repair.LocalPeer{Router: sp.Router()},
		func() []repair.Peer { return peers },
		throttle,
		repair.DriverConfig{
			Interval: cfg.GossipInterval,
			Timeout:  cfg.RPCTimeout,
			Fanout:   cfg.Fanout,
		},
		clk,
		logger,
	)

	n := &Node{
		nodeID:     cfg.NodeID,
		listenAddr: cfg.ListenAddr,
		grpcServer: grpc.NewServer(),
		space:      sp,
		throttle:   throttle,
		driver:     driver,
		clientMgr:  clientMgr,
		peers:      peers,
		logger:     logger,
	}

	wire.RegisterTupleSpaceServer(n.grpcServer, NewServer(sp, cfg.NodeID, logger))
	wire.RegisterPeerExchangeServer(n.grpcServer, gossip.NewServer(sp.Router(), logger))
	return n
}

// ID returns the host identity.
func (n *Node) ID() string {
	return n.nodeID
}

// Space returns the local tuple space.
func (n *Node) Space() *space.Space {
	return n.space
}

// Driver returns the gossip driver.
func (n *Node) Driver() *repair.Driver {
	return n.driver
}

// Start listens on the configured address and serves until Stop.
func (n *Node) Start() error {
	lis, err := net.Listen("tcp", n.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", n.listenAddr, err)
	}
	return n.Serve(lis)
}

// Serve starts gossip and serves gRPC on lis until Stop.
func (n *Node) Serve(lis net.Listener) error {
	n.driver.Start()
	n.logger.Info("starting node",
		zap.String("addr", lis.Addr().String()),
		zap.Int("peers", len(n.peers)))

	if err := n.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop gracefully stops the node. Blocked retrievals are resolved with
// space.ErrClosed so in-flight RPCs can finish.
func (n *Node) Stop() {
	n.stopOnce.Do(func() {
		n.logger.Info("stopping node")
		n.driver.Stop()
		n.space.Close()
		n.grpcServer.GracefulStop()
		n.clientMgr.Close()
	})
}
