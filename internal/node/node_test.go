package node

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"tuplespace/internal/config"
	"tuplespace/internal/tuple"
	"tuplespace/internal/wire"
)

// bufNet routes dials by host id to in-memory listeners.
type bufNet struct {
	mu        sync.Mutex
	listeners map[string]*bufconn.Listener
}

func newBufNet() *bufNet {
	return &bufNet{listeners: make(map[string]*bufconn.Listener)}
}

func (b *bufNet) listen(id string) *bufconn.Listener {
	b.mu.Lock()
	defer b.mu.Unlock()
	lis := bufconn.Listen(1 << 20)
	b.listeners[id] = lis
	return lis
}

func (b *bufNet) dialer() grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
		b.mu.Lock()
		lis, ok := b.listeners[addr]
		b.mu.Unlock()
		if !ok {
			return nil, &net.OpError{Op: "dial", Net: "bufconn", Err: net.UnknownNetworkError(addr)}
		}
		return lis.DialContext(ctx)
	})
}

func target(id string) string {
	return "passthrough:///" + id
}

func testConfig(id string, peers ...string) *config.Config {
	cfg := config.Default()
	cfg.NodeID = id
	cfg.Capacity = 128
	cfg.GossipInterval = time.Hour
	for _, p := range peers {
		cfg.Peers = append(cfg.Peers, config.Peer{ID: p, Addr: target(p)})
	}
	return &cfg
}

func startNode(t *testing.T, bn *bufNet, cfg *config.Config) *Node {
	t.Helper()
	n := NewNode(cfg, nil, bn.dialer())
	lis := bn.listen(cfg.NodeID)
	go n.Serve(lis)
	t.Cleanup(n.Stop)
	return n
}

func spaceClient(t *testing.T, bn *bufNet, id string) wire.TupleSpaceClient {
	t.Helper()
	cc, err := grpc.NewClient(target(id),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		bn.dialer())
	require.NoError(t, err)
	t.Cleanup(func() { cc.Close() })
	return wire.NewTupleSpaceClient(cc)
}

func peerClient(t *testing.T, bn *bufNet, id string) wire.PeerExchangeClient {
	t.Helper()
	cc, err := grpc.NewClient(target(id),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		bn.dialer())
	require.NoError(t, err)
	t.Cleanup(func() { cc.Close() })
	return wire.NewPeerExchangeClient(cc)
}

func wireTuple(leasing time.Time, fields ...tuple.Field) *wire.Tuple {
	return wire.FromTuple(tuple.New(leasing, fields...))
}

func TestNode_OutThenIn(t *testing.T) {
	bn := newBufNet()
	startNode(t, bn, testConfig("n1"))
	client := spaceClient(t, bn, "n1")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := client.Out(ctx, &wire.OutRequest{Tuples: []*wire.Tuple{
		wireTuple(time.Now().Add(time.Hour), tuple.Int(10), tuple.String("hi")),
	}})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), out.Stored)

	resp, err := client.In(ctx, &wire.TupleMessage{
		Tuple: wire.FromTuple(tuple.Template(tuple.Int(10), tuple.Formal(tuple.KindString))),
	})
	require.NoError(t, err)
	got, err := resp.Tuple.ToTuple()
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Field(1).AsString())

	health, err := client.Health(ctx, &wire.HostRequest{})
	require.NoError(t, err)
	assert.Equal(t, "n1", health.HostId)
	assert.Equal(t, uint64(0), health.Stored)
}

func TestNode_ReadBlocksUntilOut(t *testing.T) {
	bn := newBufNet()
	startNode(t, bn, testConfig("n1"))
	client := spaceClient(t, bn, "n1")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		msg *wire.TupleMessage
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := client.Read(ctx, &wire.TupleMessage{
			Tuple: wire.FromTuple(tuple.Template(tuple.Formal(tuple.KindBool))),
		})
		done <- result{msg, err}
	}()

	require.Eventually(t, func() bool {
		h, err := client.Health(ctx, &wire.HostRequest{})
		return err == nil && h.Pending == 1
	}, 2*time.Second, 5*time.Millisecond)

	_, err := client.Out(ctx, &wire.OutRequest{Tuples: []*wire.Tuple{
		wireTuple(time.Now().Add(time.Hour), tuple.Bool(true)),
	}})
	require.NoError(t, err)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		got, err := r.msg.Tuple.ToTuple()
		require.NoError(t, err)
		assert.True(t, got.Field(0).AsBool())
	case <-ctx.Done():
		t.Fatal("Read did not resolve")
	}
}

func TestNode_CapacityIsResourceExhausted(t *testing.T) {
	bn := newBufNet()
	cfg := testConfig("n1")
	cfg.MaxPending = 1
	startNode(t, bn, cfg)
	client := spaceClient(t, bn, "n1")

	blockCtx, cancelBlock := context.WithCancel(context.Background())
	defer cancelBlock()
	go client.In(blockCtx, &wire.TupleMessage{
		Tuple: wire.FromTuple(tuple.Template(tuple.String("never"))),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.Eventually(t, func() bool {
		h, err := client.Health(ctx, &wire.HostRequest{})
		return err == nil && h.Pending == 1
	}, 2*time.Second, 5*time.Millisecond)

	_, err := client.Read(ctx, &wire.TupleMessage{
		Tuple: wire.FromTuple(tuple.Template(tuple.String("never"))),
	})
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestNode_MalformedIsInvalidArgument(t *testing.T) {
	bn := newBufNet()
	startNode(t, bn, testConfig("n1"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := spaceClient(t, bn, "n1").Out(ctx, &wire.OutRequest{Tuples: []*wire.Tuple{
		{Fields: []*wire.Field{{Kind: 99}}},
	}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = peerClient(t, bn, "n1").Missing(ctx, &wire.IDList{Ids: [][]byte{{1, 2, 3}}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestNode_GossipBetweenNodes(t *testing.T) {
	bn := newBufNet()
	a := startNode(t, bn, testConfig("a", "b"))
	startNode(t, bn, testConfig("b", "a"))

	a.Space().Out(tuple.New(time.Now().Add(time.Hour), tuple.String("job"), tuple.Int(7)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	results := a.Driver().RunRound(ctx)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, 1, results[0].Pushed)

	resp, err := spaceClient(t, bn, "b").In(ctx, &wire.TupleMessage{
		Tuple: wire.FromTuple(tuple.Template(tuple.String("job"), tuple.Formal(tuple.KindInt))),
	})
	require.NoError(t, err)
	got, err := resp.Tuple.ToTuple()
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Field(1).AsInt())
}

func TestNode_StopResolvesBlockedCalls(t *testing.T) {
	bn := newBufNet()
	n := startNode(t, bn, testConfig("n1"))
	client := spaceClient(t, bn, "n1")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		_, err := client.In(ctx, &wire.TupleMessage{
			Tuple: wire.FromTuple(tuple.Template(tuple.Int(1))),
		})
		errc <- err
	}()
	require.Eventually(t, func() bool {
		return n.Space().Stats().Pending == 1
	}, 2*time.Second, 5*time.Millisecond)

	n.Stop()

	select {
	case err := <-errc:
		assert.Equal(t, codes.Unavailable, status.Code(err))
	case <-ctx.Done():
		t.Fatal("Blocked In was not released by Stop")
	}
}
