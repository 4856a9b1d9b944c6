package it

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuplespace/internal/config"
	"tuplespace/internal/tuple"
	"tuplespace/internal/wire"
)

func outRequest(fields ...tuple.Field) *wire.OutRequest {
	return &wire.OutRequest{Tuples: []*wire.Tuple{
		wire.FromTuple(tuple.New(time.Now().Add(time.Hour), fields...)),
	}}
}

func TestSmoke_TuplePropagatesAcrossMesh(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cluster := NewCluster()
	require.NoError(t, cluster.StartMesh(3))
	defer cluster.Stop()

	node1 := cluster.GetNode("n1")
	require.NotNil(t, node1)

	_, err := node1.GetClient().Out(ctx, outRequest(tuple.String("task"), tuple.Int(42)))
	require.NoError(t, err)

	for _, id := range []string{"n2", "n3"} {
		n := cluster.GetNode(id)
		require.Eventually(t, func() bool { return n.Stored() == 1 }, 5*time.Second, 10*time.Millisecond,
			"tuple did not reach %s", id)
	}

	// Consume on n3; the copies on other hosts are independent.
	inCtx, inCancel := context.WithTimeout(ctx, 5*time.Second)
	resp, err := cluster.GetNode("n3").GetClient().In(inCtx, &wire.TupleMessage{
		Tuple: wire.FromTuple(tuple.Template(tuple.String("task"), tuple.Formal(tuple.KindInt))),
	})
	inCancel()
	require.NoError(t, err)
	got, err := resp.Tuple.ToTuple()
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Field(1).AsInt())
	assert.Equal(t, 1, node1.Stored())
}

func TestSmoke_HopBudgetLimitsReach(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cluster := NewCluster()
	require.NoError(t, cluster.StartLine(4, func(c *config.Config) { c.HopBudget = 2 }))
	defer cluster.Stop()

	_, err := cluster.GetNode("n1").GetClient().Out(ctx, outRequest(tuple.Bool(true)))
	require.NoError(t, err)

	// n1 offers it with 2 hops, n2 relays it with 1, n3 stores it with 0
	// and stops offering.
	n3 := cluster.GetNode("n3")
	require.Eventually(t, func() bool { return n3.Stored() == 1 }, 5*time.Second, 10*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, cluster.GetNode("n4").Stored(), "tuple travelled past its hop budget")
}

func TestSmoke_DeadPeerDoesNotStopGossip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cluster := NewCluster()
	require.NoError(t, cluster.StartMesh(3))
	defer cluster.Stop()

	require.NoError(t, cluster.KillNode("n3"))
	assert.Nil(t, cluster.GetNode("n3"), "killed node still tracked by the cluster")

	_, err := cluster.GetNode("n1").GetClient().Out(ctx, outRequest(tuple.Float(0.5)))
	require.NoError(t, err)

	n2 := cluster.GetNode("n2")
	require.Eventually(t, func() bool { return n2.Stored() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestSmoke_HealthReportsState(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cluster := NewCluster()
	require.NoError(t, cluster.StartNode("solo", nil, nil))
	defer cluster.Stop()

	client := cluster.GetNode("solo").GetClient()
	_, err := client.Out(ctx, outRequest(tuple.Int(1)))
	require.NoError(t, err)

	health, err := client.Health(ctx, &wire.HostRequest{FromId: "test"})
	require.NoError(t, err)
	assert.Equal(t, "solo", health.HostId)
	assert.Equal(t, uint64(1), health.Stored)
	assert.Equal(t, uint64(1), health.Messages)
	assert.Equal(t, uint64(0), health.Pending)
}
