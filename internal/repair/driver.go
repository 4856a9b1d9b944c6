package repair

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"tuplespace/internal/gossip"
)

const (
	// DefaultInterval is the time between gossip rounds.
	DefaultInterval = time.Second

	// DefaultTimeout bounds a single exchange.
	DefaultTimeout = 2 * time.Second

	// DefaultFanout is the number of peers contacted per round.
	DefaultFanout = 3
)

// PeerSource lists the peers a round may pick from.
type PeerSource func() []Peer

// DriverConfig tunes a Driver. Zero fields take the defaults.
type DriverConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	Fanout   int
}

// Driver runs periodic exchanges between the local host and its peers.
type Driver struct {
	local    Peer
	peers    PeerSource
	throttle *gossip.Throttle
	cfg      DriverConfig
	clock    clock.Clock
	logger   *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDriver creates a driver. A nil throttle contacts every picked peer; a
// nil clock uses the wall clock.
func NewDriver(local Peer, peers PeerSource, throttle *gossip.Throttle, cfg DriverConfig, clk clock.Clock, logger *zap.Logger) *Driver {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Fanout <= 0 {
		cfg.Fanout = DefaultFanout
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Driver{
		local:    local,
		peers:    peers,
		throttle: throttle,
		cfg:      cfg,
		clock:    clk,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the round loop.
func (d *Driver) Start() {
	d.wg.Add(1)
	go d.loop()
}

// Stop ends the round loop and waits for the running round.
func (d *Driver) Stop() {
	d.cancel()
	d.wg.Wait()
}

func (d *Driver) loop() {
	defer d.wg.Done()

	ticker := d.clock.Ticker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.RunRound(d.ctx)
		}
	}
}

// RunRound exchanges with up to Fanout peers the throttle allows, in
// parallel, and returns one result per contacted peer.
func (d *Driver) RunRound(ctx context.Context) []Result {
	targets := d.pick()
	if len(targets) == 0 {
		return nil
	}

	results := make([]Result, len(targets))
	var wg sync.WaitGroup
	for i, p := range targets {
		wg.Add(1)
		go func(i int, p Peer) {
			defer wg.Done()
			defer func() {
				if err := recover(); err != nil {
					d.logger.Error("exchange panic", zap.String("peer", p.ID()), zap.Any("panic", err))
				}
			}()

			exCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
			defer cancel()

			res, err := Exchange(exCtx, d.local, p)
			res.Err = err
			results[i] = res
		}(i, p)
	}
	wg.Wait()

	pulled, pushed, failed := 0, 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			d.logger.Warn("exchange failed", zap.String("peer", res.Peer), zap.Error(res.Err))
			continue
		}
		pulled += res.Pulled
		pushed += res.Pushed
	}
	if pulled > 0 || pushed > 0 || failed > 0 {
		d.logger.Debug("gossip round completed",
			zap.Int("peers", len(targets)),
			zap.Int("pulled", pulled),
			zap.Int("pushed", pushed),
			zap.Int("failed", failed))
	}
	return results
}

// pick shuffles the peers and keeps the first Fanout the throttle allows.
// The throttle only records contact for peers actually picked.
func (d *Driver) pick() []Peer {
	all := d.peers()
	if len(all) == 0 {
		return nil
	}
	candidates := make([]Peer, len(all))
	copy(candidates, all)

	d.rngMu.Lock()
	d.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	d.rngMu.Unlock()

	picked := make([]Peer, 0, d.cfg.Fanout)
	for _, p := range candidates {
		if len(picked) == d.cfg.Fanout {
			break
		}
		if p.ID() == d.local.ID() {
			continue
		}
		if d.throttle != nil && !d.throttle.ShouldCommunicate(p.ID()) {
			continue
		}
		picked = append(picked, p)
	}
	return picked
}
