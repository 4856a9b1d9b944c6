package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Peer represents a peer host in the cluster.
type Peer struct {
	ID   string `yaml:"id" validate:"required"`
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// Config holds the host configuration.
type Config struct {
	NodeID          string        `yaml:"node_id" validate:"required"`
	ListenAddr      string        `yaml:"listen" validate:"required"`
	Peers           []Peer        `yaml:"peers" validate:"dive"`
	Capacity        int           `yaml:"capacity" validate:"gte=1"`
	MaxPending      int           `yaml:"max_pending" validate:"gte=1"`
	HopBudget       int           `yaml:"hop_budget" validate:"gte=1"`
	PeerCacheSize   int           `yaml:"peer_cache_size" validate:"gte=1"`
	ContactCooldown time.Duration `yaml:"contact_cooldown" validate:"gte=0"`
	GossipInterval  time.Duration `yaml:"gossip_interval" validate:"gt=0"`
	Fanout          int           `yaml:"fanout" validate:"gte=1"`
	RPCTimeout      time.Duration `yaml:"rpc_timeout" validate:"gt=0"`
	LogLevel        string        `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns a configuration with every tunable at its default. The
// node id is left empty; Load fills it with a random one.
func Default() Config {
	return Config{
		ListenAddr:      ":50051",
		Capacity:        1_000_000,
		MaxPending:      50,
		HopBudget:       5,
		PeerCacheSize:   100,
		ContactCooldown: 30 * time.Second,
		GossipInterval:  time.Second,
		Fanout:          3,
		RPCTimeout:      2 * time.Second,
		LogLevel:        "info",
	}
}

// Load builds the configuration from command-line args. A --config file is
// read first; flags given explicitly override its values.
func Load(args []string) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("tuplespace", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	nodeID := fs.String("node-id", "", "host identity (default: random)")
	listen := fs.String("listen", cfg.ListenAddr, "gRPC listen address")
	peers := fs.String("peers", "", "comma-separated peers: id1=addr1,id2=addr2")
	capacity := fs.Int("capacity", cfg.Capacity, "number of tuple slots")
	maxPending := fs.Int("max-pending", cfg.MaxPending, "in-flight retrieval bound")
	hopBudget := fs.Int("hop-budget", cfg.HopBudget, "relay hops given to new tuples")
	peerCache := fs.Int("peer-cache-size", cfg.PeerCacheSize, "peer contact records kept")
	cooldown := fs.Duration("contact-cooldown", cfg.ContactCooldown, "minimum time between contacts with a peer")
	interval := fs.Duration("gossip-interval", cfg.GossipInterval, "time between gossip rounds")
	fanout := fs.Int("fanout", cfg.Fanout, "peers contacted per gossip round")
	rpcTimeout := fs.Duration("rpc-timeout", cfg.RPCTimeout, "timeout of one peer exchange")
	logLevel := fs.String("log-level", cfg.LogLevel, "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return nil, err
		}
	}

	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "node-id":
			cfg.NodeID = *nodeID
		case "listen":
			cfg.ListenAddr = *listen
		case "peers":
			p, err := ParsePeers(*peers)
			if err != nil {
				parseErr = err
				return
			}
			cfg.Peers = p
		case "capacity":
			cfg.Capacity = *capacity
		case "max-pending":
			cfg.MaxPending = *maxPending
		case "hop-budget":
			cfg.HopBudget = *hopBudget
		case "peer-cache-size":
			cfg.PeerCacheSize = *peerCache
		case "contact-cooldown":
			cfg.ContactCooldown = *cooldown
		case "gossip-interval":
			cfg.GossipInterval = *interval
		case "fanout":
			cfg.Fanout = *fanout
		case "rpc-timeout":
			cfg.RPCTimeout = *rpcTimeout
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if parseErr != nil {
		return nil, parseErr
	}

	if cfg.NodeID == "" {
		cfg.NodeID = uuid.NewString()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFile overlays the YAML file at path onto c. Keys missing from the
// file keep their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that no peer repeats the local id.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := make(map[string]bool, len(c.Peers))
	for _, p := range c.Peers {
		if seen[p.ID] {
			return fmt.Errorf("invalid config: duplicate peer %s", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// RemotePeers returns the configured peers other than this host.
func (c *Config) RemotePeers() []Peer {
	out := make([]Peer, 0, len(c.Peers))
	for _, p := range c.Peers {
		if p.ID != c.NodeID {
			out = append(out, p)
		}
	}
	return out
}

// ParsePeers parses a comma-separated list of peers in the format:
// "id1=addr1,id2=addr2,id3=addr3"
func ParsePeers(peersStr string) ([]Peer, error) {
	if peersStr == "" {
		return []Peer{}, nil
	}

	parts := strings.Split(peersStr, ",")
	peers := make([]Peer, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid peer format: %s (expected id=addr)", part)
		}

		id := strings.TrimSpace(kv[0])
		addr := strings.TrimSpace(kv[1])

		if id == "" || addr == "" {
			return nil, fmt.Errorf("peer ID and address cannot be empty: %s", part)
		}

		peers = append(peers, Peer{
			ID:   id,
			Addr: addr,
		})
	}

	return peers, nil
}
