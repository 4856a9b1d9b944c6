package gossip

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// DefaultPeerCacheSize bounds the number of remembered peer contacts.
	DefaultPeerCacheSize = 100
	// DefaultContactCooldown is how long a peer is left alone after contact.
	DefaultContactCooldown = 30 * time.Second
)

// Throttle decides whether a reconciliation exchange with a peer should
// happen now. It remembers the last contact with a bounded number of
// peers, forgetting the one contacted longest ago when full.
type Throttle struct {
	mu       sync.Mutex
	clock    clock.Clock
	capacity int
	cooldown time.Duration
	contacts map[string]time.Time
}

// NewThrottle creates a throttle. Non-positive values use the defaults; a
// nil clock uses the wall clock.
func NewThrottle(capacity int, cooldown time.Duration, clk clock.Clock) *Throttle {
	if capacity <= 0 {
		capacity = DefaultPeerCacheSize
	}
	if cooldown <= 0 {
		cooldown = DefaultContactCooldown
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Throttle{
		clock:    clk,
		capacity: capacity,
		cooldown: cooldown,
		contacts: make(map[string]time.Time, capacity),
	}
}

// ShouldCommunicate reports whether host may be contacted now, recording
// the contact when it may. An unknown host is always allowed; a known one
// only once the cooldown has fully elapsed since the last allowed contact.
func (t *Throttle) ShouldCommunicate(host string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	last, known := t.contacts[host]
	if !known {
		if len(t.contacts) >= t.capacity {
			t.evictOldestLocked()
		}
		t.contacts[host] = now
		return true
	}
	if now.Sub(last) > t.cooldown {
		t.contacts[host] = now
		return true
	}
	return false
}

// evictOldestLocked forgets the host with the oldest contact, breaking
// ties by host id.
func (t *Throttle) evictOldestLocked() {
	var (
		oldest string
		at     time.Time
		found  bool
	)
	for host, last := range t.contacts {
		if !found || last.Before(at) || (last.Equal(at) && host < oldest) {
			oldest, at, found = host, last, true
		}
	}
	if found {
		delete(t.contacts, oldest)
	}
}

// Len returns the number of remembered peers.
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.contacts)
}
