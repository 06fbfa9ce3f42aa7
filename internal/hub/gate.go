package hub

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMoveInterval is the minimum spacing between accepted movement
// updates per connection (~60Hz).
const DefaultMoveInterval = 16 * time.Millisecond

// moveGate rejects movement updates arriving faster than a fixed minimum
// interval per connection. A connection with no entry always gets its first
// update accepted; entries are removed on disconnect.
//
// Each entry is a token bucket with capacity 1 refilling once per interval,
// which is exactly the "accept iff now-last >= interval" rule. Timestamps
// are passed in explicitly so the gate is deterministic under test.
type moveGate struct {
	mu       sync.Mutex
	interval time.Duration
	entries  map[string]*rate.Limiter
}

func newMoveGate(interval time.Duration) *moveGate {
	if interval <= 0 {
		interval = DefaultMoveInterval
	}
	return &moveGate{
		interval: interval,
		entries:  make(map[string]*rate.Limiter),
	}
}

// Allow reports whether an update stamped now should be accepted for the
// given connection, consuming the window on acceptance. A rejected update
// leaves the window untouched: it is dropped, not deferred.
func (g *moveGate) Allow(id string, now time.Time) bool {
	g.mu.Lock()
	lim, ok := g.entries[id]
	if !ok {
		lim = rate.NewLimiter(rate.Every(g.interval), 1)
		g.entries[id] = lim
	}
	g.mu.Unlock()
	return lim.AllowN(now, 1)
}

// Forget drops the connection's entry.
func (g *moveGate) Forget(id string) {
	g.mu.Lock()
	delete(g.entries, id)
	g.mu.Unlock()
}

// Tracked reports whether the connection currently has an entry.
func (g *moveGate) Tracked(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.entries[id]
	return ok
}
