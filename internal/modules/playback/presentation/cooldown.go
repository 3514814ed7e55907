package presentation

import (
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/plexbeat/plexbeat/internal/modules/playback/controlid"
	"golang.org/x/time/rate"
)

// Cooldown defaults. A user may fire each control once per window; entries
// idle longer than the TTL are evicted so the map stays bounded.
const (
	DefaultCooldownWindow = 2 * time.Second
	DefaultCooldownTTL    = 10 * time.Minute
)

type cooldownKey struct {
	userID snowflake.ID
	action controlid.Action
}

type cooldownEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// CooldownGate rate-limits control activations per user and action. Distinct
// actions do not share a budget, so pausing does not lock a user out of
// skipping.
type CooldownGate struct {
	window time.Duration
	ttl    time.Duration

	mu        sync.Mutex
	entries   map[cooldownKey]*cooldownEntry
	lastSweep time.Time
}

// NewCooldownGate creates a CooldownGate. Non-positive arguments fall back to
// the defaults.
func NewCooldownGate(window, ttl time.Duration) *CooldownGate {
	if window <= 0 {
		window = DefaultCooldownWindow
	}
	if ttl <= 0 {
		ttl = DefaultCooldownTTL
	}
	return &CooldownGate{
		window:    window,
		ttl:       ttl,
		entries:   make(map[cooldownKey]*cooldownEntry),
		lastSweep: time.Now(),
	}
}

// Allow reports whether the user may fire the action now. A denied activation
// does not extend the window.
func (g *CooldownGate) Allow(userID snowflake.ID, action controlid.Action) bool {
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if now.Sub(g.lastSweep) >= g.ttl {
		g.sweepLocked(now)
	}

	key := cooldownKey{userID: userID, action: action}
	entry, ok := g.entries[key]
	if !ok {
		entry = &cooldownEntry{
			limiter: rate.NewLimiter(rate.Every(g.window), 1),
		}
		g.entries[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.Allow()
}

// sweepLocked drops entries that have been idle past the TTL. Must be called
// with the gate mutex held.
func (g *CooldownGate) sweepLocked(now time.Time) {
	for key, entry := range g.entries {
		if now.Sub(entry.lastSeen) >= g.ttl {
			delete(g.entries, key)
		}
	}
	g.lastSweep = now
}

// Size returns the number of tracked user and action pairs.
func (g *CooldownGate) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
