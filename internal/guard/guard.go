// Package guard vets incoming shot classifications before they reach the
// drill engine: per-session rate limiting and duplicate-detection debounce.
// Out-of-order and duplicate normalization is the host's job, not the core's.
package guard

import (
	"sync"
	"time"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

// Config holds ingress limits.
type Config struct {
	// RateLimitPerMinute caps accepted shots per session per 60s window.
	// Zero disables the limit.
	RateLimitPerMinute int
	// DebounceWindow drops a classification identical to the previous one
	// (same outcome and zone) arriving within the window. Zero disables it.
	DebounceWindow time.Duration
}

// Guard applies ingress checks per session.
type Guard struct {
	Config Config

	mu      sync.Mutex
	buckets map[string]*rateBucket
	last    map[string]lastShot

	// now is stubbed in tests.
	now func() time.Time
}

type rateBucket struct {
	count       int
	windowStart int64
}

type lastShot struct {
	outcome domain.ShotOutcome
	zone    domain.Zone
	at      time.Time
}

// NewGuard creates a Guard with the given limits.
func NewGuard(cfg Config) *Guard {
	return &Guard{
		Config:  cfg,
		buckets: make(map[string]*rateBucket),
		last:    make(map[string]lastShot),
		now:     time.Now,
	}
}

// Admit runs all ingress checks in order: debounce, then rate limit.
// A nil return means the shot may be forwarded to the engine.
func (g *Guard) Admit(sessionID string, outcome domain.ShotOutcome, zone domain.Zone) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	if g.Config.DebounceWindow > 0 {
		if prev, ok := g.last[sessionID]; ok &&
			prev.outcome == outcome && prev.zone == zone &&
			now.Sub(prev.at) < g.Config.DebounceWindow {
			return domain.ErrDuplicateDetection
		}
	}

	if g.Config.RateLimitPerMinute > 0 {
		if err := g.checkRateLocked(sessionID, now.Unix()); err != nil {
			return err
		}
	}

	g.last[sessionID] = lastShot{outcome: outcome, zone: zone, at: now}
	return nil
}

// Forget drops the guard's state for a finished session.
func (g *Guard) Forget(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.buckets, sessionID)
	delete(g.last, sessionID)
}

// checkRateLocked enforces a per-session sliding window rate limit.
// The window is 60 seconds.
func (g *Guard) checkRateLocked(sessionID string, now int64) error {
	bucket, ok := g.buckets[sessionID]
	if !ok {
		g.buckets[sessionID] = &rateBucket{count: 1, windowStart: now}
		return nil
	}

	if now-bucket.windowStart > 60 {
		bucket.count = 1
		bucket.windowStart = now
		return nil
	}

	if bucket.count >= g.Config.RateLimitPerMinute {
		return domain.ErrRateLimitExceeded
	}

	bucket.count++
	return nil
}
