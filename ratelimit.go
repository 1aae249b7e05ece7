package kvstash

import (
	"container/list"
	"errors"
	"sync"
	"time"
)

const defaultMaxIdentities = 4096

// RateLimiterConfig aggregates the limits enforced by a RateLimiter.
type RateLimiterConfig struct {
	// Limit is the maximum number of requests per identity inside Window.
	Limit int

	// Window is the trailing interval the limit applies to.
	Window time.Duration

	// MaxIdentities bounds the number of tracked identities; the least
	// recently seen identity is evicted when the bound is exceeded.
	// Defaults to 4096.
	MaxIdentities int
}

// RateLimiter is an in-memory per-identity sliding-window limiter.
//
// State is process-local: in a multi-instance deployment each instance
// enforces its own window independently, so the global limit is only
// approximate. Identities are caller-supplied; when derived from a client
// header they are spoofable, and deciding what to trust is the caller's
// responsibility.
//
// Safe for concurrent use.
type RateLimiter struct {
	limit  int
	window time.Duration
	max    int

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently seen
	now     func() time.Time
}

type rateWindow struct {
	identity string
	stamps   []time.Time
}

// NewRateLimiter creates a limiter enforcing cfg.
func NewRateLimiter(cfg RateLimiterConfig) (*RateLimiter, error) {
	if cfg.Limit <= 0 {
		return nil, errors.New("kvstash: rate limit must be positive")
	}
	if cfg.Window <= 0 {
		return nil, errors.New("kvstash: rate window must be positive")
	}
	if cfg.MaxIdentities <= 0 {
		cfg.MaxIdentities = defaultMaxIdentities
	}
	return &RateLimiter{
		limit:   cfg.Limit,
		window:  cfg.Window,
		max:     cfg.MaxIdentities,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}, nil
}

// Allow reports whether a request from identity may proceed now. Timestamps
// older than the window are pruned first; when the remaining count has
// reached the limit the request is denied, otherwise it is recorded and
// allowed.
func (l *RateLimiter) Allow(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	win := l.touch(identity)
	l.prune(win, now)

	if len(win.stamps) >= l.limit {
		return false
	}
	win.stamps = append(win.stamps, now)
	return true
}

// Remaining returns how many requests identity may still make inside the
// current window.
func (l *RateLimiter) Remaining(identity string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	elem, ok := l.entries[identity]
	if !ok {
		return l.limit
	}
	win := elem.Value.(*rateWindow)
	l.prune(win, l.now())
	if remaining := l.limit - len(win.stamps); remaining > 0 {
		return remaining
	}
	return 0
}

// Identities returns the number of identities currently tracked.
func (l *RateLimiter) Identities() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// touch returns the window for identity, creating it and evicting the least
// recently seen identity when the bound is exceeded. Caller holds the lock.
func (l *RateLimiter) touch(identity string) *rateWindow {
	if elem, ok := l.entries[identity]; ok {
		l.order.MoveToFront(elem)
		return elem.Value.(*rateWindow)
	}
	if l.order.Len() >= l.max {
		oldest := l.order.Back()
		if oldest != nil {
			l.order.Remove(oldest)
			delete(l.entries, oldest.Value.(*rateWindow).identity)
		}
	}
	win := &rateWindow{identity: identity}
	l.entries[identity] = l.order.PushFront(win)
	return win
}

// prune drops timestamps that fell out of the trailing window. Caller holds
// the lock.
func (l *RateLimiter) prune(win *rateWindow, now time.Time) {
	cutoff := now.Add(-l.window)
	kept := win.stamps[:0]
	for _, t := range win.stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	win.stamps = kept
}
