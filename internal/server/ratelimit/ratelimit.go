// Package ratelimit throttles the tailoring endpoints. A tailoring run
// spends model tokens and a LaTeX compile, so each client gets a small
// token bucket per route; everything else falls under a lenient default.
package ratelimit

import (
	"sync"
	"time"
)

// staleAfter is how long an idle client's bucket survives before the
// janitor drops it.
const staleAfter = time.Hour

// bucket is a token bucket: level refills at perSecond up to capacity,
// and each admitted request costs one token.
type bucket struct {
	mu        sync.Mutex
	capacity  float64
	perSecond float64
	level     float64
	last      time.Time
}

func newBucket(capacity int, perSecond float64) *bucket {
	return &bucket{
		capacity:  float64(capacity),
		perSecond: perSecond,
		level:     float64(capacity),
		last:      time.Now(),
	}
}

// refillLocked advances the level for the time elapsed since the last
// refill. Callers must hold mu.
func (b *bucket) refillLocked(now time.Time) {
	b.level += now.Sub(b.last).Seconds() * b.perSecond
	if b.level > b.capacity {
		b.level = b.capacity
	}
	b.last = now
}

// take consumes one token, reporting whether one was available.
func (b *bucket) take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked(time.Now())
	if b.level < 1 {
		return false
	}
	b.level--
	return true
}

// peek reports the whole tokens remaining and when the bucket will be
// full again, without consuming anything.
func (b *bucket) peek() (remaining int, reset time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.refillLocked(now)

	remaining = int(b.level)
	if b.level >= b.capacity {
		return remaining, now
	}
	deficit := b.capacity - b.level
	return remaining, now.Add(time.Duration(deficit / b.perSecond * float64(time.Second)))
}

// Info describes the rate limit state returned with every decision,
// for the X-RateLimit-* response headers.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// clientBucket pairs a bucket with its last use, for janitor sweeps.
type clientBucket struct {
	b    *bucket
	seen time.Time
}

// Limiter tracks one bucket per client, route, and method.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*clientBucket
	cfg     *Config

	janitor *time.Ticker
	done    chan struct{}
}

// NewLimiter builds a limiter from cfg; nil means the built-in defaults.
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = defaultConfig()
	}

	l := &Limiter{
		entries: make(map[string]*clientBucket),
		cfg:     cfg,
	}

	if cfg.Enabled && cfg.CleanupInterval > 0 {
		l.janitor = time.NewTicker(cfg.CleanupInterval)
		l.done = make(chan struct{})
		go l.sweepLoop()
	}
	return l
}

// Allow decides whether the request may proceed and reports the bucket
// state for response headers.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.cfg.Enabled {
		return true, Info{Allowed: true}
	}

	rule := l.cfg.match(path, method)
	if rule.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	b := l.bucketFor(clientID+" "+method+" "+path, rule)

	allowed := b.take()
	remaining, reset := b.peek()

	info := Info{
		Allowed:   allowed,
		Limit:     rule.Limit,
		Remaining: remaining,
		ResetTime: reset,
	}
	if !allowed {
		if wait := time.Until(reset); wait > 0 {
			info.RetryAfter = wait
		}
	}
	return allowed, info
}

func (l *Limiter) bucketFor(key string, rule Rule) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		burst := rule.Burst
		if burst <= 0 {
			burst = rule.Limit
		}
		entry = &clientBucket{b: newBucket(burst, float64(rule.Limit)/rule.Window.Seconds())}
		l.entries[key] = entry
	}
	entry.seen = time.Now()
	return entry.b
}

func (l *Limiter) sweepLoop() {
	for {
		select {
		case <-l.janitor.C:
			l.sweep(time.Now().Add(-staleAfter))
		case <-l.done:
			return
		}
	}
}

// sweep drops buckets not seen since the cutoff.
func (l *Limiter) sweep(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, entry := range l.entries {
		if entry.seen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

// Stop terminates the janitor goroutine.
func (l *Limiter) Stop() {
	if l.janitor != nil {
		l.janitor.Stop()
	}
	if l.done != nil {
		close(l.done)
	}
}
