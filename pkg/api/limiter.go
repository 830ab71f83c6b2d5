package api

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"
)

const (
	limiterTTL     = 10 * time.Minute
	limiterCleanup = time.Minute
)

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// limiterPool keeps one token bucket per client address. Buckets idle for
// longer than ttl are dropped by a background sweep.
type limiterPool struct {
	mu     sync.Mutex
	m      map[string]*limiterEntry
	rps    rate.Limit
	burst  int
	clock  clock.Clock
	ttl    time.Duration
	stopCh chan struct{}
	once   sync.Once
}

func newLimiterPool(rps float64, burst int, clk clock.Clock) *limiterPool {
	if clk == nil {
		clk = clock.New()
	}
	p := &limiterPool{
		m:      make(map[string]*limiterEntry),
		rps:    rate.Limit(rps),
		burst:  burst,
		clock:  clk,
		ttl:    limiterTTL,
		stopCh: make(chan struct{}),
	}
	go p.cleanupLoop(clk.Ticker(limiterCleanup))
	return p
}

func (p *limiterPool) get(key string) *rate.Limiter {
	now := p.clock.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.m[key]; ok {
		e.lastSeen = now
		return e.l
	}
	l := rate.NewLimiter(p.rps, p.burst)
	p.m[key] = &limiterEntry{l: l, lastSeen: now}
	return l
}

// Allow reports whether a request from key may proceed now. A zero rate
// disables limiting.
func (p *limiterPool) Allow(key string) bool {
	if p.rps <= 0 {
		return true
	}
	return p.get(key).AllowN(p.clock.Now(), 1)
}

func (p *limiterPool) sweep() {
	cutoff := p.clock.Now().Add(-p.ttl)
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, e := range p.m {
		if e.lastSeen.Before(cutoff) {
			delete(p.m, k)
		}
	}
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

func (p *limiterPool) cleanupLoop(t *clock.Ticker) {
	defer t.Stop()
	for {
		select {
		case <-t.C:
			p.sweep()
		case <-p.stopCh:
			return
		}
	}
}

// Shutdown stops the sweep.
func (p *limiterPool) Shutdown() {
	p.once.Do(func() { close(p.stopCh) })
}
