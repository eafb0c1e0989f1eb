package validation

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idle    time.Duration
	clients map[string]*clientLimiter
	mu      sync.Mutex
	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client with bursts of up to
// burst. Clients idle for more than two minutes are forgotten.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		idle:    2 * time.Minute,
		clients: make(map[string]*clientLimiter),
		done:    make(chan struct{}),
	}
	rl.ticker = time.NewTicker(time.Minute)
	go rl.cleanup()
	return rl
}

// Allow reports whether clientID may make a request now
func (rl *RateLimiter) Allow(clientID string) bool {
	now := time.Now()

	rl.mu.Lock()
	c, ok := rl.clients[clientID]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[clientID] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// Clients returns the number of tracked clients
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.ticker.C:
			rl.removeIdle(time.Now())
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) removeIdle(now time.Time) {
	cutoff := now.Add(-rl.idle)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for id, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, id)
		}
	}
}

// Close stops the cleanup goroutine
func (rl *RateLimiter) Close() {
	rl.once.Do(func() {
		close(rl.done)
		rl.ticker.Stop()
	})
}
