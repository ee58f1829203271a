package validation

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket per client: each client may spend
// maxRequests tokens per window, refilled continuously.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	clients     map[string]*bucket
	mu          sync.Mutex
	cleanupTick *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter with specified limits
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		clients:     make(map[string]*bucket),
		done:        make(chan struct{}),
	}

	// Idle clients are swept every few windows.
	rl.cleanupTick = time.NewTicker(4 * window)
	go rl.cleanup()

	return rl
}

// Allow spends one token for clientID and reports whether one was available.
func (rl *RateLimiter) Allow(clientID string) bool {
	return rl.allowAt(clientID, time.Now())
}

func (rl *RateLimiter) allowAt(clientID string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[clientID]
	if !ok {
		b = &bucket{tokens: float64(rl.maxRequests), lastSeen: now}
		rl.clients[clientID] = b
	}

	if elapsed := now.Sub(b.lastSeen); elapsed > 0 {
		b.tokens += float64(rl.maxRequests) * float64(elapsed) / float64(rl.window)
		if max := float64(rl.maxRequests); b.tokens > max {
			b.tokens = max
		}
		b.lastSeen = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Forget drops clientID's bucket.
func (rl *RateLimiter) Forget(clientID string) {
	rl.mu.Lock()
	delete(rl.clients, clientID)
	rl.mu.Unlock()
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case now := <-rl.cleanupTick.C:
			rl.removeIdle(now)
		case <-rl.done:
			return
		}
	}
}

// removeIdle drops clients that have not been seen for two windows. Their
// bucket would be full again anyway.
func (rl *RateLimiter) removeIdle(now time.Time) {
	cutoff := now.Add(-2 * rl.window)

	rl.mu.Lock()
	for id, b := range rl.clients {
		if b.lastSeen.Before(cutoff) {
			delete(rl.clients, id)
		}
	}
	rl.mu.Unlock()
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.done)
		rl.cleanupTick.Stop()
	})
}
