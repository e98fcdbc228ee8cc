package respond

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// clientLimiter applies a token bucket per client address and evicts idle
// clients.
type clientLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	byClient map[string]*clientEntry
	hits     uint64
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newClientLimiter returns nil for a non-positive rate or burst.
func newClientLimiter(rps float64, burst int) *clientLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	return &clientLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		byClient: make(map[string]*clientEntry),
	}
}

func (l *clientLimiter) allow(r *http.Request, now time.Time) bool {
	if l == nil {
		return true
	}
	client := clientAddr(r)

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byClient[client]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byClient[client] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-limiterIdleTTL)
		for k, v := range l.byClient {
			if v.lastSeen.Before(cutoff) {
				delete(l.byClient, k)
			}
		}
	}
	return allowed
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
