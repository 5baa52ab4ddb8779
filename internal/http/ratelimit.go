package http

import (
	"net/http"
	"sync"
	"time"
)

// limiter is a fixed-window per-client rate limiter guarding the sync
// endpoints against runaway clients.
type limiter struct {
	mu                sync.Mutex
	clients           map[string]*clientWindow
	requestsPerMinute int
}

type clientWindow struct {
	windowStart time.Time
	requests    int
}

func newLimiter(requestsPerMinute int) *limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &limiter{
		clients:           make(map[string]*clientWindow),
		requestsPerMinute: requestsPerMinute,
	}
}

func (l *limiter) allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	c, ok := l.clients[clientIP]
	if !ok || now.Sub(c.windowStart) > time.Minute {
		// Opportunistically drop stale windows so the map stays bounded.
		if len(l.clients) > 10000 {
			for ip, w := range l.clients {
				if now.Sub(w.windowStart) > time.Minute {
					delete(l.clients, ip)
				}
			}
		}
		l.clients[clientIP] = &clientWindow{windowStart: now, requests: 1}
		return true
	}

	c.requests++
	return c.requests <= l.requestsPerMinute
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(r.RemoteAddr) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
