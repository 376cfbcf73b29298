package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	general     *rate.Limiter
	credentials *rate.Limiter
	lastSeen    time.Time
}

// RateLimitMiddleware throttles each browser client before its calls fan out
// to the remote API. Login and registration get their own, tighter bucket.
type RateLimitMiddleware struct {
	generalRPM     int
	credentialsRPM int
	mu             sync.Mutex
	clients        map[string]*clientLimiter
}

func NewRateLimitMiddleware(generalRPM int, credentialsRPM int) *RateLimitMiddleware {
	if generalRPM <= 0 {
		generalRPM = 300
	}
	if credentialsRPM <= 0 {
		credentialsRPM = 10
	}

	return &RateLimitMiddleware{
		generalRPM:     generalRPM,
		credentialsRPM: credentialsRPM,
		clients:        map[string]*clientLimiter{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health", "/metrics", "/ws":
			next.ServeHTTP(w, r)
			return
		}

		limiter := m.getLimiter(extractClientIP(r))

		target := limiter.general
		if isCredentialsPath(r.URL.Path) {
			target = limiter.credentials
		}

		if !target.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(target)))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", "")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isCredentialsPath(path string) bool {
	path = strings.ToLower(strings.TrimSuffix(path, "/"))
	return path == "/api/v1/session/login" || path == "/api/v1/session/register"
}

func retryAfterSeconds(l *rate.Limiter) int {
	wait := time.Duration(float64(time.Second) / float64(l.Limit()))
	if secs := int(wait.Seconds() + 0.999); secs > 1 {
		return secs
	}
	return 1
}

func (m *RateLimitMiddleware) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limiter, exists := m.clients[clientIP]; exists {
		limiter.lastSeen = time.Now()
		m.gcLocked()
		return limiter
	}

	created := &clientLimiter{
		general:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.generalRPM)), m.generalRPM),
		credentials: rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.credentialsRPM)), m.credentialsRPM),
		lastSeen:    time.Now(),
	}
	m.clients[clientIP] = created
	m.gcLocked()

	return created
}

func (m *RateLimitMiddleware) gcLocked() {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

func extractClientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
