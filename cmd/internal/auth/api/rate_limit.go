package authapi

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ipLimiter is a sliding-window throttle keyed by client IP. It protects the
// credential endpoints from tight submit loops; the backend enforces its own
// stricter limits behind it.
type ipLimiter struct {
	mu        sync.Mutex
	byIP      map[string][]time.Time
	limit     int
	window    time.Duration
	lastPrune time.Time
}

func newIPLimiter(limit int, window time.Duration) *ipLimiter {
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &ipLimiter{
		byIP:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

// Allow reports whether an attempt from ip at time "now" should be permitted.
func (l *ipLimiter) Allow(ip string, now time.Time) bool {
	if ip == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) >= l.window {
		l.pruneLocked(now)
		l.lastPrune = now
	}

	cut := now.Add(-l.window)
	dst := l.byIP[ip][:0]
	for _, t := range l.byIP[ip] {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}

	if len(dst) >= l.limit {
		l.byIP[ip] = dst
		return false
	}
	l.byIP[ip] = append(dst, now)
	return true
}

// prune drops IPs whose entire window has elapsed. Allow runs it at most
// once per window.
func (l *ipLimiter) prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(now)
}

func (l *ipLimiter) pruneLocked(now time.Time) {
	cut := now.Add(-l.window)
	for ip, events := range l.byIP {
		if len(events) == 0 || !events[len(events)-1].After(cut) {
			delete(l.byIP, ip)
		}
	}
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration, message string) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
	}
	writeError(w, http.StatusTooManyRequests, "rate_limited", message)
}

// clientIP extracts the peer address, honoring X-Forwarded-For only when the
// deployment says the proxy is trusted.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
			first := fwd
			if i := strings.IndexByte(fwd, ','); i >= 0 {
				first = fwd[:i]
			}
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
