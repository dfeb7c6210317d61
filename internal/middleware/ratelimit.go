package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ledgerly/ledgerly-server-go/internal/audit"
	apperrors "github.com/ledgerly/ledgerly-server-go/internal/errors"
	"github.com/ledgerly/ledgerly-server-go/internal/httputil"
	"github.com/ledgerly/ledgerly-server-go/internal/metrics"
	"github.com/ledgerly/ledgerly-server-go/internal/service"
)

// Limiter records one request against key and reports whether it fits in the
// window. service.RateLimiter is the Redis-backed implementation.
type Limiter interface {
	CheckLimit(ctx context.Context, key string, limit int, window time.Duration) service.LimitResult
}

const (
	maxEntries      = 10000
	cleanupInterval = time.Minute
)

type rateLimitEntry struct {
	timestamps []time.Time
	lastAccess time.Time
}

// MemoryLimiter is a per-process sliding window used when Redis is not
// configured. Limits are not shared between instances.
type MemoryLimiter struct {
	mu          sync.Mutex
	store       map[string]*rateLimitEntry
	lastCleanup time.Time
	now         func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		store:       make(map[string]*rateLimitEntry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (rl *MemoryLimiter) cleanup(now time.Time, window time.Duration) {
	if now.Sub(rl.lastCleanup) < cleanupInterval {
		return
	}
	rl.lastCleanup = now

	for key, entry := range rl.store {
		if now.Sub(entry.lastAccess) > window {
			delete(rl.store, key)
		}
	}

	if len(rl.store) > maxEntries {
		drop := len(rl.store) / 5
		for key := range rl.store {
			if drop == 0 {
				break
			}
			delete(rl.store, key)
			drop--
		}
	}
}

func (rl *MemoryLimiter) CheckLimit(_ context.Context, key string, limit int, window time.Duration) service.LimitResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanup(now, window)

	entry, exists := rl.store[key]
	if !exists {
		entry = &rateLimitEntry{}
		rl.store[key] = entry
	}
	entry.lastAccess = now

	windowStart := now.Add(-window)
	filtered := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			filtered = append(filtered, ts)
		}
	}
	entry.timestamps = filtered

	resetAt := now.Add(window)
	if len(entry.timestamps) > 0 {
		resetAt = entry.timestamps[0].Add(window)
	}

	if len(entry.timestamps) >= limit {
		return service.LimitResult{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}

	entry.timestamps = append(entry.timestamps, now)
	return service.LimitResult{Allowed: true, Remaining: limit - len(entry.timestamps), ResetAt: resetAt}
}

// IPRateLimitMiddleware limits unauthenticated endpoints per client address.
// Mount it after chi's RealIP so RemoteAddr is the client.
type IPRateLimitMiddleware struct {
	limiter Limiter
	limit   int
	window  time.Duration
	scope   string
}

func NewIPRateLimitMiddleware(limiter Limiter, limit int, window time.Duration, scope string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		scope:   scope,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		key := fmt.Sprintf("ip:%s:%s", m.scope, ip)
		result := m.limiter.CheckLimit(r.Context(), key, m.limit, m.window)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			secondsLeft := int(time.Until(result.ResetAt).Seconds()) + 1
			if secondsLeft < 1 {
				secondsLeft = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secondsLeft))

			log.Warn().Str("scope", m.scope).Str("ip", ip).Msg("rate limit exceeded")
			metrics.RateLimitedTotal.WithLabelValues(m.scope).Inc()
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Details: map[string]interface{}{"scope": m.scope},
			})
			httputil.WriteError(w, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
