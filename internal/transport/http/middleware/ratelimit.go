package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"staffing/internal/transport/http/api"
	"staffing/internal/transport/http/shared"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*keyedLimiter)

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(kl *keyedLimiter) {
		if fn != nil {
			kl.keyFn = fn
		}
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedLimiter holds one token bucket per key. A bucket refills limit
// tokens per window and holds at most limit tokens.
type keyedLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	every     rate.Limit
	keyFn     RateLimitKeyFunc
	entries   map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func newKeyedLimiter(limit int, window time.Duration, keyFn RateLimitKeyFunc) *keyedLimiter {
	if keyFn == nil {
		keyFn = actorOrIPKey
	}
	every := rate.Inf
	if limit > 0 && window > 0 {
		every = rate.Every(window / time.Duration(limit))
	}
	return &keyedLimiter{
		limit:   limit,
		window:  window,
		every:   every,
		keyFn:   keyFn,
		entries: map[string]*limiterEntry{},
		now:     time.Now,
	}
}

func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	kl := newKeyedLimiter(limit, window, actorOrIPKey)
	for _, opt := range opts {
		opt(kl)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !kl.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SensitiveMutationRateLimit applies a tighter per-actor budget to
// approvals, invoice generation and settings changes.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	sensitive := newKeyedLimiter(max(baseLimit/2, 1), window, actorOrIPKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSensitiveMutation(r) && !sensitive.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return "ip:" + shared.ClientIP(r)
}

func (kl *keyedLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	if kl.window > 0 && now.Sub(kl.lastSweep) > 10*kl.window {
		for k, e := range kl.entries {
			if now.Sub(e.lastSeen) > kl.window {
				delete(kl.entries, k)
			}
		}
		kl.lastSweep = now
	}
	entry, ok := kl.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(kl.every, kl.limit)}
		kl.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (kl *keyedLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if kl.limit <= 0 {
		return true
	}
	key := kl.keyFn(r)
	if key == "" {
		key = "ip:" + shared.ClientIP(r)
	}
	now := kl.now()
	limiter := kl.limiterFor(key, now)

	reservation := limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay > 0 {
		reservation.CancelAt(now)
	}
	remaining := int(math.Max(0, math.Floor(limiter.TokensAt(now))))

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(kl.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

	if delay > 0 {
		retry := int(math.Ceil(delay.Seconds()))
		w.Header().Set("X-RateLimit-Reset", strconv.Itoa(retry))
		w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
		slog.Warn("rate limit exceeded",
			"key", key,
			"path", r.URL.Path,
			"method", r.Method,
			"limit", kl.limit,
			"windowSec", int(kl.window.Seconds()),
		)
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
		return false
	}
	w.Header().Set("X-RateLimit-Reset", "0")
	return true
}

func isSensitiveMutation(r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	path := strings.TrimPrefix(strings.TrimSpace(r.URL.Path), "/api/v1")
	switch {
	case path == "/invoices", path == "/invoices/overdue/run", path == "/company/settings":
		return true
	case strings.HasPrefix(path, "/timesheets/") && strings.HasSuffix(path, "/status"):
		return true
	case strings.HasPrefix(path, "/invoices/") && strings.HasSuffix(path, "/status"):
		return true
	}
	return false
}
