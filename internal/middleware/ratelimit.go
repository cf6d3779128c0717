// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/foodgram/internal/core"
)

var errRateLimited = errors.New("rate limited")

// Quota builds a limit of n requests per window with the given burst.
func Quota(n, burst int, window time.Duration) redis_rate.Limit {
	if window <= 0 {
		window = time.Minute
	}
	return redis_rate.Limit{Rate: n, Burst: burst, Period: window}
}

type RateLimitConfig struct {
	Limit    redis_rate.Limit
	KeyFunc  func(*http.Request) string
	Skip     func(*http.Request) bool
	FailOpen bool
}

// RateLimiter counts requests in redis and falls back to an in-process
// token bucket per key while redis is unreachable.
type RateLimiter struct {
	cfg    RateLimitConfig
	remote *redis_rate.Limiter
	local  *localLimiter
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	local := &localLimiter{}
	go local.sweep(5*time.Minute, 10*time.Minute)

	return &RateLimiter{
		cfg:    cfg,
		remote: redis_rate.NewLimiter(rdb),
		local:  local,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.cfg.Skip != nil && rl.cfg.Skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.cfg.KeyFunc(r)

		res, err := rl.check(r.Context(), key)
		switch {
		case err != nil && rl.cfg.FailOpen:
			slog.WarnContext(r.Context(), "rate limiter unavailable, allowing request",
				"key", key, "error", err)
			next.ServeHTTP(w, r)
			return
		case err != nil:
			core.JSONError(w, core.NewAppError(err, "rate limiter unavailable",
				http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"))
			return
		}

		writeQuotaHeaders(w.Header(), res)

		if res.Allowed == 0 {
			retry := max(int(res.RetryAfter.Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			core.JSONError(w, core.NewAppError(
				errRateLimited,
				fmt.Sprintf("rate limit exceeded, retry after %d seconds", retry),
				http.StatusTooManyRequests,
				"RATE_LIMITED",
			))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) check(ctx context.Context, key string) (*redis_rate.Result, error) {
	res, err := rl.remote.Allow(ctx, key, rl.cfg.Limit)
	if err == nil {
		return res, nil
	}
	slog.DebugContext(ctx, "redis rate limit failed, using local bucket", "error", err)
	return rl.local.allow(key, rl.cfg.Limit)
}

// WriteRateLimiter throttles mutating requests per user and route
// pattern. Reads pass through.
func WriteRateLimiter(rdb *redis.Client, limit redis_rate.Limit) func(http.Handler) http.Handler {
	return NewRateLimiter(rdb, RateLimitConfig{
		Limit:    limit,
		KeyFunc:  KeyByUserAndEndpoint,
		Skip:     isReadOnly,
		FailOpen: true,
	}).Handler
}

func isReadOnly(r *http.Request) bool {
	return r.Method == http.MethodGet ||
		r.Method == http.MethodHead ||
		r.Method == http.MethodOptions
}

// ClientIP returns the caller address, trusting the last hop a proxy
// appended to X-Forwarded-For.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + ClientIP(r)
}

func KeyByUser(r *http.Request) string {
	if id := GetUserID(r.Context()); id != "" {
		return "ratelimit:user:" + id
	}
	return KeyByIP(r)
}

func KeyByUserAndEndpoint(r *http.Request) string {
	route := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		route = rctx.RoutePattern()
	}
	return KeyByUser(r) + ":endpoint:" + r.Method + " " + route
}

func writeQuotaHeaders(h http.Header, res *redis_rate.Result) {
	limit := res.Limit
	reset := int(res.ResetAfter.Seconds())

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
	h.Set("RateLimit", fmt.Sprintf("%d;t=%d", res.Remaining, reset))
}

type bucket struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	lastSeen time.Time
}

type localLimiter struct {
	buckets sync.Map
}

func (l *localLimiter) sweep(every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for now := range ticker.C {
		l.buckets.Range(func(key, value any) bool {
			b := value.(*bucket)
			b.mu.Lock()
			stale := now.Sub(b.lastSeen) > idle
			b.mu.Unlock()
			if stale {
				l.buckets.Delete(key)
			}
			return true
		})
	}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return nil, fmt.Errorf("invalid rate limit %s", limit)
	}

	perSecond := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / perSecond)

	v, _ := l.buckets.LoadOrStore(key, &bucket{
		limiter: rate.NewLimiter(rate.Limit(perSecond), limit.Burst),
	})
	b := v.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSeen = time.Now()

	res := &redis_rate.Result{
		Limit:      limit,
		RetryAfter: -1,
		ResetAfter: interval,
	}
	if b.limiter.Allow() {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	res.Remaining = max(int(b.limiter.Tokens()), 0)

	return res, nil
}
