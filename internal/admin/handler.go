// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/foodgram/internal/core"
)

const defaultPruneAge = 24 * time.Hour

// Counter reports the size of one catalogue table.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

type SessionPruner interface {
	PruneSessions(ctx context.Context, olderThan time.Duration) (int64, error)
}

type HandlerConfig struct {
	DBStats     func() sql.DBStats
	RedisStats  func() *redis.PoolStats
	Users       Counter
	Recipes     Counter
	Tags        Counter
	Ingredients Counter
	Sessions    SessionPruner
}

type Handler struct {
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	counters   map[string]Counter
	sessions   SessionPruner
}

func NewHandler(cfg HandlerConfig) *Handler {
	counters := map[string]Counter{}
	for name, c := range map[string]Counter{
		"users":       cfg.Users,
		"recipes":     cfg.Recipes,
		"tags":        cfg.Tags,
		"ingredients": cfg.Ingredients,
	} {
		if c != nil {
			counters[name] = c
		}
	}

	return &Handler{
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		counters:   counters,
		sessions:   cfg.Sessions,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetStats)
		r.Get("/stats/catalogue", h.GetCatalogue)
		r.Get("/stats/runtime", h.GetRuntime)
		r.Post("/sessions/prune", h.PruneSessions)
	})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	catalogue, err := h.catalogue(r.Context())
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.OK(w, StatsResponse{
		Catalogue: catalogue,
		Database:  h.dbPool(),
		Redis:     h.redisPool(),
		Runtime:   readRuntime(),
	})
}

func (h *Handler) GetCatalogue(w http.ResponseWriter, r *http.Request) {
	catalogue, err := h.catalogue(r.Context())
	if err != nil {
		core.WriteError(w, err)
		return
	}
	core.OK(w, catalogue)
}

func (h *Handler) GetRuntime(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, readRuntime())
}

// PruneSessions deletes refresh tokens that expired more than older_than ago.
func (h *Handler) PruneSessions(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		core.JSONError(w, core.NewAppError(
			nil, "session store not configured",
			http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"))
		return
	}

	age := defaultPruneAge
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			core.JSONError(w, core.NewValidationError("older_than", "must be a non-negative duration"))
			return
		}
		age = d
	}

	deleted, err := h.sessions.PruneSessions(r.Context(), age)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "expired sessions pruned",
		"deleted", deleted,
		"older_than", age.String(),
	)
	core.OK(w, PruneResponse{Deleted: deleted, OlderThan: age.String()})
}

// catalogue counts every registered table concurrently.
func (h *Handler) catalogue(ctx context.Context) (map[string]int, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	out := make(map[string]int, len(h.counters))
	for name, c := range h.counters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := c.Count(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			out[name] = n
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (h *Handler) dbPool() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	s := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration.String(),
	}
}

func (h *Handler) redisPool() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	s := h.redisStats()
	return &RedisPoolStats{
		Hits:       s.Hits,
		Misses:     s.Misses,
		Timeouts:   s.Timeouts,
		TotalConns: s.TotalConns,
		IdleConns:  s.IdleConns,
	}
}

func readRuntime() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		MemAlloc:     m.Alloc,
		NumGC:        m.NumGC,
	}
}

type StatsResponse struct {
	Catalogue map[string]int  `json:"catalogue"`
	Database  *DBPoolStats    `json:"database,omitempty"`
	Redis     *RedisPoolStats `json:"redis,omitempty"`
	Runtime   RuntimeStats    `json:"runtime"`
}

type PruneResponse struct {
	Deleted   int64  `json:"deleted"`
	OlderThan string `json:"older_than"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
