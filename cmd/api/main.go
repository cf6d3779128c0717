// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/carterperez-dev/foodgram/internal/admin"
	"github.com/carterperez-dev/foodgram/internal/auth"
	"github.com/carterperez-dev/foodgram/internal/config"
	"github.com/carterperez-dev/foodgram/internal/core"
	"github.com/carterperez-dev/foodgram/internal/health"
	"github.com/carterperez-dev/foodgram/internal/ingredient"
	"github.com/carterperez-dev/foodgram/internal/membership"
	"github.com/carterperez-dev/foodgram/internal/metrics"
	"github.com/carterperez-dev/foodgram/internal/middleware"
	"github.com/carterperez-dev/foodgram/internal/recipe"
	"github.com/carterperez-dev/foodgram/internal/server"
	"github.com/carterperez-dev/foodgram/internal/shoppinglist"
	"github.com/carterperez-dev/foodgram/internal/tag"
	"github.com/carterperez-dev/foodgram/internal/user"
)

const (
	drainDelay    = 5 * time.Second
	pruneInterval = time.Hour
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("foodgram exited", "error", err)
		os.Exit(1)
	}
}

// infra holds the process-wide connections closed on shutdown.
type infra struct {
	db        *core.Database
	redis     *core.Redis
	telemetry *core.Telemetry
	jwt       *auth.JWTManager
	registry  *prometheus.Registry
}

func (i *infra) close(ctx context.Context) {
	if err := i.telemetry.Shutdown(ctx); err != nil {
		slog.Error("telemetry shutdown", "error", err)
	}
	if err := i.redis.Close(); err != nil {
		slog.Error("redis close", "error", err)
	}
	if err := i.db.Close(); err != nil {
		slog.Error("database close", "error", err)
	}
}

func openInfra(ctx context.Context, cfg *config.Config) (*infra, error) {
	in := &infra{}

	if cfg.Otel.Enabled {
		tel, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			in.telemetry = tel
			slog.Info("tracing enabled", "endpoint", cfg.Otel.Endpoint)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	in.db = db
	slog.Info("database connected", "max_open_conns", cfg.Database.MaxOpenConns)

	if cfg.Database.AutoMigrate {
		if err := core.RunMigrations(cfg.Database.URL); err != nil {
			_ = db.Close()
			return nil, err
		}
		slog.Info("migrations applied")
	}

	rdb, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	in.redis = rdb
	slog.Info("redis connected", "pool_size", cfg.Redis.PoolSize)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		in.close(ctx)
		return nil, err
	}
	in.jwt = jwtManager
	slog.Info("signing key loaded", "alg", "ES256", "kid", jwtManager.KeyID())

	in.registry = prometheus.NewRegistry()
	in.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return in, nil
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	slog.SetDefault(newLogger(cfg.Log))
	slog.Info("starting",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	in, err := openInfra(ctx, cfg)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(in.registry)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: in.db},
		health.Dependency{Name: "redis", Checker: in.redis},
	)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        slog.Default(),
	})

	authSvc := mount(srv.Router(), cfg, in, collector, healthHandler)

	go pruneSessions(ctx, authSvc, cfg.JWT.RefreshTokenExpire)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		in.close(context.Background())
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server shutdown", "error", err)
	}
	in.close(shutdownCtx)

	slog.Info("stopped")
	return nil
}

// mount builds every service, attaches the middleware chain and registers
// the API routes. It returns the auth service for background upkeep.
func mount(
	router chi.Router,
	cfg *config.Config,
	in *infra,
	collector *metrics.Collector,
	healthHandler *health.Handler,
) *auth.Service {
	userRepo := user.NewRepository(in.db.DB)
	userSvc := user.NewService(userRepo)

	authSvc := auth.NewService(
		auth.NewRepository(in.db.DB),
		in.jwt,
		userSvc,
		auth.NewRedisBlacklist(in.redis.Client),
	)

	tagRepo := tag.NewRepository(in.db.DB)
	ingredientRepo := ingredient.NewRepository(in.db.DB)
	recipeRepo := recipe.NewRepository(in.db.DB)

	recipeSvc := recipe.NewService(recipe.ServiceConfig{
		Repo:            recipeRepo,
		Tags:            tagRepo,
		Ingredients:     ingredientRepo,
		Subscriptions:   userRepo,
		Metrics:         collector,
		DefaultPageSize: cfg.Recipes.DefaultPageSize,
		MaxPageSize:     cfg.Recipes.MaxPageSize,
	})

	membershipSvc := membership.NewService(
		membership.NewRepository(in.db.DB),
		recipeRepo,
		userRepo,
		collector,
	)

	shoppingSvc := shoppinglist.NewService(shoppinglist.NewRepository(in.db.DB), collector)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:     in.db.Stats,
		RedisStats:  in.redis.PoolStats,
		Users:       userSvc,
		Recipes:     recipeSvc,
		Tags:        tagRepo,
		Ingredients: ingredientRepo,
		Sessions:    authSvc,
	})

	quota := middleware.Quota(cfg.RateLimit.Requests, cfg.RateLimit.Burst, cfg.RateLimit.Window)

	router.Use(
		middleware.RequestID,
		middleware.Logger(slog.Default()),
		middleware.Recoverer(slog.Default()),
		middleware.Metrics(collector),
		middleware.SecurityHeaders(cfg.App.Environment == "production"),
		middleware.CORS(cfg.CORS),
		middleware.NewRateLimiter(in.redis.Client, middleware.RateLimitConfig{
			Limit:    quota,
			FailOpen: true,
		}).Handler,
	)

	healthHandler.RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, metrics.Handler(in.registry))
	}
	router.Get("/.well-known/jwks.json", in.jwt.JWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	optionalAuth := middleware.OptionalAuth(authSvc)

	router.Route("/v1", func(r chi.Router) {
		r.Use(optionalAuth, middleware.WriteRateLimiter(in.redis.Client, quota))

		auth.NewHandler(authSvc).RegisterRoutes(r, authenticator)
		user.NewHandler(userSvc).RegisterRoutes(r, authenticator, optionalAuth)
		tag.NewHandler(tagRepo).RegisterRoutes(r)
		ingredient.NewHandler(ingredientRepo).RegisterRoutes(r)
		recipe.NewHandler(recipeSvc).RegisterRoutes(r, authenticator, optionalAuth)
		membership.NewHandler(
			membershipSvc,
			cfg.Recipes.DefaultPageSize,
			cfg.Recipes.MaxPageSize,
		).RegisterRoutes(r, authenticator)
		shoppinglist.NewHandler(shoppingSvc, cfg.Recipes.ShoppingListFilename).
			RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, authenticator, middleware.RequireAdmin)
	})

	return authSvc
}

// pruneSessions drops expired refresh tokens until ctx is cancelled.
func pruneSessions(ctx context.Context, svc *auth.Service, grace time.Duration) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PruneSessions(ctx, grace)
			if err != nil {
				slog.WarnContext(ctx, "session prune failed", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "expired sessions pruned", "deleted", n)
			}
		}
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
