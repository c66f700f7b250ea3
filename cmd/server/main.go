package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/amanah/zakat-service/internal/api"
	"github.com/amanah/zakat-service/internal/config"
	"github.com/amanah/zakat-service/internal/jobs"
	"github.com/amanah/zakat-service/internal/metrics"
	"github.com/amanah/zakat-service/internal/nisab"
	"github.com/amanah/zakat-service/internal/store"
	"github.com/amanah/zakat-service/internal/zakat"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	engine, err := zakat.NewEngine(cfg.Policy)
	if err != nil {
		slog.Error("invalid zakat policy", "err", err)
		os.Exit(1)
	}

	// --- Initialize store ---
	var st store.Store
	var rdb *redis.Client
	var cleanup []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)

		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			slog.Error("schema setup failed", "err", err)
			os.Exit(1)
		}
		st = pg
		slog.Info("connected to PostgreSQL")
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	// Redis caches store reads and shares the nisab snapshot across instances.
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		if cfg.DatabaseURL != "" {
			st = store.NewCachedStore(st, rdb, cfg.CacheTTL)
			slog.Info("Redis cache enabled", "ttl", cfg.CacheTTL)
		}
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- WebSocket hub ---
	wsHub := api.NewWSHub()
	go wsHub.Run()

	// --- Nisab reference ---
	static, err := nisab.NewStaticProvider(cfg.FallbackNisab)
	if err != nil {
		slog.Error("invalid fallback nisab prices", "err", err)
		os.Exit(1)
	}
	var upstream nisab.Provider = static
	if cfg.NisabSourceURL != "" {
		upstream = nisab.NewHTTPProvider(cfg.NisabSourceURL, cfg.NisabTimeout)
	}
	var cache nisab.Cache
	if rdb != nil {
		cache = nisab.NewRedisCache(rdb, 24*time.Hour)
	}
	refresher := nisab.NewRefresher(upstream, cfg.FallbackNisab, cache, func(s nisab.Snapshot) {
		wsHub.Broadcast(api.WSMessage{
			Type:               "nisab_updated",
			GoldPricePerGram:   s.Reference.GoldPricePerGram.String(),
			SilverPricePerGram: s.Reference.SilverPricePerGram.String(),
		})
	})
	if err := refresher.Refresh(context.Background()); err != nil {
		slog.Warn("initial nisab refresh failed, serving fallback", "err", err)
	}

	// --- Zakat service ---
	svc := api.NewService(st, engine, refresher, wsHub).WithDisplay(cfg.DisplayLocale, cfg.CurrencySymbol)

	// --- Background jobs ---
	scheduler := jobs.NewScheduler(time.Minute)
	if err := scheduler.Add("nisab-refresh", cfg.NisabRefreshSchedule, refresher.Refresh); err != nil {
		slog.Error("job setup failed", "err", err)
		os.Exit(1)
	}
	if err := scheduler.Add("overdue-sweep", cfg.OverdueSweepSchedule, func(ctx context.Context) error {
		_, err := svc.SweepOverdue(ctx)
		return err
	}); err != nil {
		slog.Error("job setup failed", "err", err)
		os.Exit(1)
	}
	scheduler.Start()

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"zakat-service"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for dashboard events. Registered outside the
		// timeout group since the connection is long-lived.
		r.Get("/ws", wsHub.HandleWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			svc.Routes(r)
		})
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("zakat-service listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down zakat-service...")
	scheduler.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("zakat-service stopped")
}
