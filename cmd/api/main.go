package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Chakshu098/Everhack-final/internal/app/migrate"
	httpx "github.com/Chakshu098/Everhack-final/internal/http"
	"github.com/Chakshu098/Everhack-final/internal/repository/kv"
	"github.com/Chakshu098/Everhack-final/internal/service/auth"
	"github.com/Chakshu098/Everhack-final/internal/service/event"
	"github.com/Chakshu098/Everhack-final/internal/service/leaderboard"
	"github.com/Chakshu098/Everhack-final/internal/service/registration"
	"github.com/Chakshu098/Everhack-final/internal/service/team"
	"github.com/Chakshu098/Everhack-final/internal/service/user"
	"github.com/Chakshu098/Everhack-final/internal/store"
	"github.com/Chakshu098/Everhack-final/internal/ws"
	"github.com/Chakshu098/Everhack-final/pkg/config"
	"github.com/Chakshu098/Everhack-final/pkg/crypto"
	"github.com/Chakshu098/Everhack-final/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, health, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	data := store.NewAdapter(backend, log)
	defer data.Close()

	seed, err := buildSeed(cfg)
	if err != nil {
		log.Error("failed to prepare seed data", "error", err)
		os.Exit(1)
	}

	repo := kv.New(data, log, kv.Options{
		Latency: kv.Latency{Min: cfg.LatencyMin, Max: cfg.LatencyMax},
		Seed:    seed,
	})
	hub := ws.NewHub(log)
	defer hub.Close()

	authSvc := auth.New(repo, repo, log, cfg)
	if admin, ok := repo.SeedAdmin(); ok {
		authSvc = authSvc.WithAdmin(admin)
	}
	services := httpx.Services{
		Auth:          authSvc,
		Events:        event.New(repo, hub, log),
		Registrations: registration.New(repo, repo, hub, log),
		Teams:         team.New(repo, repo, hub, log),
		Users:         user.New(repo, log),
		Leaderboard:   leaderboard.New(repo, log, cfg.LeaderboardPageSize),
	}

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(ctx, addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter.Close()
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, services, hub, limiter, httpx.Options{
		AllowAnyOrigin: cfg.WebsocketOriginAny,
		StoreHealth:    health,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "store", cfg.StoreDriver, "env", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

// openStore connects the configured backend and returns a health probe for it.
func openStore(ctx context.Context, cfg config.APIConfig, log *slog.Logger) (store.Store, func(context.Context) error, error) {
	probe := func(s store.Store) func(context.Context) error {
		return func(ctx context.Context) error { return store.Probe(ctx, s) }
	}

	switch strings.ToLower(strings.TrimSpace(cfg.StoreDriver)) {
	case "", store.DriverMemory:
		s := store.NewMemory()
		return s, probe(s), nil
	case store.DriverRedis:
		s, err := store.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return s, probe(s), nil
	case store.DriverSQLite:
		s, err := store.NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, probe(s), nil
	case store.DriverMySQL:
		s, err := store.NewMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, probe(s), nil
	case store.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("configure migrations: %w", err)
		}
		if err := runner.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := runner.Ensure(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store.NewPostgres(pool), runner.Ping, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// buildSeed hashes the configured passwords for the showcase accounts.
func buildSeed(cfg config.APIConfig) (kv.Seed, error) {
	if !cfg.SeedData {
		return kv.Seed{}, nil
	}
	adminHash, err := crypto.HashPassword(cfg.AdminPassword)
	if err != nil {
		return kv.Seed{}, fmt.Errorf("hash admin password: %w", err)
	}
	demoHash, err := crypto.HashPassword(cfg.DemoPassword)
	if err != nil {
		return kv.Seed{}, fmt.Errorf("hash demo password: %w", err)
	}
	return kv.DefaultSeed(kv.SeedCredentials{
		AdminEmail: cfg.AdminEmail,
		AdminHash:  adminHash,
		DemoHash:   demoHash,
	}, time.Now().UTC()), nil
}
