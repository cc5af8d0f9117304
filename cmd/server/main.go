package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/flagtactics/playbook/internal/config"
	"github.com/flagtactics/playbook/internal/database"
	"github.com/flagtactics/playbook/internal/handler/health"
	"github.com/flagtactics/playbook/internal/migrations"
	"github.com/flagtactics/playbook/internal/playbook"
	"github.com/flagtactics/playbook/internal/ratelimit"
	"github.com/flagtactics/playbook/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.RunWithLogger(db, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	store := server.NewDocStore(db, logger)
	if cfg.DemoEmail != "" {
		if err := server.SeedDemo(ctx, logger, store, store, cfg.DemoEmail, cfg.DemoPassword); err != nil {
			return fmt.Errorf("seeding demo account: %w", err)
		}
	}
	checks := map[string]health.Checker{"sqlite": health.DB(db)}

	// --- Redis (optional) ---
	var shareCache server.ShareCache
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		shareCache = server.NewRedisShareCache(rdb, cfg.ShareCacheTTL, logger)
		checks["redis"] = health.Redis(rdb)
		logger.Info("connected to redis")
	}

	limiter := ratelimit.New(cfg.ShareRateLimit, cfg.ShareRateBurst)
	defer limiter.Stop()

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Options{
		Accounts:     store,
		Data:         store,
		Shares:       store,
		ShareCache:   shareCache,
		ShareLimiter: limiter,
		Reconciler:   playbook.NewReconciler(cfg.MergePolicy),
		Checks:       checks,
		BaseURL:      cfg.BaseURL,
		SPADir:       cfg.SPADir,
		CORSOrigins:  cfg.CORSOrigins,
		SessionTTL:   cfg.SessionTTL,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "merge_policy", cfg.MergePolicy)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
