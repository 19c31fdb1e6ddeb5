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

	"github.com/playperu/treasurehunt/internal/config"
	"github.com/playperu/treasurehunt/internal/database"
	"github.com/playperu/treasurehunt/internal/handler/health"
	"github.com/playperu/treasurehunt/internal/lock"
	"github.com/playperu/treasurehunt/internal/migrations"
	"github.com/playperu/treasurehunt/internal/server"
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

	version, err := migrations.Run(ctx, db)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath, "schema_version", version)

	store := server.NewSQLiteStore(db)
	if err := server.SeedDemo(ctx, logger, store); err != nil {
		return fmt.Errorf("seeding demo data: %w", err)
	}

	checks := map[string]health.Checker{
		"sqlite": health.CheckerFunc(db.PingContext),
	}

	// --- Redis (optional) ---
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()

		locker = lock.NewRedisLocker(rdb, logger)
		checks["redis"] = health.CheckerFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		logger.Info("connected to redis")
	} else {
		logger.Info("REDIS_URL not set, using in-process path locks")
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Store:       store,
		Locker:      locker,
		Checks:      checks,
		TokenKey:    []byte(cfg.JWTSecret),
		TokenTTL:    cfg.PlayerTokenTTL,
		PublicURL:   cfg.PublicURL,
		SPADir:      cfg.SPADir,
		PathLockTTL: cfg.PathLockTTL,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
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
