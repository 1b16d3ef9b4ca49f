package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/simlar/simlar-server-sub000/internal/config"
	"github.com/simlar/simlar-server-sub000/internal/infra"
	"github.com/simlar/simlar-server-sub000/internal/ledger"
	"github.com/simlar/simlar-server-sub000/internal/logging"
	"github.com/simlar/simlar-server-sub000/internal/server"
	"github.com/simlar/simlar-server-sub000/internal/subscriber"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := ensureSchemas(ctx, db); err != nil {
			logger.Error("ensure schemas", "error", err)
			os.Exit(1)
		}
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	}

	srv, err := server.New(cfg, db, cache, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}

func ensureSchemas(ctx context.Context, db *pgxpool.Pool) error {
	if err := ledger.NewPostgresAccountRepository(db).EnsureSchema(ctx); err != nil {
		return err
	}
	if err := ledger.NewPostgresContactRepository(db).EnsureSchema(ctx); err != nil {
		return err
	}
	return subscriber.NewPostgresStore(db).EnsureSchema(ctx)
}
