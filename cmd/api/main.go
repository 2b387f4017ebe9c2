package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/walletd/walletd/internal/config"
	"github.com/walletd/walletd/internal/infra"
	"github.com/walletd/walletd/internal/logging"
	"github.com/walletd/walletd/internal/notification"
	"github.com/walletd/walletd/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.AppName)

	ctx := context.Background()

	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.AppName)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL, cfg.AppName)
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

	var notifier notification.Notifier = notification.NewLoggerNotifier(logger)
	if len(cfg.KafkaBrokers) > 0 {
		writer, err := infra.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Error("configure kafka", "error", err)
			os.Exit(1)
		}
		kafkaNotifier := notification.NewKafkaNotifier(writer, 0)
		defer func() {
			if err := kafkaNotifier.Close(); err != nil {
				logger.Warn("close kafka writer", "error", err)
			}
		}()
		notifier = kafkaNotifier
		logger.Info("kafka notifications enabled", slog.String("topic", cfg.KafkaTopic))
	}

	srv, err := server.New(cfg, db, cache, notifier, logger)
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
