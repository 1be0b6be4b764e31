package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"attendboard/internal/alerts"
	"attendboard/internal/config"
	"attendboard/internal/logging"
	"attendboard/internal/queue"
	"attendboard/internal/store"
)

// Worker consumes attendance-saved alerts from redis and reports participants
// under the attendance threshold.
func main() {
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.QueueBackend != "redis" {
		logger.Fatal("worker requires QUEUE_BACKEND=redis", zap.String("backend", cfg.QueueBackend))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(store.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = redisClient.Close() }()

	if !redisClient.Healthy(ctx) {
		logger.Warn("redis not reachable, consumer will retry", zap.String("addr", cfg.RedisAddr))
	}

	q := queue.NewRedisQueue(redisClient.Client, cfg.AlertQueueKey)
	consumer := alerts.NewConsumer(q, logger.Named("alerts"))

	logger.Info("worker started, waiting for alerts", zap.String("key", cfg.AlertQueueKey))
	if err := consumer.Run(ctx); err != nil {
		logger.Fatal("alert consumer failed", zap.Error(err))
	}
	logger.Info("worker stopped")
}
