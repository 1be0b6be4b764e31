package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendboard/internal/alerts"
	"attendboard/internal/config"
	"attendboard/internal/handler"
	"attendboard/internal/logging"
	"attendboard/internal/metrics"
	"attendboard/internal/queue"
	"attendboard/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc := cfg.Location()

	sessions := store.NewRegistry(cfg.SessionTTL, func() store.Seed { return store.DefaultSeed(loc) }, time.Now)
	sessions.Observe = func(n int) { metrics.ActiveSessions.Set(float64(n)) }
	go sessions.Run(ctx, time.Minute)

	var q queue.Queue
	var redisClient *store.Redis
	if cfg.QueueBackend == "redis" {
		redisClient = store.NewRedis(store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = redisClient.Close() }()
		q = queue.NewRedisQueue(redisClient.Client, cfg.AlertQueueKey)
		logger.Info("alerts published to redis", zap.String("addr", cfg.RedisAddr), zap.String("key", cfg.AlertQueueKey))
	} else {
		mem := queue.NewInMemory(64)
		q = mem
		consumer := alerts.NewConsumer(mem, logger.Named("alerts"))
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("alert consumer stopped", zap.Error(err))
			}
		}()
	}

	h := handler.New(sessions, q, logger, handler.Options{
		SigningKey: cfg.JWTSigningKey,
		Issuer:     cfg.JWTIssuer,
		TokenTTL:   cfg.SessionTTL,
		Location:   loc,
		Now:        time.Now,
	})

	routerOpts := handler.RouterOptions{
		AllowOrigins:    cfg.AllowOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}
	if redisClient != nil {
		routerOpts.Redis = redisClient
	}
	r := h.Router(routerOpts)

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}
