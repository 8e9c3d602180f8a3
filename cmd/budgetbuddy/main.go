package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/cache"
	"budgetbuddy/internal/cli"
	apphttp "budgetbuddy/internal/http"
	"budgetbuddy/internal/insights"
	"budgetbuddy/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting budgetbuddy server")

	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitStore(logger, cfg.StorageBackend, cfg.SQLiteDBPath)
	defer store.Close()

	authSvc := auth.NewService(store, cfg.SessionTTL, cfg.SessionCacheSize, logger)

	var generator insights.Generator
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := insights.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("Failed to initialize Gemini client", log.FieldError, err)
			os.Exit(1)
		}
		generator = geminiClient
		logger.Info("Gemini client initialized", "model", cfg.GeminiModel)
	} else {
		logger.Info("Gemini disabled - no GEMINI_API_KEY provided, insights will use the fallback set")
	}
	insightSvc := insights.NewService(store, generator, cfg.InsightCacheTTL, cfg.InsightTimeout, logger)

	var alerts apphttp.AlertPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		alerts = amqpClient
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, budget alerts will not be published")
	}

	cacheManager := cache.NewManager()
	cacheManager.Register(authSvc.SessionCache())
	cacheManager.StartCleanup(5 * time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, store, authSvc, insightSvc, alerts, cfg.SessionTTL, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			amqpClient.Close()
		}
	})

	// expired sessions pile up in SQLite without a periodic purge
	go purgeExpiredSessions(ctx, store, logger)

	go func() {
		logger.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

type sessionPurger interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

func purgeExpiredSessions(ctx context.Context, store sessionPurger, logger *log.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.DeleteExpiredSessions(ctx, time.Now())
			if err != nil {
				logger.Error("Failed to purge expired sessions", log.FieldError, err)
				continue
			}
			if deleted > 0 {
				logger.Info("Purged expired sessions", log.FieldCount, deleted)
			}
		}
	}
}
