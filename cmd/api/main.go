package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aykutaslan/event-analytics-pipeline/internal/config"
	"github.com/aykutaslan/event-analytics-pipeline/internal/handler"
	"github.com/aykutaslan/event-analytics-pipeline/internal/logger"
	"github.com/aykutaslan/event-analytics-pipeline/internal/queue/rabbitmq"
	"github.com/aykutaslan/event-analytics-pipeline/internal/ratelimit"
	"github.com/aykutaslan/event-analytics-pipeline/internal/repository/postgres"
	"github.com/aykutaslan/event-analytics-pipeline/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	ctx := context.Background()

	// Initialize RabbitMQ client (publish side)
	queueClient, err := rabbitmq.NewClient(cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal("Failed to create RabbitMQ client", zap.Error(err))
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Failed to close RabbitMQ client", zap.Error(err))
		}
	}()

	// Initialize Postgres client (query side)
	pgClient, err := postgres.NewClient(ctx, &cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer func() {
		if err := pgClient.Close(); err != nil {
			log.Error("Failed to close Postgres client", zap.Error(err))
		}
	}()

	// Initialize repository
	repo := postgres.NewRepository(pgClient, log)

	// Initialize admission controller
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)

	// Initialize event service
	eventService := service.NewEventService(queueClient, repo, cfg.Ingest.MaxBatchSize, log)

	// Initialize handler
	h := handler.NewHandler(eventService, limiter, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	log.Info("API server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start API server", zap.Error(err))
	}
}
