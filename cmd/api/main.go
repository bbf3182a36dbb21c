package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GingerBreadIdeas/echker/docs"
	"github.com/GingerBreadIdeas/echker/internal/config"
	"github.com/GingerBreadIdeas/echker/internal/handler"
	"github.com/GingerBreadIdeas/echker/internal/logger"
	"github.com/GingerBreadIdeas/echker/internal/queue/sqs"
	"github.com/GingerBreadIdeas/echker/internal/repository/postgres"
	"github.com/GingerBreadIdeas/echker/internal/service"
)

// @title Echker API
// @version 1.0
// @description REST backend for users, auth, chat messages and prompt checking
// @host localhost:8000
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
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

	// Configure Swagger host dynamically
	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx := context.Background()

	// Initialize PostgreSQL client (runs migrations)
	pgClient, err := postgres.NewClient(ctx, &cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to create PostgreSQL client", zap.Error(err))
	}
	defer func(pgClient *postgres.Client) {
		if err := pgClient.Close(); err != nil {
			log.Error("Failed to close PostgreSQL client", zap.Error(err))
		}
	}(pgClient)

	// Initialize repository
	repo := postgres.NewRepository(pgClient, log)

	// Initialize SQS publisher (process-wide, closed with a bounded flush)
	publisher, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS publisher", zap.Error(err))
	}

	// Initialize services
	promptService := service.NewPromptService(repo, publisher, cfg.SQS.Topic, log)
	userService := service.NewUserService(repo, log)
	chatService := service.NewChatService(repo, log)
	authService := service.NewAuthService(repo, cfg.Auth, log)

	// Initialize handler
	h := handler.NewHandler(handler.Services{
		Prompts: promptService,
		Users:   userService,
		Chat:    chatService,
		Auth:    authService,
		Health:  repo,
	}, cfg.Service.CORSOrigin, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	srv := &http.Server{Addr: addr, Handler: h}

	go func() {
		log.Info("API server starting", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down API service gracefully")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down API server", zap.Error(err))
	}

	// Drain queued publishes before the process exits
	if err := publisher.Close(); err != nil {
		log.Error("Failed to close publisher", zap.Error(err))
	}
}
