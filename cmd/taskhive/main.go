package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/taskhive/taskhive/internal/application/hub"
	"github.com/taskhive/taskhive/internal/application/presence"
	"github.com/taskhive/taskhive/internal/application/workflow"
	"github.com/taskhive/taskhive/internal/config"
	authzmemory "github.com/taskhive/taskhive/pkg/adapters/authz/memory"
	edgesredis "github.com/taskhive/taskhive/pkg/adapters/edges/redis"
	eventsredis "github.com/taskhive/taskhive/pkg/adapters/events/redis"
	"github.com/taskhive/taskhive/pkg/adapters/metrics/prometheus"
	storageredis "github.com/taskhive/taskhive/pkg/adapters/storage/redis"
	grpcapi "github.com/taskhive/taskhive/pkg/api/grpc"
	httpapi "github.com/taskhive/taskhive/pkg/api/http"
	"github.com/taskhive/taskhive/pkg/api/websocket"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting task collaboration service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Initialize Redis client
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// Per-instance consumer group so every instance sees every broadcast
	instance := fmt.Sprintf("taskhive-%d", os.Getpid())
	eventBus, err := eventsredis.NewStreamsEventBus(redisClient, instance, instance, logger)
	if err != nil {
		logger.Fatal("failed to create event bus", zap.Error(err))
	}

	// Initialize adapters
	taskStore := storageredis.NewTaskStore(redisClient, logger)
	edgeStore := edgesredis.NewEdgeStore(redisClient, logger)
	authorizer := authzmemory.NewStaticAuthorizer(cfg.Auth.AdminUsers)
	metricsCollector := prometheus.NewCollector()

	// Initialize the broadcast hub
	channels := hub.NewChannels()
	dispatcher := hub.NewDispatcher(&hub.Config{
		Channels:    channels,
		Authorizer:  authorizer,
		EventBus:    eventBus,
		Metrics:     metricsCollector,
		Logger:      logger,
		Origin:      instance,
		QueueSize:   cfg.Hub.QueueSize,
		WorkerCount: cfg.Hub.DeliveryWorkers,
	})

	if err := dispatcher.Start(); err != nil {
		logger.Fatal("failed to start dispatcher", zap.Error(err))
	}

	bridgeCtx, bridgeCancel := context.WithCancel(ctx)
	defer bridgeCancel()
	if err := dispatcher.StartBridge(bridgeCtx); err != nil {
		logger.Fatal("failed to start broadcast bridge", zap.Error(err))
	}

	// Initialize presence
	registry := presence.NewRegistry(channels, dispatcher, metricsCollector, logger)

	var sweeper *presence.Sweeper
	if cfg.Presence.SweepEnabled {
		sweeper = presence.NewSweeper(registry, cfg.Presence.SweepInterval, cfg.Presence.IdleTimeout, logger)
		sweeper.Start()
		logger.Info("presence sweeper enabled",
			zap.Duration("interval", cfg.Presence.SweepInterval),
			zap.Duration("idle_timeout", cfg.Presence.IdleTimeout))
	}

	// Initialize the workflow core
	validator := workflow.NewValidator(taskStore, edgeStore, logger)
	controller := workflow.NewController(&workflow.ControllerConfig{
		Validator:   validator,
		Tasks:       taskStore,
		Edges:       edgeStore,
		Broadcaster: dispatcher,
		Metrics:     metricsCollector,
		Logger:      logger,
		CycleCheck:  cfg.Workflow.CycleCheck,
	})

	// Initialize API servers
	httpServer := httpapi.NewServer(&httpapi.Config{
		Port:       cfg.HTTPPort,
		Controller: controller,
		Registry:   registry,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(registry, channels, dispatcher, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpcapi.NewServer(&grpcapi.Config{
		Port:       cfg.GRPCPort,
		Controller: controller,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("task collaboration service started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("delivery_workers", cfg.Hub.DeliveryWorkers))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if sweeper != nil {
		sweeper.Stop()
	}

	bridgeCancel()

	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Error("dispatcher shutdown error", zap.Error(err))
	}

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		logger.Error("Redis close error", zap.Error(err))
	}

	logger.Info("task collaboration service shut down complete")
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
