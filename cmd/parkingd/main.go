package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stripe/stripe-go/v79"

	"parking-gate-backend/config"
	"parking-gate-backend/internal/ack"
	"parking-gate-backend/internal/api"
	"parking-gate-backend/internal/bus"
	"parking-gate-backend/internal/cleanup"
	"parking-gate-backend/internal/db"
	"parking-gate-backend/internal/gate"
	"parking-gate-backend/internal/notification"
	"parking-gate-backend/internal/presence"
	"parking-gate-backend/internal/pricing"
	"parking-gate-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "parking-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret must be configured")
	}
	stripe.Key = cfg.Stripe.SecretKey

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Create a context that cancels on shutdown for the background loops.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ack correlation broker
	redisClient, err := ack.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatalf("failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	broker := ack.NewRedisBroker(redisClient)
	logger.Println("connected to Redis")

	// Device presence and command bus
	tracker := presence.NewTracker(cfg.Presence.LivenessWindow)
	commandBus := bus.New(&cfg.MQTT, tracker, broker)
	if err := commandBus.Start(); err != nil {
		logger.Fatalf("failed to start command bus: %v", err)
	}
	defer commandBus.Close()

	// Notification workers
	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, &webpushOptions)
	workerPool.Start(ctx)

	// Gate-open orchestrator
	orchestrator := gate.New(appStore, broker, commandBus, workerPool, cfg.Gate)

	// Pricing client and retrain scheduler
	pricingClient := pricing.NewClient(&cfg.Pricing)
	go pricingClient.RunRetrainLoop(ctx)

	// Expired-reservation cleanup
	cleanupJob := cleanup.NewJob(&cfg.Cleanup, appStore)
	go cleanupJob.Run(ctx)

	// HTTP server
	handler := api.NewHandler(appStore, orchestrator, tracker, pricingClient, &webpushOptions, &cfg.Auth, &cfg.Stripe)
	router := api.NewRouter(cfg, handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
