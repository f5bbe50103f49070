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

	"hr-attendance-backend/config"
	"hr-attendance-backend/internal/api"
	"hr-attendance-backend/internal/db"
	"hr-attendance-backend/internal/geofence"
	"hr-attendance-backend/internal/metrics"
	"hr-attendance-backend/internal/model"
	"hr-attendance-backend/internal/notification"
	"hr-attendance-backend/internal/report"
	"hr-attendance-backend/internal/session"
	"hr-attendance-backend/internal/store"
	"hr-attendance-backend/internal/sweeper"
	"hr-attendance-backend/internal/verify"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "attendance-backend ", log.LstdFlags)

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
	if cfg.Verify.QRSecret == "" {
		logger.Fatalf("verify.qr_secret must be configured")
	}

	// Push is optional; without VAPID keys events are still accepted and
	// logged, they just have nowhere to go.
	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Println("VAPID keys not configured; push delivery is disabled")
	}

	// Initialize database
	gormDB, rangeReady, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB, rangeReady)
	logger.Println("data store initialized")

	appMetrics := metrics.New()

	// Notification worker pool runs in the background; Dispatch never blocks.
	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions, appMetrics)
	pool.Start(ctx)

	verifiers := map[model.VerificationMethod]verify.Verifier{
		model.MethodManual: verify.NewManualVerifier(),
		model.MethodQR: verify.NewQRVerifier(
			cfg.Verify.QRSecret,
			time.Duration(cfg.Verify.QRTokenTTLHours)*time.Hour,
			time.Duration(cfg.Verify.QRScanWindowMinutes)*time.Minute,
		),
		model.MethodFacial: verify.NewFaceVerifier(appStore, cfg.Verify.FaceMatchThreshold),
	}

	machine, err := session.NewMachine(
		appStore,
		geofence.NewValidator(cfg.Geofence),
		verifiers,
		pool,
		cfg.Attendance,
		cfg.Auth.AdminRoles,
	)
	if err != nil {
		logger.Fatalf("failed to build session machine: %v", err)
	}

	aggregator, err := report.NewAggregator(appStore, cfg.Attendance, appMetrics)
	if err != nil {
		logger.Fatalf("failed to build report aggregator: %v", err)
	}

	// Initialize and run the open-session sweeper in the background.
	sweepSvc := sweeper.NewService(cfg.Sweeper, appStore, pool)
	go sweepSvc.Run(ctx)

	// Initialize router
	qrIssuer := verifiers[model.MethodQR].(*verify.QRVerifier)
	handler := api.NewHandler(appStore, machine, aggregator, qrIssuer, webpushOptions, appMetrics, cfg.Auth.AdminRoles)
	router := api.NewRouter(handler, cfg)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
