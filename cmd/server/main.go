package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/ridehail-backend/config"
	"github.com/ikkim/ridehail-backend/internal/app/controller"
	"github.com/ikkim/ridehail-backend/internal/app/repository"
	"github.com/ikkim/ridehail-backend/internal/app/service"
	"github.com/ikkim/ridehail-backend/internal/db"
	"github.com/ikkim/ridehail-backend/internal/events"
	"github.com/ikkim/ridehail-backend/internal/metrics"
	"github.com/ikkim/ridehail-backend/internal/middleware"
	"github.com/ikkim/ridehail-backend/internal/router"
	"github.com/ikkim/ridehail-backend/internal/scheduler"
	"github.com/ikkim/ridehail-backend/internal/storage"
	ws "github.com/ikkim/ridehail-backend/internal/websocket"
	"github.com/ikkim/ridehail-backend/pkg/logger"
	"github.com/ikkim/ridehail-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting ridehail verification server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	verificationMetrics := metrics.New(registry)

	hub := ws.NewHub()
	go hub.Run(ctx)

	publishers := events.Multi{hub}
	if cfg.Redis.Enabled() {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, verification events will not be published to Redis", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redis.Close()
			publishers = append(publishers, events.NewRedisPublisher(redis.GetClient(), cfg.Redis.Channel))
		}
	}

	documents := storage.NewS3Storage(storage.Options{
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		BaseURL:         cfg.S3.BaseURL,
		DocumentPrefix:  cfg.S3.DocumentPrefix,
		PresignExpiry:   cfg.S3.PresignExpiry,
	})

	userRepo := repository.NewUserRepository(db.GetDB())
	driverRepo := repository.NewDriverRepository(db.GetDB())
	vehicleRepo := repository.NewVehicleRepository(db.GetDB())
	verificationRepo := repository.NewVerificationRepository(db.GetDB())

	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	verificationService := service.NewVerificationService(
		verificationRepo,
		driverRepo,
		vehicleRepo,
		documents,
		service.WithRejectionReasonPolicy(cfg.Verification.RejectionReason),
		service.WithPublisher(publishers),
		service.WithMetrics(verificationMetrics),
	)

	auditScheduler := scheduler.NewConsistencyScheduler(verificationService, cfg.Verification.AuditSchedule)
	if err := auditScheduler.Start(); err != nil {
		logger.Fatal("Failed to start verification flag audit scheduler", err)
	}
	defer auditScheduler.Stop()

	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewVerificationController(verificationService, documents, hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(cfg.JWT.Secret),
		registry,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown did not complete", err)
	}

	logger.Info("Server stopped successfully")
}
