package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/carelog/patient-api/config"
	"github.com/carelog/patient-api/internal/email"
	"github.com/carelog/patient-api/internal/handler"
	patientHandler "github.com/carelog/patient-api/internal/handler/patient"
	uploadHandler "github.com/carelog/patient-api/internal/handler/upload"
	"github.com/carelog/patient-api/internal/middleware"
	"github.com/carelog/patient-api/internal/repository/postgres"
	"github.com/carelog/patient-api/internal/router"
	patientService "github.com/carelog/patient-api/internal/service/patient"
	"github.com/carelog/patient-api/pkg/auth"
	"github.com/carelog/patient-api/pkg/logger"
	"github.com/carelog/patient-api/pkg/messaging"
	redisbroker "github.com/carelog/patient-api/pkg/messaging/redis"
	"github.com/carelog/patient-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Logging.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	hasher := security.NewBcryptHasher(security.DefaultCost)

	// Startup glue: schema, default patient, uploads dir.
	ctx := context.Background()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}
	seedHash, err := hasher.Hash(cfg.Seed.DefaultPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash seed password")
	}
	if err := postgres.SeedDefaultPatient(ctx, db, seedHash); err != nil {
		log.Fatal().Err(err).Msg("failed to seed default patient")
	}
	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("failed to create upload directory")
	}

	broker := messaging.NewNoopBroker()
	if cfg.Redis.URL != "" {
		broker, err = redisbroker.NewRedisBroker(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	emailSvc := email.NewNoopService()
	if cfg.SMTP.Enabled {
		emailSvc = email.NewSMTPService(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	patientRepo := postgres.NewPatientRepository(db)
	patientSvc := patientService.NewService(patientRepo, hasher, broker, emailSvc, appLogger)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	patientH := patientHandler.NewHandler(patientSvc, jwtSvc)
	uploadH := uploadHandler.NewHandler(cfg.Upload.Dir)
	healthH := handler.NewHealthHandler(db)

	rateLimit := rate.Limit(0)
	if cfg.RateLimit.Enabled {
		rateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
	}

	r := router.NewRouter(router.Config{
		RateLimit:     rateLimit,
		RateBurst:     cfg.RateLimit.Burst,
		CORSConfig:    middleware.DefaultCORSConfig(),
		MetricsPrefix: "patient_api",
		UploadDir:     cfg.Upload.Dir,
	}, patientH, uploadH, healthH)

	if err := r.Setup(); err != nil {
		log.Fatal().Err(err).Msg("failed to set up router")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
