package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mejarc/agent-onboarding/internal/api"
	"github.com/mejarc/agent-onboarding/internal/core/ports"
	"github.com/mejarc/agent-onboarding/internal/core/service"
	"github.com/mejarc/agent-onboarding/internal/infrastructure/config"
	mongodb "github.com/mejarc/agent-onboarding/internal/infrastructure/db/mongo"
	redisdb "github.com/mejarc/agent-onboarding/internal/infrastructure/db/redis"
	"github.com/mejarc/agent-onboarding/internal/infrastructure/kyc"
	"github.com/mejarc/agent-onboarding/internal/infrastructure/notification"
	"github.com/mejarc/agent-onboarding/internal/infrastructure/storage"
	"github.com/mejarc/agent-onboarding/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	agentRepo := mongodb.NewAgentRepository(db)
	userRepo := mongodb.NewUserRepository(db)
	adminRepo := mongodb.NewAdminRepository(db, userRepo)
	if err := agentRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("agent index creation failed")
	}
	if err := adminRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("admin index creation failed")
	}

	docStore, err := storage.NewGridFSStore(db, cfg.Storage.PublicBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("document store init failed")
	}

	otpStore := redisdb.NewOTPStore(rdb)

	// --- Notifications ---
	var sink ports.Notifier = notification.NewNop()
	if cfg.SMTP.Host != "" {
		sink = notification.NewMailer(notification.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, log)
	} else {
		log.Warn().Msg("smtp not configured, notifications disabled")
	}
	dispatcher := notification.NewDispatcher(0, sink, log)
	dispatcher.Start(ctx)

	// --- KYC provider ---
	var verifier ports.KycVerifier = kyc.NewStubVerifier()
	if cfg.Uverify.APIKey != "" {
		verifier = kyc.NewUverifyVerifier(kyc.UverifyConfig{
			BaseURL:   cfg.Uverify.BaseURL,
			APIKey:    cfg.Uverify.APIKey,
			APISecret: cfg.Uverify.APISecret,
			Timeout:   cfg.Uverify.Timeout,
		}, log)
	} else {
		log.Warn().Msg("kyc provider not configured, using stub verifier")
	}

	// --- Core services ---
	registrationService := service.NewRegistrationService(
		agentRepo, userRepo, adminRepo, docStore, verifier, dispatcher, log)
	authService := service.NewAuthService(
		userRepo, adminRepo, agentRepo, otpStore, dispatcher, cfg.JWTSecret, 24*time.Hour, log)

	// --- HTTP server ---
	e := api.NewRouter(api.RouterDeps{
		Registration: registrationService,
		Auth:         authService,
		Documents:    docStore,
		Files:        docStore,
		DB:           db,
		Redis:        rdb,
		JWTSecret:    cfg.JWTSecret,
		Log:          log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting agent onboarding api")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
