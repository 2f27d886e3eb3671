// Package main QR Service API
//
// @title           QR Service API
// @version         1.0
// @description     Issues QR codes metered by subscription plan.
// @host            localhost:8080
// @BasePath        /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/qrforge/qr-service/internal/api"
	"github.com/qrforge/qr-service/internal/api/handler"
	"github.com/qrforge/qr-service/internal/core/ports"
	"github.com/qrforge/qr-service/internal/core/service"
	"github.com/qrforge/qr-service/internal/infrastructure/config"
	mongodb "github.com/qrforge/qr-service/internal/infrastructure/db/mongo"
	redisdb "github.com/qrforge/qr-service/internal/infrastructure/db/redis"
	"github.com/qrforge/qr-service/internal/infrastructure/mail"
	"github.com/qrforge/qr-service/internal/infrastructure/qrcode"
	"github.com/qrforge/qr-service/internal/infrastructure/queue"
	"github.com/qrforge/qr-service/internal/infrastructure/storage/minio"
	"github.com/qrforge/qr-service/pkg/logger"

	_ "github.com/qrforge/qr-service/docs"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "qr-service",
	})

	log.Info().Str("env", cfg.Env).Str("reset_policy", cfg.ResetPolicy).Msg("starting qr-service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	var (
		images      ports.ImageStore
		imageWriter *queue.ImageWriter
	)
	imageStore, err := minio.Connect(ctx, minio.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		log.Warn().Err(err).Msg("image store unavailable, downloads will re-encode")
	} else {
		// runs until Close so uploads from requests still in flight at
		// SIGTERM are written
		imageWriter = queue.NewImageWriter(0, imageStore, logger.Named("image-writer"))
		imageWriter.Start(context.Background())
		images = imageWriter
	}

	store := mongodb.NewDocumentStore(db)
	userRepo := mongodb.NewUserRepository(store)
	planRepo := mongodb.NewPlanRepository(store)
	qrRepo := mongodb.NewQRCodeRepository(store)
	historyRepo := mongodb.NewSubscriptionHistoryRepository(store)

	if err := mongodb.EnsureIndexes(ctx, userRepo, qrRepo, historyRepo); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	// --- Services ---
	policy := cfg.UsageResetPolicy()
	catalog := service.NewCatalogService(planRepo, redisdb.NewPlanCache(rdb), logger.Named("catalog"))
	accounts := service.NewAccountService(userRepo, historyRepo, policy, logger.Named("accounts"))
	auth := service.NewAuthService(accounts, cfg.JWTSecret, cfg.JWTTTL, logger.Named("auth"))
	mailer := mail.NewMailer(mail.NewTransport(mail.Config{
		Host: cfg.SMTP.Host,
		Port: cfg.SMTP.Port,
		User: cfg.SMTP.User,
		Pass: cfg.SMTP.Pass,
		From: cfg.SMTP.From,
	}, logger.Named("smtp")), cfg.SMTP.From, logger.Named("mailer"))
	qr := service.NewQRService(service.QRServiceDeps{
		Users:       userRepo,
		Codes:       qrRepo,
		Catalog:     catalog,
		Encoder:     qrcode.NewEncoder(),
		Mailer:      mailer,
		Images:      images,
		Idempotency: redisdb.NewIdempotencyStore(rdb),
	}, policy, logger.Named("qr"))
	subscriptions := service.NewSubscriptionService(accounts, catalog, historyRepo, policy, logger.Named("subscriptions"))

	e := api.NewRouter(api.Dependencies{
		Auth:          auth,
		Accounts:      accounts,
		Catalog:       catalog,
		QR:            qr,
		Subscriptions: subscriptions,
		Checks: map[string]handler.Pinger{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		AuthRateLimit: cfg.AuthRateLimit,
		Log:           logger.Named("http"),
	})

	// --- Serve ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			stop()
			if imageWriter != nil {
				imageWriter.Close()
			}
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down http server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), api.ShutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http server shutdown")
		}
	}

	if imageWriter != nil {
		imageWriter.Close()
	}

	log.Info().Msg("qr-service stopped")
}
