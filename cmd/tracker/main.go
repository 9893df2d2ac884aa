package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/martial-arts-tracker/api/swagger"
	"github.com/noah-isme/martial-arts-tracker/internal/handler"
	internalmiddleware "github.com/noah-isme/martial-arts-tracker/internal/middleware"
	"github.com/noah-isme/martial-arts-tracker/internal/repository"
	"github.com/noah-isme/martial-arts-tracker/internal/service"
	"github.com/noah-isme/martial-arts-tracker/pkg/cache"
	"github.com/noah-isme/martial-arts-tracker/pkg/config"
	"github.com/noah-isme/martial-arts-tracker/pkg/database"
	"github.com/noah-isme/martial-arts-tracker/pkg/logger"
	corsmiddleware "github.com/noah-isme/martial-arts-tracker/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/martial-arts-tracker/pkg/middleware/requestid"
	"github.com/noah-isme/martial-arts-tracker/pkg/storage"
)

// @title Martial Arts Tracker API
// @version 1.0.0
// @description Local API for logging martial arts practice sessions and tracking progress.
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewSQLite(cfg.Database)
	if err != nil {
		logr.Fatal("failed to open store", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	version, err := database.RunMigrations(db.DB, logr)
	if err != nil {
		logr.Fatal("failed to migrate store", zap.Error(err))
	}
	logr.Info("store ready", zap.String("path", cfg.Database.Path), zap.Uint("schema_version", version))

	seeded, err := service.NewSeedService(repository.NewSeedRepository(db), logr).Seed(ctx)
	if err != nil {
		logr.Fatal("failed to seed catalog", zap.Error(err))
	}
	if seeded {
		logr.Info("seeded default catalog")
	}

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Stats.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("stats cache disabled, redis unavailable", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(client)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, true)
		}
	}

	validate := validator.New()

	artRepo := repository.NewArtRepository(db)
	criterionRepo := repository.NewCriterionRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	backupRepo := repository.NewBackupRepository(db)

	artSvc := service.NewArtService(artRepo, logr)
	criterionSvc := service.NewCriterionService(criterionRepo, artRepo, cacheSvc, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, criterionRepo, artRepo, cacheSvc, metricsSvc, validate, logr)
	statsSvc := service.NewStatsService(sessionRepo, criterionRepo, cacheSvc, metricsSvc, logr)
	backupSvc := service.NewBackupService(backupRepo, cacheSvc, metricsSvc, logr)

	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(service.ExportServiceConfig{
		Sessions:     sessionRepo,
		Arts:         artRepo,
		Backups:      backupSvc,
		Store:        fileStore,
		Signer:       signer,
		Metrics:      metricsSvc,
		Validator:    validate,
		Logger:       logr,
		DownloadBase: cfg.APIPrefix + "/exports/download",
	})

	if cfg.Backup.Enabled {
		scheduler := service.NewBackupScheduler(service.BackupSchedulerConfig{
			Backups:    backupSvc,
			Store:      fileStore,
			Schedule:   cfg.Backup.Schedule,
			Retention:  cfg.Backup.Retention,
			ExportTTL:  cfg.Exports.SignedURLTTL,
			MaxRetries: cfg.Backup.WorkerRetries,
			RetryDelay: 30 * time.Second,
			Metrics:    metricsSvc,
			Logger:     logr,
		})
		if err := scheduler.Start(ctx); err != nil {
			logr.Fatal("failed to start backup scheduler", zap.Error(err))
		}
		defer scheduler.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Arts:     handler.NewArtHandler(artSvc, statsSvc),
		Criteria: handler.NewCriterionHandler(criterionSvc),
		Sessions: handler.NewSessionHandler(sessionSvc),
		Backup:   handler.NewBackupHandler(backupSvc),
		Exports:  handler.NewExportHandler(exportSvc),
		System:   handler.NewSystemHandler(metricsSvc, db),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, strconv.Itoa(cfg.Port)),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
