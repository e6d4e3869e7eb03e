// Command server runs the order sync service: the HTTP API, the sync
// worker pool, and the periodic retainer invoice reconciliation.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/draheim/zoho-sync/internal/application/media"
	appsync "github.com/draheim/zoho-sync/internal/application/sync"
	"github.com/draheim/zoho-sync/internal/domain/shared"
	"github.com/draheim/zoho-sync/internal/infrastructure/cache"
	"github.com/draheim/zoho-sync/internal/infrastructure/config"
	"github.com/draheim/zoho-sync/internal/infrastructure/logger"
	"github.com/draheim/zoho-sync/internal/infrastructure/persistence"
	"github.com/draheim/zoho-sync/internal/infrastructure/scheduler"
	"github.com/draheim/zoho-sync/internal/infrastructure/storage"
	"github.com/draheim/zoho-sync/internal/infrastructure/zoho"
	"github.com/draheim/zoho-sync/internal/interfaces/http/handler"
	"github.com/draheim/zoho-sync/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting zoho-sync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, gormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Redis is optional. Without it the token cache falls back to a file
	// and the sync guard to process-local memory, which is fine for a
	// single replica.
	var (
		guard      shared.SyncGuard
		tokenStore zoho.TokenStore
	)
	if addr := cfg.Redis.Addr(); addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = redisClient.Close() }()
		guard = cache.NewRedisGuard(redisClient, "")
		tokenStore = zoho.NewRedisTokenStore(redisClient, "")
		log.Info("Using Redis for token cache and sync guard", zap.String("addr", addr))
	} else {
		guard = cache.NewInMemoryGuard()
		tokenStore = zoho.NewFileTokenStore(cfg.Zoho.TokenCachePath)
		log.Info("Redis not configured, using in-memory guard and file token cache")
	}
	defer func() { _ = guard.Close() }()

	zohoCfg := zoho.NewConfig(
		cfg.Zoho.ClientID,
		cfg.Zoho.ClientSecret,
		cfg.Zoho.RefreshToken,
		cfg.Zoho.OrganizationID,
	)
	if cfg.Zoho.APIBaseURL != "" {
		zohoCfg.APIBaseURL = cfg.Zoho.APIBaseURL
	}
	if cfg.Zoho.AccountsBaseURL != "" {
		zohoCfg.AccountsBaseURL = cfg.Zoho.AccountsBaseURL
	}
	if cfg.Zoho.TimeoutSeconds > 0 {
		zohoCfg.TimeoutSeconds = cfg.Zoho.TimeoutSeconds
	}
	if cfg.Zoho.RetainerPercentage > 0 {
		zohoCfg.RetainerPercentage = cfg.Zoho.RetainerPercentage
	}
	if cfg.Zoho.SalespersonName != "" {
		zohoCfg.SalespersonName = cfg.Zoho.SalespersonName
	}

	tokens := zoho.NewOAuthTokenSource(zohoCfg, tokenStore, log)
	books, err := zoho.NewClient(zohoCfg, tokens, log)
	if err != nil {
		log.Fatal("Failed to create Zoho Books client", zap.Error(err))
	}

	orderRepo := persistence.NewGormOrderRepository(db.DB)
	recordRepo := persistence.NewGormSyncRecordRepository(db.DB)
	mediaRepo := persistence.NewGormMediaRepository(db.DB)

	orderSync := appsync.NewOrderSyncService(orderRepo, books, log, cfg.Zoho.SendEstimateEmail)
	reconcile := appsync.NewReconcileService(books, log)

	store, err := storage.New(&cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to create object storage", zap.Error(err))
	}
	if s3, ok := store.(*storage.S3Storage); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := s3.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatal("Failed to ensure media bucket", zap.Error(err))
		}
		cancel()
	}
	mediaService := media.NewService(mediaRepo, store, nil, log)

	schedCfg := scheduler.DefaultSyncSchedulerConfig()
	schedCfg.Workers = cfg.Scheduler.SyncWorkers
	schedCfg.QueueSize = cfg.Scheduler.SyncQueueSize
	schedCfg.HistorySize = cfg.Scheduler.JobHistorySize
	syncScheduler, err := scheduler.NewSyncScheduler(schedCfg, orderSync, guard, recordRepo, log)
	if err != nil {
		log.Fatal("Failed to create sync scheduler", zap.Error(err))
	}
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync scheduler", zap.Error(err))
	}

	var reconcileTrigger *scheduler.ReconcileTrigger
	if cfg.Scheduler.ReconcileEnabled {
		reconcileTrigger, err = scheduler.NewReconcileTrigger(
			scheduler.ReconcileTriggerConfig{Interval: cfg.Scheduler.ReconcileInterval},
			reconcile,
			log,
		)
		if err != nil {
			log.Fatal("Failed to create reconcile trigger", zap.Error(err))
		}
		if err := reconcileTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start reconcile trigger", zap.Error(err))
		}
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.GinMiddleware(log), gin.Recovery())

	r := router.NewRouter(engine)
	r.Register(handler.NewSyncHandler(syncScheduler, recordRepo, reconcile)).
		Register(handler.NewMediaHandler(mediaService))
	r.Setup()

	systemHandler := handler.NewSystemHandler()
	engine.GET("/healthz", systemHandler.Health)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if reconcileTrigger != nil {
		if err := reconcileTrigger.Stop(ctx); err != nil {
			log.Error("Reconcile trigger shutdown failed", zap.Error(err))
		}
	}
	if err := syncScheduler.Stop(ctx); err != nil {
		log.Error("Sync scheduler shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "warn", "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}
