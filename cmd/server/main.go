package main // Entry point for the HTTP API

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload" // load .env before config is read

	"github.com/iliyamo/file-manager/internal/config"
	"github.com/iliyamo/file-manager/internal/database"
	"github.com/iliyamo/file-manager/internal/handler"
	"github.com/iliyamo/file-manager/internal/kv"
	"github.com/iliyamo/file-manager/internal/logging"
	"github.com/iliyamo/file-manager/internal/metrics"
	"github.com/iliyamo/file-manager/internal/middleware"
	"github.com/iliyamo/file-manager/internal/queue"
	"github.com/iliyamo/file-manager/internal/repository"
	"github.com/iliyamo/file-manager/internal/router"
	"github.com/iliyamo/file-manager/internal/service"
	"github.com/iliyamo/file-manager/internal/session"
	"github.com/iliyamo/file-manager/internal/storage"
)

// monitorInterval is how often the store adapters re-check liveness.
const monitorInterval = 10 * time.Second

func main() {
	cfg := config.Load() // Load environment config
	log := logging.New(cfg.Env)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Document store: MySQL with embedded migrations
	sqlDB, err := database.Open(cfg.DB)
	if err != nil {
		log.Error(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(ctx, sqlDB); err != nil {
		log.Error(ctx, "failed to apply migrations", "error", err)
		os.Exit(1)
	}
	docs := database.NewDocStore(sqlDB, log)
	go docs.Monitor(ctx, monitorInterval)

	// KV store: Redis backs sessions, the response cache and rate limits
	rdb := config.NewRedisClient(cfg.Redis)
	kvStore := kv.New(rdb, log)
	go kvStore.Monitor(ctx, monitorInterval)

	// Post-processing queue
	pub := queue.NewAMQPPublisher(cfg.AMQPURL, log)
	jobs := queue.NewDispatcher(pub, queue.DispatcherOptions{
		Buffer:  cfg.EnqueueBuffer,
		Timeout: cfg.EnqueueTimeout,
		Logger:  log,
		Metrics: m,
	})

	users := repository.NewUserRepo(sqlDB)
	files := repository.NewFileRepo(sqlDB)
	blobs := storage.NewLocal(cfg.StorageRoot)
	sessions := session.NewManager(kvStore, cfg.SessionTTL, log)

	authSvc := service.NewAuthService(users, sessions, jobs, cfg.BcryptCost, log)
	fileSvc := service.NewFileService(files, blobs, jobs, service.FileOptions{
		AllowDuplicateNames: cfg.AllowDuplicateNames,
	}, log)

	e := router.New(log, m)
	router.RegisterRoutes(e, &handler.AppHandler{KV: kvStore, DB: docs}, m,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log))
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), authSvc,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))
	router.RegisterFiles(e, handler.NewFilesHandler(fileSvc), authSvc)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info(ctx, "listening", "addr", addr, "env", cfg.Env, "storage_root", blobs.Root())
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "http shutdown", "error", err)
	}
	// drain buffered jobs before the broker connection goes away
	if err := jobs.Close(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "dispatcher drain incomplete", "error", err)
	}
	if err := pub.Close(); err != nil {
		log.Warn(shutdownCtx, "publisher close", "error", err)
	}
	if err := kvStore.Close(); err != nil {
		log.Warn(shutdownCtx, "redis close", "error", err)
	}
	if err := docs.Close(); err != nil {
		log.Warn(shutdownCtx, "database close", "error", err)
	}
}
