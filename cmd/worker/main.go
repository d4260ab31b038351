package main // Entry point for the post-processing worker

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload" // load .env before config is read
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/file-manager/internal/config"
	"github.com/iliyamo/file-manager/internal/database"
	"github.com/iliyamo/file-manager/internal/logging"
	"github.com/iliyamo/file-manager/internal/metrics"
	"github.com/iliyamo/file-manager/internal/queue"
	"github.com/iliyamo/file-manager/internal/repository"
	"github.com/iliyamo/file-manager/internal/storage"
	"github.com/iliyamo/file-manager/internal/thumbnail"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Env).With("process", "worker")
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := database.Open(cfg.DB)
	if err != nil {
		log.Error(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	users := repository.NewUserRepo(sqlDB)
	files := repository.NewFileRepo(sqlDB)
	blobs := storage.NewLocal(cfg.StorageRoot)

	thumbs := thumbnail.NewProcessor(files, users, blobs, log, thumbnail.Options{
		MaxAttempts: cfg.Worker.MaxAttempts,
		BackoffBase: cfg.Worker.BackoffBase,
	})
	welcome := thumbnail.NewWelcomeHandler(users, log)

	consumers := []*queue.Consumer{
		queue.NewConsumer(cfg.AMQPURL, queue.ThumbnailQueue, cfg.Worker.Concurrency, thumbs.Handle, log, m),
		queue.NewConsumer(cfg.AMQPURL, queue.WelcomeQueue, 1, welcome.Handle, log, m),
	}

	// metrics endpoint for the scraper
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	go func() {
		if err := e.Start(cfg.Worker.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(ctx, "metrics server stopped", "error", err)
		}
	}()

	log.Info(ctx, "worker started", "concurrency", cfg.Worker.Concurrency, "metrics_addr", cfg.Worker.MetricsAddr)

	var wg sync.WaitGroup
	for _, c := range consumers {
		wg.Add(1)
		go func(c *queue.Consumer) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error(ctx, "consumer exited", "error", err)
				stop()
			}
		}(c)
	}
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = e.Shutdown(shutdownCtx)
	log.Info(shutdownCtx, "worker stopped")
}
