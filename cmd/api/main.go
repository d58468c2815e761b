package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/user/product-image-scraper/internal/adapter/chromedp_crawler"
	"github.com/user/product-image-scraper/internal/adapter/httpclient"
	"github.com/user/product-image-scraper/internal/adapter/postgres"
	redis_adapter "github.com/user/product-image-scraper/internal/adapter/redis"
	"github.com/user/product-image-scraper/internal/delivery/http/handler"
	"github.com/user/product-image-scraper/internal/delivery/http/router"
	"github.com/user/product-image-scraper/internal/downloader"
	"github.com/user/product-image-scraper/internal/repository"
	"github.com/user/product-image-scraper/internal/usecase"
	"github.com/user/product-image-scraper/pkg/config"
	"github.com/user/product-image-scraper/pkg/logger"
	"github.com/user/product-image-scraper/pkg/metrics"
	"go.uber.org/zap"
)

const workerPollInterval = 2 * time.Second

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// --- Metrics ---
	m := metrics.New(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connections ---
	if cfg.PostgresURL == "" {
		log.Fatal("POSTGRES_URL is required")
	}
	dbpool, err := postgres.NewPool(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer dbpool.Close()
	if err := postgres.Migrate(ctx, dbpool); err != nil {
		log.Fatal("failed to apply migrations", zap.Error(err))
	}
	log.Info("PostgreSQL connection pool established")

	rdb, err := redis_adapter.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("Redis connection established")

	// --- Repositories ---
	queueRepo := redis_adapter.NewRunQueueRepo(rdb)
	statusRepo := redis_adapter.NewRunStatusRepo(rdb)
	reportRepo := postgres.NewRunReportRepo(dbpool)

	// --- Scraping pipeline ---
	opts := httpclient.DefaultOptions()
	opts.UserAgent = cfg.UserAgent
	opts.Timeout = cfg.Timeout()
	opts.Attempts = cfg.RequestRetry
	opts.BaseSleep = cfg.Sleep()
	opts.Proxies = cfg.Proxies()
	client, err := httpclient.New(opts, m, log)
	if err != nil {
		log.Fatal("failed to create http client", zap.Error(err))
	}

	var fetcher repository.PageFetcher = httpclient.NewPageFetcher(client)
	if cfg.RenderMode == "chromedp" {
		var proxy string
		if len(opts.Proxies) > 0 {
			proxy = opts.Proxies[0]
		}
		browser := chromedp_crawler.NewPageFetcher(chromedp_crawler.Options{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout(),
			Attempts:  cfg.RequestRetry,
			BaseSleep: cfg.Sleep(),
			Proxy:     proxy,
		}, m, log)
		defer browser.Close()
		fetcher = browser
	}
	batch := usecase.NewBatchRunner(fetcher, downloader.New(client, m, log), m, log)

	// --- Use Cases ---
	runManager := usecase.NewRunManager(queueRepo, statusRepo, reportRepo, cfg.RunStatusTTL(), cfg.MaxPerProduct, log)
	runWorker := usecase.NewRunWorker(queueRepo, statusRepo, reportRepo, batch, cfg.OutDir, cfg.Sleep(), cfg.RunStatusTTL(), m, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runWorker.Loop(ctx, workerPollInterval)
	}()

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(runManager, map[string]handler.HealthCheck{
		"postgres": dbpool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, log)
	httpRouter := router.New(apiHandler, m, prometheus.DefaultGatherer, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
			stop()
		}
	}()
	log.Info("server started", zap.String("port", cfg.ServerPort))

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// The worker stops after its current row; the run is left as "running".
	wg.Wait()
	log.Info("server exiting")
}
