package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/intake/internal/adapters/http/api"
	"github.com/okian/intake/internal/adapters/recency"
	"github.com/okian/intake/internal/adapters/repository"
	"github.com/okian/intake/internal/adapters/scoring"
	service "github.com/okian/intake/internal/app"
	"github.com/okian/intake/internal/config"
	"github.com/okian/intake/pkg/logger"
	"github.com/okian/intake/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Open the durable session store.
	store, err := repository.Open(cfg.DBPath)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open session store", logger.String("db_path", cfg.DBPath), logger.Error(err))
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			loggerInstance.Error(ctx, "failed to close session store", logger.Error(err))
		}
	}()

	// Scoring engine client.
	scorer := scoring.NewClient(
		scoring.WithBaseURL(cfg.ScorerURL),
		scoring.WithToken(cfg.ScorerToken),
		scoring.WithTimeout(time.Duration(cfg.ScorerTimeoutMS)*time.Millisecond),
	)

	// Per-user recency cache with its background janitor.
	cache := recency.NewMemoryCache(
		recency.WithMaxEntries(cfg.RecencyMaxEntries),
		recency.WithTTL(time.Duration(cfg.RecencyTTLSeconds)*time.Second),
		recency.WithJanitorInterval(time.Duration(cfg.RecencyJanitorSeconds)*time.Second),
	)
	cache.Start(ctx)
	defer func() {
		if err := cache.Close(); err != nil {
			loggerInstance.Error(ctx, "failed to close recency cache", logger.Error(err))
		}
	}()

	// Create and start the service with its adapters.
	svc := service.New(
		service.WithStore(store),
		service.WithScorer(scorer),
		service.WithCache(cache),
		service.WithLogger(loggerInstance),
	)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx, cache)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context, cache *recency.MemoryCache) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics(cache)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics(cache *recency.MemoryCache) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	metrics.UpdateCacheUsers(cache.Users())
}
