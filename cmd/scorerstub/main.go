package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/intake/internal/scorerstub"
	"github.com/okian/intake/pkg/logger"
)

const (
	defaultAddr  = ":8000"
	defaultToken = "dev-internal-token"

	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Standalone scoring engine for local development. The main service talks
// to it over HTTP exactly as it would to the real engine.
func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Named("scorerstub")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := os.Getenv("SCORER_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	token := os.Getenv("INTERNAL_SCORER_TOKEN")
	if token == "" {
		token = defaultToken
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           scorerstub.NewHandler(token),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting scoring engine", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("scoring engine failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "scoring engine stopped")
}
