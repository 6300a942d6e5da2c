package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/app"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/config"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run loads the configuration, serves until SIGINT or SIGTERM, then drains
// in-flight requests and flushes the cart to storage.
func run(args []string) error {
	cfg, err := config.Load(args, ".env", os.LookupEnv)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Cart.Flush()

	srv := newServer(cfg, a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.RequestTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newServer sizes the server timeouts around the request deadline so a
// slow payment authorization is not cut off by the write timeout.
func newServer(cfg config.Config, a *app.App) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.Handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      a.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
