// Package server runs the worker's HTTP listener with startup and shutdown hooks.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/mailtemplates/pkg/logger"
)

const (
	defaultAddress           = ":8080"
	defaultShutdownTimeout   = 30 * time.Second
	defaultReadTimeout       = 10 * time.Second
	defaultWriteTimeout      = 10 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 16
)

// Hook runs during startup or shutdown.
type Hook func(context.Context) error

// Config describes one server run.
type Config struct {
	Handler         http.Handler
	Logger          *slog.Logger
	Address         string
	StartupHooks    []Hook // Run in order before listening; the first error aborts
	ShutdownHooks   []Hook // Run in order after the listener stops; all run
	ShutdownTimeout time.Duration
	// Ready, when set, receives the bound address once the listener is up.
	Ready func(addr net.Addr)
}

// Run serves until ctx is done, then shuts down gracefully.
// Callers typically pass a context from signal.NotifyContext.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Address == "" {
		cfg.Address = defaultAddress
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNope()
	}

	shutdown := func(errs ...error) error {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()

		for _, hook := range cfg.ShutdownHooks {
			if err := hook(shutdownCtx); err != nil {
				log.Error("shutdown hook failed", slog.String("error", err.Error()))
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	for _, hook := range cfg.StartupHooks {
		if err := hook(ctx); err != nil {
			return shutdown(err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           cfg.Handler,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return shutdown(err)
	}
	if cfg.Ready != nil {
		cfg.Ready(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if serveErr != nil {
		errs = append(errs, serveErr)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := shutdown(errs...); err != nil {
		log.Error("shutdown completed with errors")
		return err
	}

	log.Info("shutdown completed")
	return nil
}
