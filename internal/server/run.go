package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Run listens on opts.Listen and serves until ctx is cancelled or the process
// receives SIGINT or SIGTERM.
func Run(ctx context.Context, opts Options) error {
	ln, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", opts.Listen, err)
	}
	return Serve(ctx, ln, opts)
}

// Serve is like Run but uses an existing listener, which it closes on return.
func Serve(ctx context.Context, ln net.Listener, opts Options) error {
	srv, err := New(opts)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := &http.Server{
		Handler:           srv.SetupRoutes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
	}

	var g run.Group
	g.Add(func() error {
		slog.Info("Starting server", "url", "http://"+ln.Addr().String())
		if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Graceful shutdown failed", "error", err)
		}
	})
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	var sigErr run.SignalError
	if errors.As(err, &sigErr) || errors.Is(err, context.Canceled) {
		slog.Info("Server stopped", "reason", err.Error())
		return nil
	}
	return err
}
