package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Start wires the bus subscriptions, runs the HTTP server, and blocks until
// an interrupt or terminate signal triggers a graceful shutdown.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.bridge.Start(ctx); err != nil {
		slog.Error("Failed to start websocket bridge", "error", err)
		os.Exit(1)
	}
	if err := s.engine.Start(ctx); err != nil {
		slog.Error("Failed to start relay engine", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := s.E.Start(":" + s.Cfg.GetPort()); err != nil && err != http.ErrServerClosed {
			s.E.Logger.Fatalf("shutting down the server: %v", err)
		}
	}()
	slog.Info("Relay listening", "port", s.Cfg.GetPort(), "origin", s.Cfg.GetAppOrigin())

	// Wait for interrupt signal to gracefully shut down the server with a timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := s.E.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	cancel()
	if err := s.bus.Close(); err != nil {
		slog.Error("Bus shutdown failed", "error", err)
	}
	s.injector.Shutdown()
	s.otelCleanup()
}
