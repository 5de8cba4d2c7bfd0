package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/astro-web3/credential-gateway/internal/config"
	httptransport "github.com/astro-web3/credential-gateway/internal/transport/http"
	"github.com/astro-web3/credential-gateway/pkg/logger"
	"github.com/astro-web3/credential-gateway/pkg/otel"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()

	srv, err := httptransport.NewServer(cfg)
	if err != nil {
		slog.Default().Error("Failed to create server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting credential gateway",
			slog.String("addr", cfg.Server.Addr),
			slog.String("mode", cfg.Server.Mode),
			slog.String("authorization_server", cfg.AuthorizationServer.BaseURL),
		)
		if listenErr := srv.ListenAndServe(); listenErr != nil &&
			!errors.Is(listenErr, http.ErrServerClosed) {
			serverErr <- listenErr
		}
	}()

	select {
	case <-ctx.Done():
		logger.InfoContext(context.Background(), "shutting down")
	case err := <-serverErr:
		logger.ErrorContext(context.Background(), "server error, shutting down", slog.String("error", err.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(shutdownCtx, "server forced to shutdown", slog.String("error", err.Error()))
	} else {
		logger.InfoContext(shutdownCtx, "server stopped gracefully")
	}

	if err := otel.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(shutdownCtx, "failed to shutdown tracer provider", slog.String("error", err.Error()))
	}
}
