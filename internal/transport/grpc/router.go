package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/astro-web3/credential-gateway/pkg/logger"
)

var errPanic = errors.New("internal server error")

// NewRouter mounts the credential service and returns its path prefix.
func NewRouter(handler *Handler) (string, http.Handler) {
	mux := http.NewServeMux()

	mux.Handle(IssueCredentialProcedure, connect.NewUnaryHandler(
		IssueCredentialProcedure,
		handler.IssueCredential,
		connect.WithInterceptors(
			recoveryInterceptor(),
			loggingInterceptor(),
		),
	))

	return ServicePath, mux
}

func recoveryInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (resp connect.AnyResponse, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "panic recovered", slog.Any("panic", r))
					resp, err = nil, connect.NewError(connect.CodeInternal, errPanic)
				}
			}()
			return next(ctx, req)
		}
	}
}

func loggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			duration := time.Since(start)

			if err != nil {
				logger.WarnContext(ctx, "request failed",
					slog.String("method", req.Spec().Procedure),
					slog.String("code", connect.CodeOf(err).String()),
					slog.Duration("duration", duration),
				)
			} else {
				logger.InfoContext(ctx, "request completed",
					slog.String("method", req.Spec().Procedure),
					slog.Duration("duration", duration),
				)
			}

			return resp, err
		}
	}
}
