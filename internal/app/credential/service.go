package credential

import (
	"context"
	"log/slog"

	"github.com/astro-web3/credential-gateway/internal/domain/credential"
	"github.com/astro-web3/credential-gateway/pkg/logger"
	"github.com/astro-web3/credential-gateway/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
)

type Service interface {
	Issue(ctx context.Context, req credential.Request) *credential.Response
}

// OutcomeRecorder counts terminal outcomes.
type OutcomeRecorder interface {
	IncrementOutcome(stage string, status int)
}

type service struct {
	pipeline *credential.Pipeline
	recorder OutcomeRecorder
}

func NewService(pipeline *credential.Pipeline, recorder OutcomeRecorder) Service {
	return &service{
		pipeline: pipeline,
		recorder: recorder,
	}
}

const stageIssued = "issued"

func (s *service) Issue(ctx context.Context, req credential.Request) *credential.Response {
	ctx, span := tracer.Start(ctx, "app.credential.Issue")
	defer span.End()

	resp := s.pipeline.Execute(ctx, req)
	span.SetAttributes(attribute.Int("credential.status", resp.Status))

	if resp.Succeeded() {
		span.SetAttributes(attribute.Bool("credential.deferred", resp.Deferred))
		s.record(stageIssued, resp.Status)
		attrs := []slog.Attr{slog.Bool("deferred", resp.Deferred)}
		if resp.TransactionID != "" {
			span.SetAttributes(attribute.String("credential.transaction_id", resp.TransactionID))
			attrs = append(attrs, slog.String("transaction_id", resp.TransactionID))
		}
		logger.InfoContext(ctx, "credential issued", attrs...)
		return resp
	}

	f := resp.Failure
	span.SetAttributes(
		attribute.String("credential.failed_stage", string(f.Stage)),
		attribute.String("credential.action", string(f.Action)),
	)
	s.record(string(f.Stage), f.Status)
	logFailure(ctx, f)

	if f.Status >= 500 {
		tracer.Fail(span, f)
	}
	return resp
}

func (s *service) record(stage string, status int) {
	if s.recorder != nil {
		s.recorder.IncrementOutcome(stage, status)
	}
}

func logFailure(ctx context.Context, f *credential.Failure) {
	attrs := []slog.Attr{
		slog.String("stage", string(f.Stage)),
		slog.String("action", string(f.Action)),
		slog.Int("status", f.Status),
		slog.String("message", f.Message),
	}
	if f.Cause != nil {
		attrs = append(attrs, slog.String("error", f.Cause.Error()))
	}
	// Rejected tokens are audited by fingerprint only.
	if f.Token != "" {
		attrs = append(attrs, slog.String("token", tokenPrefix(f.Token)))
	}

	if f.Status >= 500 {
		logger.ErrorContext(ctx, "credential request failed", attrs...)
		return
	}
	logger.WarnContext(ctx, "credential request rejected", attrs...)
}

const tokenPrefixLength = 8

func tokenPrefix(token string) string {
	if len(token) > tokenPrefixLength {
		return token[:tokenPrefixLength] + "..."
	}
	return "***"
}
