package credential

import (
	"context"
	"time"

	"github.com/astro-web3/credential-gateway/internal/domain/credential"
	"github.com/astro-web3/credential-gateway/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LatencyRecorder observes the duration of authorization service calls.
type LatencyRecorder interface {
	ObserveStageLatency(stage string, d time.Duration)
}

type instrumentedAuthorizationService struct {
	next     credential.AuthorizationService
	recorder LatencyRecorder
}

// Instrument wraps next with a span and a latency observation per call.
func Instrument(next credential.AuthorizationService, recorder LatencyRecorder) credential.AuthorizationService {
	return &instrumentedAuthorizationService{
		next:     next,
		recorder: recorder,
	}
}

func (s *instrumentedAuthorizationService) Introspect(
	ctx context.Context,
	token string,
) (*credential.IntrospectionOutcome, error) {
	ctx, span, done := s.start(ctx, credential.StageIntrospection)
	out, err := s.next.Introspect(ctx, token)
	if out != nil {
		span.SetAttributes(attribute.String("authz.action", string(out.Action)))
	}
	done(err)
	return out, err
}

func (s *instrumentedAuthorizationService) ParseCredentialRequest(
	ctx context.Context,
	rawBody, token string,
) (*credential.ParseOutcome, error) {
	ctx, span, done := s.start(ctx, credential.StageParse)
	out, err := s.next.ParseCredentialRequest(ctx, rawBody, token)
	if out != nil {
		span.SetAttributes(attribute.String("authz.action", string(out.Action)))
		if out.Request != nil {
			span.SetAttributes(attribute.String("credential.format", out.Request.Format))
		}
	}
	done(err)
	return out, err
}

func (s *instrumentedAuthorizationService) IssueCredential(
	ctx context.Context,
	order *credential.IssuanceOrder,
	token string,
) (*credential.IssuanceOutcome, error) {
	ctx, span, done := s.start(ctx, credential.StageIssuance)
	out, err := s.next.IssueCredential(ctx, order, token)
	if out != nil {
		span.SetAttributes(attribute.String("authz.action", string(out.Action)))
	}
	done(err)
	return out, err
}

func (s *instrumentedAuthorizationService) start(
	ctx context.Context,
	stage credential.Stage,
) (context.Context, trace.Span, func(error)) {
	ctx, span := tracer.Start(ctx, "authz."+string(stage))
	start := time.Now()

	return ctx, span, func(err error) {
		if s.recorder != nil {
			s.recorder.ObserveStageLatency(string(stage), time.Since(start))
		}
		if err != nil {
			tracer.Fail(span, err)
		}
		span.End()
	}
}
