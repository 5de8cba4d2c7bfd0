package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var errNilOutcome = errors.New("authorization service returned no outcome")

// AuthorizationService is the authorization backend the pipeline drives.
// A non-nil error means the call itself failed; rejections are reported
// through the outcome's Action.
type AuthorizationService interface {
	Introspect(ctx context.Context, token string) (*IntrospectionOutcome, error)
	ParseCredentialRequest(ctx context.Context, rawBody, token string) (*ParseOutcome, error)
	IssueCredential(ctx context.Context, order *IssuanceOrder, token string) (*IssuanceOutcome, error)
}

// Pipeline runs introspect, parse, build and issue for one request. It holds
// no per-request state and is safe for concurrent use.
type Pipeline struct {
	authz   AuthorizationService
	builder *OrderBuilder
}

func NewPipeline(authz AuthorizationService, builder *OrderBuilder) *Pipeline {
	return &Pipeline{
		authz:   authz,
		builder: builder,
	}
}

// Execute always returns exactly one Response. The first failing stage ends
// the request; nothing is retried.
func (p *Pipeline) Execute(ctx context.Context, req Request) (resp *Response) {
	stage := StageRequest
	defer func() {
		if r := recover(); r != nil {
			resp = failed(&Failure{
				Stage:   stage,
				Action:  ActionInternalServerError,
				Status:  http.StatusInternalServerError,
				Message: msgInternal,
				Cause:   fmt.Errorf("panic: %v", r),
			})
		}
	}()

	if len(req.Content) == 0 {
		return failed(&Failure{Stage: StageRequest, Status: http.StatusBadRequest, Message: msgMissingContent})
	}

	token, ok := ExtractBearerToken(req.Authorization)
	if !ok || token == "" {
		return failed(&Failure{Stage: StageRequest, Status: http.StatusBadRequest, Message: msgMissingToken})
	}

	stage = StageIntrospection
	grant, f := p.introspect(ctx, token)
	if f != nil {
		return failed(f)
	}

	stage = StageParse
	parsed, f := p.parse(ctx, string(req.Content), token)
	if f != nil {
		return failed(f)
	}

	stage = StageOrder
	order, err := p.builder.Build(parsed.WithSubject(grant.Subject))
	if err != nil {
		return failed(&Failure{
			Stage:   StageOrder,
			Action:  ActionInternalServerError,
			Status:  http.StatusInternalServerError,
			Message: msgOrder,
			Cause:   err,
		})
	}

	stage = StageIssuance
	issued, f := p.issue(ctx, order, token)
	if f != nil {
		return failed(f)
	}

	// The issuance payload wins over the result message; the message is only
	// a fallback for services that return no payload.
	body := issued.Payload
	if body == "" {
		body = issued.Message
	}
	return &Response{
		Status:        http.StatusOK,
		Body:          body,
		Deferred:      issued.Action == ActionAccepted,
		TransactionID: issued.TransactionID,
	}
}

func (p *Pipeline) introspect(ctx context.Context, token string) (*IntrospectionOutcome, *Failure) {
	out, err := p.authz.Introspect(ctx, token)
	if err != nil {
		return nil, upstreamFailure(StageIntrospection, err)
	}
	if out == nil {
		return nil, upstreamFailure(StageIntrospection, errNilOutcome)
	}
	if f := Classify(StageIntrospection, out.Action, out.Message, token); f != nil {
		return nil, f
	}
	return out, nil
}

func (p *Pipeline) parse(ctx context.Context, content, token string) (*ParsedCredentialRequest, *Failure) {
	out, err := p.authz.ParseCredentialRequest(ctx, content, token)
	if err != nil {
		return nil, upstreamFailure(StageParse, err)
	}
	if out == nil {
		return nil, upstreamFailure(StageParse, errNilOutcome)
	}
	if f := Classify(StageParse, out.Action, out.Message, token); f != nil {
		return nil, f
	}
	if out.Request == nil {
		return nil, &Failure{
			Stage:   StageParse,
			Action:  out.Action,
			Status:  http.StatusInternalServerError,
			Message: msgIncomplete,
			Cause:   ErrMissingParsedRequest,
		}
	}
	return out.Request, nil
}

func (p *Pipeline) issue(ctx context.Context, order *IssuanceOrder, token string) (*IssuanceOutcome, *Failure) {
	out, err := p.authz.IssueCredential(ctx, order, token)
	if err != nil {
		return nil, upstreamFailure(StageIssuance, err)
	}
	if out == nil {
		return nil, upstreamFailure(StageIssuance, errNilOutcome)
	}
	if f := Classify(StageIssuance, out.Action, out.Message, token); f != nil {
		return nil, f
	}
	return out, nil
}

func upstreamFailure(stage Stage, err error) *Failure {
	return &Failure{
		Stage:   stage,
		Action:  ActionInternalServerError,
		Status:  http.StatusInternalServerError,
		Message: msgUpstream,
		Cause:   err,
	}
}

func failed(f *Failure) *Response {
	return &Response{
		Status:  f.Status,
		Body:    f.Message,
		Failure: f,
	}
}
