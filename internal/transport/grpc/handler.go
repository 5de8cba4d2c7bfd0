package grpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	credentialapp "github.com/astro-web3/credential-gateway/internal/app/credential"
	"github.com/astro-web3/credential-gateway/internal/domain/credential"
	"github.com/astro-web3/credential-gateway/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServicePath              = "/credential.v1.CredentialService/"
	IssueCredentialProcedure = ServicePath + "IssueCredential"
)

// Handler serves credential requests over Connect. The request message
// carries the raw credential request JSON and the response message the
// issued credential payload.
type Handler struct {
	appService credentialapp.Service
}

func NewHandler(appService credentialapp.Service) *Handler {
	return &Handler{
		appService: appService,
	}
}

func (h *Handler) IssueCredential(
	ctx context.Context,
	req *connect.Request[wrapperspb.StringValue],
) (*connect.Response[wrapperspb.StringValue], error) {
	ctx, span := tracer.Start(ctx, "transport.grpc.IssueCredential")
	defer span.End()

	resp := h.appService.Issue(ctx, credential.Request{
		Content:       []byte(req.Msg.GetValue()),
		Authorization: req.Header().Get("Authorization"),
	})
	span.SetAttributes(attribute.Int("credential.status", resp.Status))

	if !resp.Succeeded() {
		cerr := connect.NewError(codeFor(resp.Status), errors.New(resp.Body))
		if resp.Status == http.StatusUnauthorized {
			cerr.Meta().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		}
		return nil, cerr
	}

	out := connect.NewResponse(wrapperspb.String(resp.Body))
	if resp.Deferred {
		out.Header().Set("X-Issuance-Deferred", "true")
	}
	if resp.TransactionID != "" {
		out.Header().Set("X-Transaction-ID", resp.TransactionID)
	}
	return out, nil
}

func codeFor(status int) connect.Code {
	switch status {
	case http.StatusBadRequest:
		return connect.CodeInvalidArgument
	case http.StatusUnauthorized:
		return connect.CodeUnauthenticated
	case http.StatusForbidden:
		return connect.CodePermissionDenied
	default:
		return connect.CodeInternal
	}
}
