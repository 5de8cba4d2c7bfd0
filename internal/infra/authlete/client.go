package authlete

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/astro-web3/credential-gateway/internal/domain/credential"
	httpclient "github.com/astro-web3/credential-gateway/pkg/http"
	"github.com/astro-web3/credential-gateway/pkg/logger"
)

const (
	introspectionPath = "/auth/introspection"
	singleParsePath   = "/vci/single/parse"
	singleIssuePath   = "/vci/single/issue"

	requestIDHeader = "X-Request-ID"
)

var ErrUnexpectedResponse = errors.New("unexpected response from authorization service")

type Config struct {
	BaseURL string
	// ServiceID selects the v3 API layout (/api/{serviceId}/...). When empty
	// the v2 layout (/api/...) is used.
	ServiceID          string
	ServiceAccessToken string
	APIKey             string
	APISecret          string
	Timeout            time.Duration
	RetryCount         int
}

// Client talks to an Authlete-compatible authorization service and
// implements credential.AuthorizationService.
type Client struct {
	http      *httpclient.Client
	apiPrefix string
	auth      httpclient.RequestOption
}

var _ credential.AuthorizationService = (*Client)(nil)

func NewClient(cfg Config) *Client {
	prefix := "/api"
	if cfg.ServiceID != "" {
		prefix = "/api/" + cfg.ServiceID
	}

	auth := httpclient.WithBasicAuth(cfg.APIKey, cfg.APISecret)
	if cfg.ServiceAccessToken != "" {
		auth = httpclient.WithAuthToken(cfg.ServiceAccessToken)
	}

	return &Client{
		http: httpclient.New(httpclient.Config{
			BaseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
			Timeout:    cfg.Timeout,
			RetryCount: cfg.RetryCount,
		}),
		apiPrefix: prefix,
		auth:      auth,
	}
}

func (c *Client) Introspect(ctx context.Context, token string) (*credential.IntrospectionOutcome, error) {
	var resp IntrospectionResponse
	if err := c.post(ctx, introspectionPath, &IntrospectionRequest{Token: token}, &resp); err != nil {
		return nil, err
	}

	return &credential.IntrospectionOutcome{
		Action:    credential.Action(resp.Action),
		Message:   resp.ResultMessage,
		Subject:   resp.Subject,
		ClientID:  resp.clientID(),
		Scopes:    resp.Scopes,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

func (c *Client) ParseCredentialRequest(
	ctx context.Context,
	rawBody, token string,
) (*credential.ParseOutcome, error) {
	var resp CredentialSingleParseResponse
	req := &CredentialSingleParseRequest{
		AccessToken:    token,
		RequestContent: rawBody,
	}
	if err := c.post(ctx, singleParsePath, req, &resp); err != nil {
		return nil, err
	}

	outcome := &credential.ParseOutcome{
		Action:  credential.Action(resp.Action),
		Message: resp.ResultMessage,
	}
	if resp.Info != nil {
		outcome.Request = &credential.ParsedCredentialRequest{
			Identifier:  resp.Info.Identifier,
			Format:      resp.Info.Format,
			BindingKey:  resp.Info.BindingKey,
			BindingKeys: resp.Info.BindingKeys,
			Details:     resp.Info.Details,
		}
	}
	return outcome, nil
}

func (c *Client) IssueCredential(
	ctx context.Context,
	order *credential.IssuanceOrder,
	token string,
) (*credential.IssuanceOutcome, error) {
	if order == nil {
		return nil, fmt.Errorf("%w: nil order", ErrUnexpectedResponse)
	}

	var resp CredentialSingleIssueResponse
	req := &CredentialSingleIssueRequest{
		AccessToken: token,
		Order: &CredentialIssuanceOrder{
			RequestIdentifier:  order.RequestIdentifier,
			CredentialPayload:  order.CredentialPayload,
			IssuanceDeferred:   order.IssuanceDeferred,
			CredentialDuration: order.CredentialDuration,
			SigningKeyID:       order.SigningKeyID,
		},
	}
	if err := c.post(ctx, singleIssuePath, req, &resp); err != nil {
		return nil, err
	}

	return &credential.IssuanceOutcome{
		Action:        credential.Action(resp.Action),
		Message:       resp.ResultMessage,
		Payload:       resp.ResponseContent,
		TransactionID: resp.TransactionID,
	}, nil
}

// post sends body and decodes result. Error statuses are accepted as long as
// the service still reported an action; anything else is a transport error.
func (c *Client) post(ctx context.Context, path string, body any, result actionCarrier) error {
	opts := []httpclient.RequestOption{
		httpclient.WithBody(body),
		httpclient.WithResult(result),
		c.auth,
	}
	if requestID := logger.RequestID(ctx); requestID != "" {
		opts = append(opts, httpclient.WithHeader(requestIDHeader, requestID))
	}

	resp, err := c.http.Post(ctx, c.apiPrefix+path, opts...)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}

	if result.action() == "" {
		logger.WarnContext(ctx, "authorization service response without action",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode()),
		)
		return fmt.Errorf("%w: %s returned status %d without an action", ErrUnexpectedResponse, path, resp.StatusCode())
	}

	return nil
}
