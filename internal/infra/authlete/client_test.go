package authlete_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astro-web3/credential-gateway/internal/domain/credential"
	"github.com/astro-web3/credential-gateway/internal/infra/authlete"
	"github.com/astro-web3/credential-gateway/pkg/logger"
)

type fakeService struct {
	t        *testing.T
	handlers map[string]func(body map[string]any) (int, any)
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if got := r.Header.Get("Authorization"); got != "Bearer svc-token" {
		f.t.Errorf("expected service access token, got %q", got)
	}
	h, ok := f.handlers[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		f.t.Errorf("failed to decode body: %v", err)
	}
	status, resp := h(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestClient(t *testing.T, handlers map[string]func(map[string]any) (int, any)) *authlete.Client {
	t.Helper()
	srv := httptest.NewServer(&fakeService{t: t, handlers: handlers})
	t.Cleanup(srv.Close)

	return authlete.NewClient(authlete.Config{
		BaseURL:            srv.URL + "/",
		ServiceID:          "715948317",
		ServiceAccessToken: "svc-token",
	})
}

func TestClient_Introspect(t *testing.T) {
	client := newTestClient(t, map[string]func(map[string]any) (int, any){
		"/api/715948317/auth/introspection": func(body map[string]any) (int, any) {
			assert.Equal(t, "user-token", body["token"])
			return http.StatusOK, map[string]any{
				"action":        "OK",
				"resultMessage": "[A056001] The access token is valid.",
				"subject":       "1001",
				"clientId":      5899463614448063,
				"scopes":        []string{"openid", "identity_credential"},
				"expiresAt":     1760000000000,
			}
		},
	})

	out, err := client.Introspect(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Equal(t, credential.ActionOK, out.Action)
	assert.Equal(t, "1001", out.Subject)
	assert.Equal(t, "5899463614448063", out.ClientID)
	assert.Equal(t, []string{"openid", "identity_credential"}, out.Scopes)
}

func TestClient_ParseCredentialRequest(t *testing.T) {
	client := newTestClient(t, map[string]func(map[string]any) (int, any){
		"/api/715948317/vci/single/parse": func(body map[string]any) (int, any) {
			assert.Equal(t, "user-token", body["accessToken"])
			assert.Equal(t, `{"format":"vc+sd-jwt"}`, body["requestContent"])
			return http.StatusOK, map[string]any{
				"action":        "OK",
				"resultMessage": "parsed",
				"info": map[string]any{
					"identifier": "id-1",
					"format":     "vc+sd-jwt",
					"bindingKey": "{\"kty\":\"EC\"}",
					"details":    `{"vct":"x"}`,
				},
			}
		},
	})

	out, err := client.ParseCredentialRequest(context.Background(), `{"format":"vc+sd-jwt"}`, "user-token")
	require.NoError(t, err)
	assert.Equal(t, credential.ActionOK, out.Action)
	require.NotNil(t, out.Request)
	assert.Equal(t, "id-1", out.Request.Identifier)
	assert.Equal(t, `{"vct":"x"}`, out.Request.Details)
}

func TestClient_RejectionWithErrorStatusIsAnOutcome(t *testing.T) {
	client := newTestClient(t, map[string]func(map[string]any) (int, any){
		"/api/715948317/vci/single/parse": func(map[string]any) (int, any) {
			return http.StatusBadRequest, map[string]any{
				"action":        "BAD_REQUEST",
				"resultMessage": "unsupported format",
			}
		},
	})

	out, err := client.ParseCredentialRequest(context.Background(), "{}", "user-token")
	require.NoError(t, err)
	assert.Equal(t, credential.ActionBadRequest, out.Action)
	assert.Equal(t, "unsupported format", out.Message)
	assert.Nil(t, out.Request)
}

func TestClient_IssueCredential(t *testing.T) {
	client := newTestClient(t, map[string]func(map[string]any) (int, any){
		"/api/715948317/vci/single/issue": func(body map[string]any) (int, any) {
			order, _ := body["order"].(map[string]any)
			assert.Equal(t, "id-1", order["requestIdentifier"])
			assert.Equal(t, `{"sub":"1001"}`, order["credentialPayload"])
			assert.Equal(t, true, order["issuanceDeferred"])
			return http.StatusOK, map[string]any{
				"action":          "ACCEPTED",
				"resultMessage":   "deferred",
				"responseContent": `{"transaction_id":"tx-1"}`,
				"transactionId":   "tx-1",
			}
		},
	})

	out, err := client.IssueCredential(context.Background(), &credential.IssuanceOrder{
		RequestIdentifier: "id-1",
		CredentialPayload: `{"sub":"1001"}`,
		IssuanceDeferred:  true,
	}, "user-token")
	require.NoError(t, err)
	assert.Equal(t, credential.ActionAccepted, out.Action)
	assert.Equal(t, `{"transaction_id":"tx-1"}`, out.Payload)
	assert.Equal(t, "tx-1", out.TransactionID)
}

func TestClient_ResponseWithoutActionIsAnError(t *testing.T) {
	client := newTestClient(t, map[string]func(map[string]any) (int, any){
		"/api/715948317/auth/introspection": func(map[string]any) (int, any) {
			return http.StatusBadGateway, map[string]any{"message": "upstream down"}
		},
	})

	_, err := client.Introspect(context.Background(), "user-token")
	assert.True(t, errors.Is(err, authlete.ErrUnexpectedResponse), "got %v", err)
}

func TestClient_UnknownActionPassesThrough(t *testing.T) {
	client := newTestClient(t, map[string]func(map[string]any) (int, any){
		"/api/715948317/auth/introspection": func(map[string]any) (int, any) {
			return http.StatusOK, map[string]any{"action": "SOMETHING_NEW"}
		},
	})

	out, err := client.Introspect(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Equal(t, credential.Action("SOMETHING_NEW"), out.Action)
}

func TestClient_ForwardsRequestID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"action":"OK","subject":"1001"}`))
	}))
	defer srv.Close()

	client := authlete.NewClient(authlete.Config{BaseURL: srv.URL, ServiceAccessToken: "svc-token"})

	ctx := logger.WithRequestID(context.Background(), "req-42")
	_, err := client.Introspect(ctx, "user-token")
	require.NoError(t, err)
	assert.Equal(t, "req-42", got)

	_, err = client.Introspect(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_V2LayoutUsesBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "api-key", user)
		assert.Equal(t, "api-secret", pass)
		assert.Equal(t, "/api/auth/introspection", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"action":"UNAUTHORIZED","resultMessage":"expired"}`))
	}))
	defer srv.Close()

	client := authlete.NewClient(authlete.Config{
		BaseURL:   srv.URL,
		APIKey:    "api-key",
		APISecret: "api-secret",
	})

	out, err := client.Introspect(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Equal(t, credential.ActionUnauthorized, out.Action)
}
