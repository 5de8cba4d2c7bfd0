package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	httpclient "github.com/astro-web3/credential-gateway/pkg/http"
)

type echoResult struct {
	Auth   string `json:"auth"`
	Method string `json:"method"`
	Name   string `json:"name"`
}

func TestClient_PostDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(echoResult{
			Auth:   r.Header.Get("Authorization"),
			Method: r.Method,
			Name:   body["name"],
		})
	}))
	defer srv.Close()

	client := httpclient.New(httpclient.Config{BaseURL: srv.URL})

	var result echoResult
	resp, err := client.Post(context.Background(), "/echo",
		httpclient.WithAuthToken("svc-token"),
		httpclient.WithBody(map[string]string{"name": "credential"}),
		httpclient.WithResult(&result),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode())
	}
	if result.Auth != "Bearer svc-token" {
		t.Errorf("expected bearer auth, got %q", result.Auth)
	}
	if result.Method != http.MethodPost || result.Name != "credential" {
		t.Errorf("unexpected echo: %+v", result)
	}
}

func TestClient_ErrorBodyDecodedIntoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"name":"rejected"}`))
	}))
	defer srv.Close()

	client := httpclient.New(httpclient.Config{BaseURL: srv.URL})

	var result echoResult
	resp, err := client.Get(context.Background(), "/", httpclient.WithBasicAuth("key", "secret"), httpclient.WithResult(&result))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode())
	}
	if result.Name != "rejected" {
		t.Errorf("expected error body decoded, got %+v", result)
	}
}
