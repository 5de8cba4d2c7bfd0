package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astro-web3/credential-gateway/internal/config"
)

const sampleConfig = `
server:
  addr: ":9090"
  mode: debug
authorization_server:
  base_url: https://as.example.com
  service_id: "715948317"
  service_access_token: svc-token
issuance:
  credential_duration: 24h
  signing_key_id: issuer-key-1
cache:
  introspection_ttl: 1m
`

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", sampleConfig)

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "https://as.example.com", cfg.AuthorizationServer.BaseURL)
	assert.Equal(t, "715948317", cfg.AuthorizationServer.ServiceID)
	assert.Equal(t, 24*time.Hour, cfg.Issuance.CredentialDuration)
	assert.Equal(t, time.Minute, cfg.Cache.IntrospectionTTL)
	assert.Equal(t, 0, cfg.AuthorizationServer.RetryCount)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", sampleConfig)
	t.Setenv("CREDENTIAL_GATEWAY_SERVER_ADDR", ":7070")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoad_AppEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", sampleConfig)
	writeConfig(t, dir, "config.staging.yaml", "issuance:\n  deferred: true\n")
	t.Setenv("APP_ENV", "staging")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Issuance.Deferred)
	assert.Equal(t, "issuer-key-1", cfg.Issuance.SigningKeyID)
}

func TestLoad_RequiresAuthorizationServer(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", "server:\n  addr: \":9090\"\n")

	_, err := config.Load(dir)
	assert.ErrorIs(t, err, config.ErrMissingAuthorizationServer)
}

func TestLoad_EnvironmentOnly(t *testing.T) {
	t.Setenv("CREDENTIAL_GATEWAY_AUTHORIZATION_SERVER_BASE_URL", "https://as.example.com")
	t.Setenv("CREDENTIAL_GATEWAY_AUTHORIZATION_SERVER_SERVICE_ACCESS_TOKEN", "svc-token")
	t.Setenv("CREDENTIAL_GATEWAY_ISSUANCE_DEFERRED", "true")
	t.Setenv("CREDENTIAL_GATEWAY_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://as.example.com", cfg.AuthorizationServer.BaseURL)
	assert.Equal(t, "svc-token", cfg.AuthorizationServer.ServiceAccessToken)
	assert.True(t, cfg.Issuance.Deferred)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}
