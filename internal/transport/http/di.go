package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	credentialapp "github.com/astro-web3/credential-gateway/internal/app/credential"
	"github.com/astro-web3/credential-gateway/internal/config"
	"github.com/astro-web3/credential-gateway/internal/domain/credential"
	"github.com/astro-web3/credential-gateway/internal/domain/user"
	"github.com/astro-web3/credential-gateway/internal/infra/authlete"
	"github.com/astro-web3/credential-gateway/internal/infra/cache"
	"github.com/astro-web3/credential-gateway/internal/metrics"
	grpctransport "github.com/astro-web3/credential-gateway/internal/transport/grpc"
	"github.com/astro-web3/credential-gateway/pkg/logger"
	"github.com/astro-web3/credential-gateway/pkg/otel"
	"github.com/astro-web3/credential-gateway/pkg/tracer"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	httpServer  *http.Server
	redisClient *redis.Client
}

const (
	idleTimeoutMultiplier = 2
	serviceName           = "credential-gateway"
)

func NewServer(cfg *config.Config) (*Server, error) {
	logger.InitLogger(cfg.Observability.LogLevel, cfg.Observability.Format, cfg.Observability.LogSource)

	otelCfg := otel.DefaultConfig()
	otelCfg.EndpointURL = cfg.Observability.TracingEndpointURL
	otelCfg.Enabled = cfg.Observability.TraceEnabled
	otelCfg.Environment = os.Getenv("APP_ENV")
	if err := tracer.InitTracer(serviceName, otelCfg); err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Observability.MetricsEnabled {
		m = metrics.New()
	}

	var authz credential.AuthorizationService = authlete.NewClient(authlete.Config{
		BaseURL:            cfg.AuthorizationServer.BaseURL,
		ServiceID:          cfg.AuthorizationServer.ServiceID,
		ServiceAccessToken: cfg.AuthorizationServer.ServiceAccessToken,
		APIKey:             cfg.AuthorizationServer.APIKey,
		APISecret:          cfg.AuthorizationServer.APISecret,
		Timeout:            cfg.AuthorizationServer.Timeout,
		RetryCount:         cfg.AuthorizationServer.RetryCount,
	})
	authz = credentialapp.Instrument(authz, m)

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		client, err := cache.NewRedisClient(cfg.Redis.URL, cfg.Redis.PoolSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		redisClient = client
		authz = cache.NewCachingAuthorizationService(
			authz,
			cache.NewGrantCache(redisClient),
			cfg.Cache.IntrospectionTTL,
			m,
		)
		logger.InfoContext(context.Background(), "introspection cache enabled",
			slog.Duration("ttl", cfg.Cache.IntrospectionTTL),
		)
	}

	users := user.NewMemoryStore(user.SampleUsers()...)
	builder := credential.NewOrderBuilder(users, credential.OrderOptions{
		CredentialDuration: cfg.Issuance.CredentialDuration,
		Deferred:           cfg.Issuance.Deferred,
		SigningKeyID:       cfg.Issuance.SigningKeyID,
	})
	appService := credentialapp.NewService(credential.NewPipeline(authz, builder), m)

	handler := NewHandler(appService, cfg)
	rpcPath, rpcHandler := grpctransport.NewRouter(grpctransport.NewHandler(appService))
	router := NewRouter(handler, cfg, m, rpcHandler, rpcPath)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout * idleTimeoutMultiplier,
	}

	return &Server{
		httpServer:  httpServer,
		redisClient: redisClient,
	}, nil
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close redis client: %w", closeErr)
		}
	}
	return err
}
