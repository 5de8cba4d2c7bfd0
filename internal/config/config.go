package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "CREDENTIAL_GATEWAY"

var ErrMissingAuthorizationServer = errors.New("authorization_server.base_url is required")

type Config struct {
	Server struct {
		Addr         string        `mapstructure:"addr"`
		Mode         string        `mapstructure:"mode"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	} `mapstructure:"server"`

	Redis struct {
		URL      string `mapstructure:"url"`
		PoolSize int    `mapstructure:"pool_size"`
	} `mapstructure:"redis"`

	AuthorizationServer struct {
		BaseURL            string        `mapstructure:"base_url"`
		ServiceID          string        `mapstructure:"service_id"`
		ServiceAccessToken string        `mapstructure:"service_access_token"`
		APIKey             string        `mapstructure:"api_key"`
		APISecret          string        `mapstructure:"api_secret"`
		Timeout            time.Duration `mapstructure:"timeout"`
		RetryCount         int           `mapstructure:"retry_count"`
	} `mapstructure:"authorization_server"`

	Issuance struct {
		CredentialDuration time.Duration `mapstructure:"credential_duration"`
		Deferred           bool          `mapstructure:"deferred"`
		SigningKeyID       string        `mapstructure:"signing_key_id"`
	} `mapstructure:"issuance"`

	Cache struct {
		IntrospectionTTL time.Duration `mapstructure:"introspection_ttl"`
	} `mapstructure:"cache"`

	Observability struct {
		MetricsEnabled     bool   `mapstructure:"metrics_enabled"`
		TraceEnabled       bool   `mapstructure:"trace_enabled"`
		TracingEndpointURL string `mapstructure:"tracing_endpoint_url"`
		LogLevel           string `mapstructure:"log_level"`
		Format             string `mapstructure:"log_format"`
		LogSource          bool   `mapstructure:"log_source"`
	} `mapstructure:"observability"`
}

// setDefaults registers every key, including empty ones: AutomaticEnv only
// feeds Unmarshal for keys viper already knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("authorization_server.base_url", "")
	v.SetDefault("authorization_server.service_id", "")
	v.SetDefault("authorization_server.service_access_token", "")
	v.SetDefault("authorization_server.api_key", "")
	v.SetDefault("authorization_server.api_secret", "")
	v.SetDefault("authorization_server.timeout", 10*time.Second)
	v.SetDefault("authorization_server.retry_count", 0)
	v.SetDefault("issuance.credential_duration", 0)
	v.SetDefault("issuance.deferred", false)
	v.SetDefault("issuance.signing_key_id", "")
	v.SetDefault("cache.introspection_ttl", 30*time.Second)
	v.SetDefault("observability.metrics_enabled", false)
	v.SetDefault("observability.trace_enabled", false)
	v.SetDefault("observability.tracing_endpoint_url", "")
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "json")
	v.SetDefault("observability.log_source", false)
}

// Load reads config.yaml from the given directories, overlays
// config.<APP_ENV>.yaml when APP_ENV is set, and applies environment
// variables prefixed with CREDENTIAL_GATEWAY_.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		slog.Default().Info("No config file found, using defaults and environment")
	}

	if env := os.Getenv("APP_ENV"); env != "" {
		v.SetConfigName(fmt.Sprintf("config.%s", env))
		if err := v.MergeInConfig(); err != nil {
			slog.Default().Info("No environment-specific config (optional)", slog.String("env", env))
		} else {
			slog.Default().Info("Environment-specific config loaded", slog.String("env", env))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load("./config", ".")
	if err != nil {
		slog.Default().Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	return cfg
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.AuthorizationServer.BaseURL) == "" {
		return ErrMissingAuthorizationServer
	}
	return nil
}
