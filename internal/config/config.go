// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends accepted in STORE_BACKEND.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// HTTPAddr is the address of the HTTP boundary (POST /api/authorize, /metrics). Empty disables it.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN for the account, device and session stores.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// StoreBackend selects "postgres" or "memory". Defaults to postgres when DATABASE_URL is set, memory otherwise.
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// AuthzBypass when true makes the boundary answer authorized for every call without running the engine.
	// Must not be true when Env is production.
	AuthzBypass bool `mapstructure:"AUTHZ_BYPASS"`
	// SessionTTLRaw is the lifetime of a session issued by a successful authorization (e.g. "1h").
	SessionTTLRaw string `mapstructure:"SESSION_TTL"`
	// MaxDevices is the number of concurrently active devices per account (default 2).
	MaxDevices int `mapstructure:"MAX_DEVICES"`
	// RecheckCapacityOnReactivate runs the eviction step when a previously evicted device comes back.
	RecheckCapacityOnReactivate bool `mapstructure:"RECHECK_CAPACITY_ON_REACTIVATE"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is reported as service.name on all telemetry.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// AuthzEventsKafkaBrokers is a comma-separated list of Kafka brokers for decision events; empty disables Kafka.
	AuthzEventsKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuthzEventsKafkaTopic is the Kafka topic for decision events (default entitlement-authz-events).
	AuthzEventsKafkaTopic string `mapstructure:"AUTHZ_EVENTS_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group of cmd/worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// OperatorJWTPublicKey is the PEM (inline or file path) used to verify operator tokens on the
	// device and audit routes. Empty leaves those routes unmounted.
	OperatorJWTPublicKey string `mapstructure:"OPERATOR_JWT_PUBLIC_KEY"`
	// OperatorJWTIssuer is the required iss claim of operator tokens.
	OperatorJWTIssuer string `mapstructure:"OPERATOR_JWT_ISSUER"`
	// OperatorJWTAudience is the required aud claim of operator tokens.
	OperatorJWTAudience string `mapstructure:"OPERATOR_JWT_AUDIENCE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("HTTP_ADDR", ":8081")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("STORE_BACKEND", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("AUTHZ_BYPASS", false)
	v.SetDefault("SESSION_TTL", "1h")
	// No default: an explicit MAX_DEVICES=0 must be rejected, not mistaken for "unset".
	_ = v.BindEnv("MAX_DEVICES")
	v.SetDefault("RECHECK_CAPACITY_ON_REACTIVATE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "entitlement-gate")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUTHZ_EVENTS_KAFKA_TOPIC", "entitlement-authz-events")
	v.SetDefault("KAFKA_GROUP_ID", "entitlement-authz-events-worker")
	v.SetDefault("OPERATOR_JWT_PUBLIC_KEY", "")
	v.SetDefault("OPERATOR_JWT_ISSUER", "entitlement-gate")
	v.SetDefault("OPERATOR_JWT_AUDIENCE", "entitlement-gate-operator")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}

	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	if cfg.StoreBackend == "" {
		if cfg.DatabaseURL != "" {
			cfg.StoreBackend = StoreBackendPostgres
		} else {
			cfg.StoreBackend = StoreBackendMemory
		}
	}
	switch cfg.StoreBackend {
	case StoreBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("config: DATABASE_URL must be set when STORE_BACKEND=postgres")
		}
	case StoreBackendMemory:
	default:
		return nil, errors.New("config: STORE_BACKEND must be postgres or memory")
	}

	if cfg.IsProduction() {
		if cfg.AuthzBypass {
			return nil, errors.New("config: AUTHZ_BYPASS must not be true when APP_ENV=production")
		}
		if cfg.StoreBackend == StoreBackendMemory {
			return nil, errors.New("config: STORE_BACKEND=memory must not be used when APP_ENV=production")
		}
	}

	if !v.IsSet("MAX_DEVICES") {
		cfg.MaxDevices = 2
	} else if cfg.MaxDevices < 1 {
		return nil, errors.New("config: MAX_DEVICES must be at least 1")
	}

	cfg.OperatorJWTIssuer = strings.TrimSpace(cfg.OperatorJWTIssuer)
	cfg.OperatorJWTAudience = strings.TrimSpace(cfg.OperatorJWTAudience)
	if cfg.OperatorRoutesEnabled() && (cfg.OperatorJWTIssuer == "" || cfg.OperatorJWTAudience == "") {
		return nil, errors.New("config: OPERATOR_JWT_ISSUER and OPERATOR_JWT_AUDIENCE must be set when OPERATOR_JWT_PUBLIC_KEY is set")
	}

	return &cfg, nil
}

// OperatorRoutesEnabled reports whether the authenticated device and audit routes should be mounted.
func (c *Config) OperatorRoutesEnabled() bool {
	return c != nil && strings.TrimSpace(c.OperatorJWTPublicKey) != ""
}

// IsProduction reports whether APP_ENV names a production environment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// SessionTTL parses SessionTTLRaw as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionTTLRaw)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// AuthzEventsKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the Kafka producer is enabled (non-empty list) and to create it.
func (c *Config) AuthzEventsKafkaBrokersList() []string {
	if c == nil || c.AuthzEventsKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.AuthzEventsKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
