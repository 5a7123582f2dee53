package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr string

	// Signing secrets for the consent token keyring. The previous secret is
	// optional and kept only through a rotation window.
	SigningSecret         string
	PreviousSigningSecret string

	MaxTokenLifetime time.Duration
	SessionTTL       time.Duration

	Pending PendingConfig
	Redis   RedisConfig

	PostgresDSN string

	KafkaBrokers []string
	KafkaTopic   string

	Identity IdentityConfig

	HeartbeatInterval time.Duration
}

// PendingConfig tunes the consent request workflow.
type PendingConfig struct {
	MaxAge        time.Duration
	Retention     time.Duration
	TokenLifetime time.Duration
	SweepInterval time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis
// and the process falls back to in-memory stores.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IdentityConfig describes the upstream identity provider whose assertions
// are accepted at login.
type IdentityConfig struct {
	SharedKey string
	Issuer    string
	Audience  string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:                  envString("HEARTH_ADDR", ":8080"),
		SigningSecret:         envString("HEARTH_SIGNING_SECRET", "dev-secret-change-in-production"),
		PreviousSigningSecret: os.Getenv("HEARTH_PREVIOUS_SIGNING_SECRET"),
		MaxTokenLifetime:      envDuration("HEARTH_MAX_TOKEN_LIFETIME", 24*time.Hour),
		SessionTTL:            envDuration("HEARTH_SESSION_TTL", 12*time.Hour),
		Pending: PendingConfig{
			MaxAge:        envDuration("HEARTH_PENDING_MAX_AGE", time.Hour),
			Retention:     envDuration("HEARTH_PENDING_RETENTION", 30*24*time.Hour),
			TokenLifetime: envDuration("HEARTH_APPROVED_TOKEN_LIFETIME", time.Hour),
			SweepInterval: envDuration("HEARTH_PENDING_SWEEP_INTERVAL", time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("HEARTH_REDIS_URL"),
			PoolSize:     envInt("HEARTH_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("HEARTH_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("HEARTH_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("HEARTH_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("HEARTH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		PostgresDSN:  os.Getenv("HEARTH_POSTGRES_DSN"),
		KafkaBrokers: envList("HEARTH_KAFKA_BROKERS"),
		KafkaTopic:   envString("HEARTH_KAFKA_AUDIT_TOPIC", "hearth.audit"),
		Identity: IdentityConfig{
			SharedKey: envString("HEARTH_IDENTITY_SHARED_KEY", "dev-identity-key-change-in-production"),
			Issuer:    envString("HEARTH_IDENTITY_ISSUER", "hearth-idp"),
			Audience:  envString("HEARTH_IDENTITY_AUDIENCE", "hearth"),
		},
		HeartbeatInterval: envDuration("HEARTH_EVENT_HEARTBEAT_INTERVAL", 25*time.Second),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
