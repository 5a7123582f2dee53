package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 24*time.Hour, cfg.MaxTokenLifetime)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Hour, cfg.Pending.MaxAge)
	assert.Equal(t, "hearth.audit", cfg.KafkaTopic)
	assert.Empty(t, cfg.Redis.URL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HEARTH_ADDR", ":9999")
	t.Setenv("HEARTH_SESSION_TTL", "1h")
	t.Setenv("HEARTH_KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("HEARTH_REDIS_POOL_SIZE", "25")

	cfg := FromEnv()

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 25, cfg.Redis.PoolSize)
}

func TestFromEnv_IgnoresBadValues(t *testing.T) {
	t.Setenv("HEARTH_SESSION_TTL", "not-a-duration")
	t.Setenv("HEARTH_REDIS_POOL_SIZE", "-3")

	cfg := FromEnv()

	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
