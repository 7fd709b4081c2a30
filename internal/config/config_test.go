package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVICE_NAME", "BACKEND_BASE_URL", "BACKEND_TIMEOUT", "BACKEND_COOKIE",
		"KAFKA_BROKERS", "KAFKA_AUDIT_TOPIC", "AUDIT_DB_ENABLED", "OTEL_ENABLED",
		"ORDER_DB_HOST", "ORDER_DB_PORT", "ORDER_DB_NAME", "ORDER_DB_USER", "ORDER_DB_PASSWORD",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "order-fulfillment-console", cfg.ServiceName)
	assert.Equal(t, "http://127.0.0.1:5000", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "console.audit.v1", cfg.Kafka.AuditTopic)
	assert.False(t, cfg.Audit.DBEnabled)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://panel.example.com/")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("AUDIT_DB_ENABLED", "true")
	t.Setenv("ORDER_DB_PORT", "6543")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://panel.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Audit.DBEnabled)
	assert.Equal(t, 6543, cfg.Database.Port)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "timeout", key: "BACKEND_TIMEOUT", val: "soon"},
		{name: "negative_timeout", key: "BACKEND_TIMEOUT", val: "-1s"},
		{name: "db_port", key: "ORDER_DB_PORT", val: "pg"},
		{name: "audit_flag", key: "AUDIT_DB_ENABLED", val: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
