package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	postgres "github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/storage/postgres"
)

// Config aggregates runtime configuration grouped by concern.
type Config struct {
	ServiceName string
	Backend     BackendConfig
	Kafka       KafkaConfig
	Audit       AuditConfig
	Database    postgres.DatabaseConfig
	Telemetry   TelemetryConfig
}

// BackendConfig points the console at the admin panel backend.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
	// Cookie is forwarded verbatim as the ambient session.
	Cookie string
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

type AuditConfig struct {
	DBEnabled bool
}

type TelemetryConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables, applying sensible defaults.
// A .env file in the working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", "order-fulfillment-console"),
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://127.0.0.1:5000"), "/"),
			Cookie:  getEnv("BACKEND_COOKIE", ""),
		},
		Kafka: KafkaConfig{
			Brokers:    splitAndTrim(getEnv("KAFKA_BROKERS", "")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "console.audit.v1"),
		},
	}

	timeout, err := time.ParseDuration(getEnv("BACKEND_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BACKEND_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("BACKEND_TIMEOUT must be positive, got %s", timeout)
	}
	cfg.Backend.Timeout = timeout

	dbEnabled, err := strconv.ParseBool(getEnv("AUDIT_DB_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AUDIT_DB_ENABLED: %w", err)
	}
	cfg.Audit.DBEnabled = dbEnabled

	otelEnabled, err := strconv.ParseBool(getEnv("OTEL_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse OTEL_ENABLED: %w", err)
	}
	cfg.Telemetry.Enabled = otelEnabled

	portStr := getEnv("ORDER_DB_PORT", "5432")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Config{}, fmt.Errorf("parse ORDER_DB_PORT: %w", err)
	}

	cfg.Database = postgres.DatabaseConfig{
		Host:     getEnv("ORDER_DB_HOST", "localhost"),
		Port:     port,
		Database: getEnv("ORDER_DB_NAME", "fulfillment"),
		User:     getEnv("ORDER_DB_USER", "console"),
		Password: getEnv("ORDER_DB_PASSWORD", ""),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
