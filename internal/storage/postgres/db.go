package postgres

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/avast/retry-go"
	_ "github.com/lib/pq"
)

// DatabaseConfig holds the database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// DSN renders the lib/pq key=value connection string. Values are quoted so
// spaces and quotes in credentials survive.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		quoteDSN(c.Host),
		c.Port,
		quoteDSN(c.Database),
		quoteDSN(c.User),
		quoteDSN(c.Password),
	)
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quoteDSN(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}

// OpenDatabase opens a connection pool and verifies it with a ping.
func OpenDatabase(config DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The console writes one audit row per operator action; a small pool is plenty.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	// the database may still be starting when the console comes up
	err = retry.Do(db.Ping,
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Successfully connected to PostgreSQL database: %s", config.Database)

	// Schema is managed by migrations; see migrations/001_console_audit_log.sql
	return db, nil
}
