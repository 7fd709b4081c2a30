package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"time"
)

// AuditRow is one persisted operator action.
type AuditRow struct {
	ID         string
	Action     string
	OrderID    int64
	Path       string
	Outcome    string
	Message    string
	ErrKind    string
	OccurredAt time.Time
}

// Repository is a thin wrapper around *sql.DB intended for dependency injection.
type Repository struct {
	DB     *sql.DB
	logger *log.Logger
}

func NewRepository(db *sql.DB, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Repository{DB: db, logger: logger}
}

// InsertAuditRow stores an operator action. Re-inserting the same id is a no-op.
func (r *Repository) InsertAuditRow(ctx context.Context, row AuditRow) error {
	if r == nil || r.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	query := `
        INSERT INTO console_audit_log (id, action, order_id, path, outcome, message, err_kind, occurred_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO NOTHING
    `
	if _, err := r.DB.ExecContext(ctx, query,
		row.ID, row.Action, row.OrderID, row.Path, row.Outcome, row.Message, row.ErrKind, row.OccurredAt,
	); err != nil {
		return fmt.Errorf("failed to insert audit row: %w", err)
	}
	r.logger.Printf("[DB] Recorded %s for order %d (%s)", row.Action, row.OrderID, row.Outcome)
	return nil
}

// RecentAuditRows returns the latest rows for an order, newest first.
func (r *Repository) RecentAuditRows(ctx context.Context, orderID int64, limit int) ([]AuditRow, error) {
	if r == nil || r.DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, action, order_id, path, outcome, COALESCE(message,''), COALESCE(err_kind,''), occurred_at
        FROM console_audit_log
        WHERE order_id = $1
        ORDER BY occurred_at DESC
        LIMIT $2`, orderID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit rows: %w", err)
	}
	defer rows.Close()

	var out []AuditRow
	for rows.Next() {
		var row AuditRow
		if err := rows.Scan(&row.ID, &row.Action, &row.OrderID, &row.Path, &row.Outcome, &row.Message, &row.ErrKind, &row.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
