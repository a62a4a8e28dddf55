package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
)

// PostgresStore persists rate-limit counters and audit logs.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS rate_limits (
	identity      TEXT PRIMARY KEY,
	request_count INTEGER NOT NULL DEFAULT 0,
	window_start  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id          UUID PRIMARY KEY,
	identity    TEXT NOT NULL DEFAULT '',
	action      TEXT NOT NULL,
	path        TEXT NOT NULL DEFAULT '',
	status      INTEGER NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	ip          TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs (action);
`

// EnsureSchema creates the tables used by the store if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// --- Rate limits ---

// GetRateLimit returns the record for identity, or nil if there is none.
func (s *PostgresStore) GetRateLimit(ctx context.Context, identity string) (*domain.RateLimitRecord, error) {
	query := `SELECT identity, request_count, window_start FROM rate_limits WHERE identity = $1`

	var rec domain.RateLimitRecord
	err := s.db.QueryRowContext(ctx, query, identity).Scan(&rec.Identity, &rec.RequestCount, &rec.WindowStart)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rate limit: %w", err)
	}
	return &rec, nil
}

// PutRateLimit inserts or replaces the record for rec.Identity.
func (s *PostgresStore) PutRateLimit(ctx context.Context, rec domain.RateLimitRecord) error {
	query := `
		INSERT INTO rate_limits (identity, request_count, window_start)
		VALUES ($1, $2, $3)
		ON CONFLICT (identity) DO UPDATE SET
			request_count = EXCLUDED.request_count,
			window_start = EXCLUDED.window_start`

	if _, err := s.db.ExecContext(ctx, query, rec.Identity, rec.RequestCount, rec.WindowStart); err != nil {
		return fmt.Errorf("put rate limit: %w", err)
	}
	return nil
}

// --- Audit Logs ---

// WriteAudit implements port.AuditStore.
func (s *PostgresStore) WriteAudit(ctx context.Context, e domain.AuditLog) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO audit_logs (id, identity, action, path, status, duration_ms, ip, user_agent, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Identity, e.Action, e.Path, e.Status, e.DurationMS, e.IP, e.UserAgent, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// ListAuditLogs returns recent audit logs, newest first, optionally filtered
// by action.
func (s *PostgresStore) ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error) {
	query := `SELECT id, identity, action, path, status, duration_ms, ip, user_agent, created_at
	          FROM audit_logs`
	args := []interface{}{}
	argIdx := 1

	if action != "" {
		query += fmt.Sprintf(" WHERE action = $%d", argIdx)
		args = append(args, action)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(
			&l.ID, &l.Identity, &l.Action, &l.Path, &l.Status,
			&l.DurationMS, &l.IP, &l.UserAgent, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
