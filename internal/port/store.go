package port

import (
	"context"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
)

// RateLimitStore persists per-identity request counters.
// Get and Put are separate operations; callers composing them get no atomicity.
type RateLimitStore interface {
	// GetRateLimit returns the record for identity, or nil if none exists.
	GetRateLimit(ctx context.Context, identity string) (*domain.RateLimitRecord, error)

	// PutRateLimit inserts or replaces the record.
	PutRateLimit(ctx context.Context, rec domain.RateLimitRecord) error
}

// AuditStore persists and lists audit records.
type AuditStore interface {
	WriteAudit(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error)
}
