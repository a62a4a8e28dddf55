package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
)

// maxMemoryAuditLogs bounds the in-memory audit trail; older entries are dropped.
const maxMemoryAuditLogs = 10000

// MemoryStore is a process-local store used when no database is configured.
type MemoryStore struct {
	mu     sync.Mutex
	limits map[string]domain.RateLimitRecord
	audit  []domain.AuditLog
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{limits: make(map[string]domain.RateLimitRecord)}
}

// GetRateLimit returns a copy of the record for identity, or nil.
func (s *MemoryStore) GetRateLimit(_ context.Context, identity string) (*domain.RateLimitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.limits[identity]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// PutRateLimit inserts or replaces the record.
func (s *MemoryStore) PutRateLimit(_ context.Context, rec domain.RateLimitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits[rec.Identity] = rec
	return nil
}

// WriteAudit appends an audit entry.
func (s *MemoryStore) WriteAudit(_ context.Context, e domain.AuditLog) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
	if over := len(s.audit) - maxMemoryAuditLogs; over > 0 {
		s.audit = append(s.audit[:0:0], s.audit[over:]...)
	}
	return nil
}

// ListAuditLogs returns entries newest first, optionally filtered by action.
func (s *MemoryStore) ListAuditLogs(_ context.Context, limit int, action string) ([]domain.AuditLog, error) {
	s.mu.Lock()
	out := make([]domain.AuditLog, 0, len(s.audit))
	for _, e := range s.audit {
		if action == "" || e.Action == action {
			out = append(out, e)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
