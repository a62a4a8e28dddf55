package domain

import "time"

// AuditLog records one handled request.
type AuditLog struct {
	ID         string    `json:"id"          db:"id"`
	Identity   string    `json:"identity"    db:"identity"`
	Action     string    `json:"action"      db:"action"`
	Path       string    `json:"path"        db:"path"`
	Status     int       `json:"status"      db:"status"`
	DurationMS int64     `json:"duration_ms" db:"duration_ms"`
	IP         string    `json:"ip"          db:"ip"`
	UserAgent  string    `json:"user_agent"  db:"user_agent"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// Audit action constants.
const (
	AuditActionHTTPRequest = "http_request"
	AuditActionMCPCall     = "mcp_call"
)
