package domain

import "time"

// RateLimitRecord tracks requests made by one identity in the current window.
type RateLimitRecord struct {
	Identity     string    `json:"identity"      db:"identity"`
	RequestCount int       `json:"request_count" db:"request_count"`
	WindowStart  time.Time `json:"window_start"  db:"window_start"`
}
