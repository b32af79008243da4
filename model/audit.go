package model

import "time"

// AuditEntry is a single append-only security event. Timestamp marshals as
// RFC 3339 (ISO-8601) in the persisted JSON.
type AuditEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Event     string            `json:"event"`
	Details   map[string]string `json:"details,omitempty"`
}
