package models

import "time"

// SyncError is the append-only diagnostics log behind sync_metadata. One row
// per failed step or batch, retained for ad-hoc triage; never overwritten.
type SyncError struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID      string    `gorm:"index" json:"runId"`
	EntityType string    `gorm:"index" json:"entityType"`
	Batch      int       `json:"batch"` // -1 for step-level failures
	Message    string    `json:"message"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
}
