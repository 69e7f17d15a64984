package services

import (
	"context"
	"strings"
	"time"

	"github.com/hackportal/airsync/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StepError is one failure inside an entity-type step. Batch is -1 when the
// whole step failed (e.g. the source fetch).
type StepError struct {
	Batch   int
	Message string
}

// StepSummary is what one entity-type step reports to the ledger.
type StepSummary struct {
	Synced  int
	Skipped int
	Errors  []StepError
}

// Ledger owns the sync_metadata summary table (one current row per entity
// type, overwritten each run) and the append-only sync_errors diagnostics log.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// metadata columns overwritten on conflict, built once.
var metadataUpdateColumns = []string{
	"last_status", "records_synced", "skipped_count", "errors_count", "error_details", "last_sync_at",
}

// RecordStep upserts the entity type's summary row and appends one sync_errors
// row per failure. Failures writing the ledger itself are returned but must
// not abort the pipeline; the caller logs and moves on.
func (l *Ledger) RecordStep(ctx context.Context, runID, entityType string, sum StepSummary) error {
	status := models.SyncStatusSuccess
	if len(sum.Errors) > 0 {
		status = models.SyncStatusPartialFailure
	}

	msgs := make([]string, 0, len(sum.Errors))
	for _, e := range sum.Errors {
		msgs = append(msgs, e.Message)
	}

	meta := models.SyncMetadata{
		EntityType:    entityType,
		LastStatus:    status,
		RecordsSynced: sum.Synced,
		SkippedCount:  sum.Skipped,
		ErrorsCount:   len(sum.Errors),
		ErrorDetails:  strings.Join(msgs, "; "),
		LastSyncAt:    time.Now(),
	}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_type"}},
		DoUpdates: clause.AssignmentColumns(metadataUpdateColumns),
	}).Create(&meta).Error
	if err != nil {
		return err
	}

	for _, e := range sum.Errors {
		row := models.SyncError{
			RunID:      runID,
			EntityType: entityType,
			Batch:      e.Batch,
			Message:    e.Message,
			CreatedAt:  time.Now(),
		}
		if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// Status returns the most recent summary row per entity type.
func (l *Ledger) Status(ctx context.Context) ([]models.SyncMetadata, error) {
	var rows []models.SyncMetadata
	err := l.db.WithContext(ctx).Order("entity_type asc").Find(&rows).Error
	return rows, err
}

// RecentErrors pages through the diagnostics log, newest first.
func (l *Ledger) RecentErrors(ctx context.Context, limit, offset int) ([]models.SyncError, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []models.SyncError
	err := l.db.WithContext(ctx).Order("id desc").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, err
}
