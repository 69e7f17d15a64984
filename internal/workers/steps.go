package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hackportal/airsync/internal/models"
	"github.com/hackportal/airsync/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Per-entity column lists for the upsert's DO UPDATE set, built once. The
// primary key and created_at are never overwritten; everything mirrored from
// the source is, plus the synced_at stamp.
var (
	venueUpdateColumns = []string{
		"event_name", "name", "capacity", "address", "city", "state", "zip",
		"confirmed", "synced_at", "updated_at",
	}
	eventUpdateColumns = []string{
		"name", "email", "first_name", "last_name", "phone", "date_of_birth",
		"age", "address", "city", "state", "zip", "country", "latitude",
		"longitude", "estimated_attendees", "status", "venue_confirmed",
		"notes", "action_flags", "synced_at", "updated_at",
	}
	adminUpdateColumns = []string{
		"email", "status", "synced_at", "updated_at",
	}
	attendeeUpdateColumns = []string{
		"event_airtable_id", "event_ids", "email", "first_name", "last_name",
		"synced_at", "updated_at",
	}
)

func (o *Orchestrator) syncVenues(ctx context.Context) services.StepSummary {
	var sum services.StepSummary
	venues, err := o.reader.AllVenues(ctx)
	if err != nil {
		sum.Errors = append(sum.Errors, services.StepError{Batch: -1, Message: fmt.Sprintf("fetch: %v", err)})
		return sum
	}

	valid := venues[:0:0]
	for _, v := range venues {
		if v.AirtableID == "" {
			o.log.Warn("venue without source id skipped", zap.String("event_name", v.EventName))
			sum.Skipped++
			continue
		}
		valid = append(valid, v)
	}
	runBatches(ctx, o, models.EntityVenues, valid, o.batchSize, venueUpdateColumns, &sum)
	return sum
}

func (o *Orchestrator) syncEvents(ctx context.Context) services.StepSummary {
	var sum services.StepSummary
	events, err := o.reader.AllEvents(ctx)
	if err != nil {
		sum.Errors = append(sum.Errors, services.StepError{Batch: -1, Message: fmt.Sprintf("fetch: %v", err)})
		return sum
	}

	// Organizer email is the identity the whole portal keys on; an event
	// without one is not mirrorable. It stays in the source and gets another
	// chance next run.
	valid := events[:0:0]
	for _, ev := range events {
		if ev.AirtableID == "" || ev.Email == "" {
			o.log.Warn("event without organizer email skipped",
				zap.String("airtable_id", ev.AirtableID), zap.String("name", ev.Name))
			sum.Skipped++
			continue
		}
		valid = append(valid, ev)
	}
	runBatches(ctx, o, models.EntityEvents, valid, o.batchSize, eventUpdateColumns, &sum)
	return sum
}

func (o *Orchestrator) syncAdmins(ctx context.Context) services.StepSummary {
	var sum services.StepSummary
	admins, err := o.reader.AllAdmins(ctx)
	if err != nil {
		sum.Errors = append(sum.Errors, services.StepError{Batch: -1, Message: fmt.Sprintf("fetch: %v", err)})
		return sum
	}

	valid := admins[:0:0]
	for _, a := range admins {
		if a.Email == "" {
			o.log.Warn("admin without email skipped", zap.String("airtable_id", a.AirtableID))
			sum.Skipped++
			continue
		}
		valid = append(valid, a)
	}
	runBatches(ctx, o, models.EntityAdmins, valid, o.adminBatchSize, adminUpdateColumns, &sum)
	return sum
}

// syncAttendees runs last. Each attendee must reference an event already in
// the mirror; orphans (event unsynced or deleted) are dropped with a warning
// rather than inserted with a dangling reference.
func (o *Orchestrator) syncAttendees(ctx context.Context) services.StepSummary {
	var sum services.StepSummary
	attendees, err := o.reader.AllAttendees(ctx)
	if err != nil {
		sum.Errors = append(sum.Errors, services.StepError{Batch: -1, Message: fmt.Sprintf("fetch: %v", err)})
		return sum
	}

	known, err := o.mirroredEventIDs(ctx)
	if err != nil {
		sum.Errors = append(sum.Errors, services.StepError{Batch: -1, Message: fmt.Sprintf("load mirrored event ids: %v", err)})
		return sum
	}

	valid := attendees[:0:0]
	for _, a := range attendees {
		switch {
		case a.AirtableID == "" || a.EventAirtableID == "":
			o.log.Warn("attendee without event reference skipped", zap.String("airtable_id", a.AirtableID))
			sum.Skipped++
		case !known[a.EventAirtableID]:
			o.log.Warn("attendee references event missing from mirror, skipped",
				zap.String("airtable_id", a.AirtableID), zap.String("event_airtable_id", a.EventAirtableID))
			sum.Skipped++
		default:
			valid = append(valid, a)
		}
	}
	runBatches(ctx, o, models.EntityAttendees, valid, o.batchSize, attendeeUpdateColumns, &sum)
	return sum
}

func (o *Orchestrator) mirroredEventIDs(ctx context.Context) (map[string]bool, error) {
	var ids []string
	if err := o.db.WithContext(ctx).Model(&models.Event{}).Pluck("airtable_id", &ids).Error; err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return known, nil
}

// runBatches partitions rows and upserts each batch on its own statement
// timeout. A failed batch is recorded and the loop continues; partial success
// within a step is expected, not escalated.
func runBatches[T any](ctx context.Context, o *Orchestrator, entity string, rows []T, batchSize int, updateCols []string, sum *services.StepSummary) {
	if batchSize <= 0 {
		batchSize = 50
	}
	for i, n := 0, 0; i < len(rows); i, n = i+batchSize, n+1 {
		end := min(i+batchSize, len(rows))
		batch := rows[i:end]

		bctx, cancel := context.WithTimeout(ctx, o.stmtTimeout)
		err := upsertBatch(bctx, o.db, batch, updateCols)
		cancel()

		if err != nil {
			sum.Errors = append(sum.Errors, services.StepError{
				Batch:   n,
				Message: fmt.Sprintf("batch %d (%d rows): %v", n, len(batch), err),
			})
			o.log.Error("batch upsert failed",
				zap.String("entity", entity), zap.Int("batch", n), zap.Error(err))
			continue
		}
		sum.Synced += len(batch)
	}
}

// upsertBatch is the idempotent write: insert, or on airtable_id conflict
// overwrite every mirrored column. Last writer wins; the mirror is sync-owned
// and no other process writes these tables.
func upsertBatch[T any](ctx context.Context, db *gorm.DB, batch []T, updateCols []string) error {
	stampSyncedAt(batch)
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "airtable_id"}},
		DoUpdates: clause.AssignmentColumns(updateCols),
	}).Create(&batch).Error
}

func stampSyncedAt[T any](batch []T) {
	now := time.Now()
	for i := range batch {
		switch row := any(&batch[i]).(type) {
		case *models.Event:
			row.SyncedAt = now
		case *models.Attendee:
			row.SyncedAt = now
		case *models.Venue:
			row.SyncedAt = now
		case *models.Admin:
			row.SyncedAt = now
		}
	}
}
