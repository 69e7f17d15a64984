package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/hackportal/airsync/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.SyncMetadata{}, &models.SyncError{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewLedger(db), db
}

func TestRecordStepKeepsOneRowPerEntityType(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()

	if err := l.RecordStep(ctx, "run-1", models.EntityEvents, StepSummary{Synced: 5}); err != nil {
		t.Fatal(err)
	}
	if err := l.RecordStep(ctx, "run-2", models.EntityEvents, StepSummary{
		Synced:  3,
		Skipped: 1,
		Errors:  []StepError{{Batch: 0, Message: "batch 0: constraint violation"}},
	}); err != nil {
		t.Fatal(err)
	}

	var count int64
	db.Model(&models.SyncMetadata{}).Count(&count)
	if count != 1 {
		t.Fatalf("metadata rows = %d, want 1 (upsert by entity type)", count)
	}

	var meta models.SyncMetadata
	db.First(&meta, "entity_type = ?", models.EntityEvents)
	if meta.LastStatus != models.SyncStatusPartialFailure {
		t.Fatalf("status = %s", meta.LastStatus)
	}
	if meta.RecordsSynced != 3 || meta.SkippedCount != 1 || meta.ErrorsCount != 1 {
		t.Fatalf("counters not overwritten: %+v", meta)
	}
	if meta.ErrorDetails != "batch 0: constraint violation" {
		t.Fatalf("error details = %q", meta.ErrorDetails)
	}
}

func TestRecordStepAppendsDiagnostics(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()

	for run := 1; run <= 2; run++ {
		err := l.RecordStep(ctx, fmt.Sprintf("run-%d", run), models.EntityAttendees, StepSummary{
			Errors: []StepError{{Batch: -1, Message: "fetch: timeout"}},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	// Summary row is overwritten, the diagnostics log is not.
	var metaCount, errCount int64
	db.Model(&models.SyncMetadata{}).Count(&metaCount)
	db.Model(&models.SyncError{}).Count(&errCount)
	if metaCount != 1 || errCount != 2 {
		t.Fatalf("meta = %d, errors = %d; want 1 and 2", metaCount, errCount)
	}

	rows, err := l.RecentErrors(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].RunID != "run-2" {
		t.Fatalf("recent errors newest-first: %+v", rows)
	}
}

func TestStatusReturnsAllEntityTypes(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	for _, entity := range []string{models.EntityVenues, models.EntityEvents, models.EntityAdmins, models.EntityAttendees} {
		if err := l.RecordStep(ctx, "run-1", entity, StepSummary{Synced: 1}); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := l.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("status rows = %d, want 4", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].EntityType > rows[i].EntityType {
			t.Fatalf("rows not sorted by entity type: %+v", rows)
		}
	}
}
