// Package workers holds the Airtable→Postgres sync pipeline.
package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hackportal/airsync/internal/airtable"
	"github.com/hackportal/airsync/internal/config"
	"github.com/hackportal/airsync/internal/metrics"
	"github.com/hackportal/airsync/internal/models"
	"github.com/hackportal/airsync/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrAlreadyRunning is the message reported to a manual trigger that lost the
// race against an active run.
const ErrAlreadyRunning = "sync already in progress"

// Result is what every PerformFullSync call returns. It is always a value,
// never a propagated error: health-check callers need to render partial
// success, not catch panics.
type Result struct {
	RunID         string   `json:"runId"`
	Success       bool     `json:"success"`
	RecordsSynced int      `json:"recordsSynced"`
	Skipped       int      `json:"skipped"`
	Errors        []string `json:"errors"`
	DurationMs    int64    `json:"durationMs"`
}

// Orchestrator runs the four-step sync pipeline. At most one pipeline
// executes at a time: overlapping timer ticks are dropped, overlapping manual
// triggers get an explicit already-in-progress result.
//
// The reader must be an uncached client. Syncing from the read-through cache
// would bound the mirror's freshness by the cache TTL instead of the sync
// interval.
type Orchestrator struct {
	db     *gorm.DB
	reader airtable.Reader
	ledger *services.Ledger
	log    *zap.Logger

	interval       time.Duration
	batchSize      int
	adminBatchSize int
	stmtTimeout    time.Duration

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs an orchestrator. It performs no I/O and starts no timer;
// call Start from the bootstrap.
func New(db *gorm.DB, reader airtable.Reader, ledger *services.Ledger, cfg config.SyncConfig, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		db:             db,
		reader:         reader,
		ledger:         ledger,
		log:            log,
		interval:       cfg.Interval,
		batchSize:      cfg.BatchSize,
		adminBatchSize: cfg.AdminBatchSize,
		stmtTimeout:    cfg.StatementTimeout,
	}
}

// Start launches the periodic trigger. A tick that lands while a run is
// active is dropped, not queued: missed ticks are never replayed.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})

	go func() {
		defer close(o.done)
		ticker := time.NewTicker(o.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if o.running.Load() {
					metrics.DroppedTicks.Inc()
					o.log.Debug("sync tick dropped, run in progress")
					continue
				}
				res := o.PerformFullSync(ctx)
				if !res.Success {
					o.log.Warn("periodic sync finished with errors",
						zap.String("run_id", res.RunID), zap.Strings("errors", res.Errors))
				}
			}
		}
	}()
	o.log.Info("periodic sync started", zap.Duration("interval", o.interval))
}

// Stop halts the periodic trigger and waits for the loop to exit. An
// in-flight run finishes on its own context.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	o.log.Info("periodic sync stopped")
}

// IsRunning reports whether a pipeline is executing right now.
func (o *Orchestrator) IsRunning() bool {
	return o.running.Load()
}

// Status returns the ledger's current row per entity type.
func (o *Orchestrator) Status(ctx context.Context) ([]models.SyncMetadata, error) {
	return o.ledger.Status(ctx)
}

// PerformFullSync runs the pipeline once: venues, events, admins, attendees,
// strictly in that order. Attendee rows need their event present in the
// mirror, and events read venue-derived fields, so the order is a correctness
// invariant, not a preference. Every step runs even when an earlier one
// failed; errors aggregate bottom-up instead of aborting.
func (o *Orchestrator) PerformFullSync(ctx context.Context) Result {
	if !o.running.CompareAndSwap(false, true) {
		return Result{Success: false, Errors: []string{ErrAlreadyRunning}}
	}
	defer o.running.Store(false)

	metrics.SyncRuns.Inc()
	metrics.Running.Set(1)
	defer metrics.Running.Set(0)

	runID := uuid.NewString()
	start := time.Now()
	o.log.Info("sync run starting", zap.String("run_id", runID))

	res := Result{RunID: runID, Errors: []string{}}

	steps := []struct {
		entity string
		run    func(context.Context) services.StepSummary
	}{
		{models.EntityVenues, o.syncVenues},
		{models.EntityEvents, o.syncEvents},
		{models.EntityAdmins, o.syncAdmins},
		{models.EntityAttendees, o.syncAttendees},
	}

	for _, step := range steps {
		sum := step.run(ctx)
		o.record(ctx, runID, step.entity, sum)

		res.RecordsSynced += sum.Synced
		res.Skipped += sum.Skipped
		for _, e := range sum.Errors {
			res.Errors = append(res.Errors, step.entity+": "+e.Message)
		}
	}

	res.Success = len(res.Errors) == 0
	res.DurationMs = time.Since(start).Milliseconds()
	metrics.RunDuration.Observe(time.Since(start).Seconds())

	o.log.Info("sync run finished",
		zap.String("run_id", runID),
		zap.Bool("success", res.Success),
		zap.Int("records_synced", res.RecordsSynced),
		zap.Int("skipped", res.Skipped),
		zap.Int("errors", len(res.Errors)),
		zap.Int64("duration_ms", res.DurationMs),
	)
	return res
}

// record writes the step's ledger row. Ledger failures are logged, not
// escalated; completed steps' metadata must survive later failures.
func (o *Orchestrator) record(ctx context.Context, runID, entity string, sum services.StepSummary) {
	metrics.RecordsSynced.WithLabelValues(entity).Add(float64(sum.Synced))
	metrics.RecordsSkipped.WithLabelValues(entity).Add(float64(sum.Skipped))
	metrics.SyncErrors.WithLabelValues(entity).Add(float64(len(sum.Errors)))

	if err := o.ledger.RecordStep(ctx, runID, entity, sum); err != nil {
		o.log.Warn("ledger write failed", zap.String("entity", entity), zap.Error(err))
	}
}
