package services

import (
	"context"

	"github.com/hackportal/airsync/internal/airtable"
	"github.com/hackportal/airsync/internal/cache"
	"github.com/hackportal/airsync/internal/models"
	"go.uber.org/zap"
)

// EventService is the write path for event edits. Updates go to the source
// base first; the cache is invalidated, not updated, so the next read
// repopulates from source and the cache never disagrees with the base. The
// mirror itself picks the change up on the next sync run.
type EventService struct {
	source *airtable.Client
	cache  *cache.CachedReader
	log    *zap.Logger
}

func NewEventService(source *airtable.Client, cached *cache.CachedReader, log *zap.Logger) *EventService {
	return &EventService{source: source, cache: cached, log: log}
}

// UpdateEvent patches fields on the source record and drops the affected
// cache entries. Returns the refreshed event read back from source.
func (s *EventService) UpdateEvent(ctx context.Context, id string, fields map[string]any) (*models.Event, error) {
	if err := s.source.UpdateRecord(ctx, airtable.TableEvents, id, fields); err != nil {
		return nil, err
	}

	// Re-read from source, not cache: we need the post-update state and the
	// organizer email for invalidation.
	ev, err := s.source.EventByID(ctx, id)
	if err != nil {
		// Update landed but the read-back failed; invalidate by id anyway.
		s.cache.InvalidateEventCaches(id, "")
		return nil, err
	}

	s.cache.InvalidateEventCaches(id, ev.Email)
	s.log.Info("event updated", zap.String("airtable_id", id), zap.String("organizer", ev.Email))
	return ev, nil
}
