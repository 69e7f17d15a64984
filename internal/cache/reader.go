package cache

import (
	"context"
	"time"

	"github.com/hackportal/airsync/internal/airtable"
	"github.com/hackportal/airsync/internal/config"
	"github.com/hackportal/airsync/internal/metrics"
	"github.com/hackportal/airsync/internal/models"
)

// Cache keys. Event mutations invalidate the first three.
const (
	keyAllEvents       = "events:all"
	keyOrganizerPrefix = "events:organizer:"
	keyEventPrefix     = "event:"
	keyAdminPrefix     = "admin:"
	keyOrganizerEmails = "organizers:emails"
	keyAllAdmins       = "admins:all"
	keyAllVenues       = "venues:all"
	keyAllAttendees    = "attendees:all"
	keyAttendeesPrefix = "attendees:event:"
)

// CachedReader serves request-path reads through the Store. The sync
// orchestrator must NOT be handed one of these; it takes the bare client so
// its input is never stale.
type CachedReader struct {
	inner airtable.Reader
	store *Store
	ttls  config.CacheConfig
}

var _ airtable.Reader = (*CachedReader)(nil)

func NewCachedReader(inner airtable.Reader, store *Store, ttls config.CacheConfig) *CachedReader {
	return &CachedReader{inner: inner, store: store, ttls: ttls}
}

// cached is the read-through path: hit, or fetch-and-fill.
func cached[T any](store *Store, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	if v, ok := store.Get(key); ok {
		if typed, ok := v.(T); ok {
			metrics.CacheHits.Inc()
			return typed, nil
		}
	}
	metrics.CacheMisses.Inc()
	val, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}
	store.Set(key, val, ttl)
	return val, nil
}

func (r *CachedReader) EventsByOrganizer(ctx context.Context, email string) ([]models.Event, error) {
	return cached(r.store, keyOrganizerPrefix+email, r.ttls.EventTTL, func() ([]models.Event, error) {
		return r.inner.EventsByOrganizer(ctx, email)
	})
}

func (r *CachedReader) AllEvents(ctx context.Context) ([]models.Event, error) {
	return cached(r.store, keyAllEvents, r.ttls.AllEventsTTL, func() ([]models.Event, error) {
		return r.inner.AllEvents(ctx)
	})
}

// EventByID caches found events only; not-found results always re-consult the
// source so a newly created record shows up immediately.
func (r *CachedReader) EventByID(ctx context.Context, id string) (*models.Event, error) {
	return cached(r.store, keyEventPrefix+id, r.ttls.EventTTL, func() (*models.Event, error) {
		return r.inner.EventByID(ctx, id)
	})
}

func (r *CachedReader) AllAdmins(ctx context.Context) ([]models.Admin, error) {
	return cached(r.store, keyAllAdmins, r.ttls.AdminTTL, func() ([]models.Admin, error) {
		return r.inner.AllAdmins(ctx)
	})
}

func (r *CachedReader) AllAttendees(ctx context.Context) ([]models.Attendee, error) {
	return cached(r.store, keyAllAttendees, r.ttls.EventTTL, func() ([]models.Attendee, error) {
		return r.inner.AllAttendees(ctx)
	})
}

func (r *CachedReader) AllVenues(ctx context.Context) ([]models.Venue, error) {
	return cached(r.store, keyAllVenues, r.ttls.EventTTL, func() ([]models.Venue, error) {
		return r.inner.AllVenues(ctx)
	})
}

func (r *CachedReader) AttendeesForEvent(ctx context.Context, eventID string) ([]models.Attendee, error) {
	return cached(r.store, keyAttendeesPrefix+eventID, r.ttls.EventTTL, func() ([]models.Attendee, error) {
		return r.inner.AttendeesForEvent(ctx, eventID)
	})
}

// IsAdmin reports whether email belongs to an admin with elevated access.
// The boolean is cached per email; admin rosters change rarely.
func (r *CachedReader) IsAdmin(ctx context.Context, email string) (bool, error) {
	return cached(r.store, keyAdminPrefix+email, r.ttls.AdminTTL, func() (bool, error) {
		admins, err := r.inner.AllAdmins(ctx)
		if err != nil {
			return false, err
		}
		for _, a := range admins {
			if a.Email == email && a.Status != models.AdminStatusInactive {
				return true, nil
			}
		}
		return false, nil
	})
}

// OrganizerEmails returns the distinct organizer emails across all events,
// used by the magic-link sender. Long TTL; the set changes rarely.
func (r *CachedReader) OrganizerEmails(ctx context.Context) ([]string, error) {
	return cached(r.store, keyOrganizerEmails, r.ttls.OrganizerEmailsTTL, func() ([]string, error) {
		events, err := r.inner.AllEvents(ctx)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{}, len(events))
		var out []string
		for _, ev := range events {
			if ev.Email == "" {
				continue
			}
			if _, dup := seen[ev.Email]; dup {
				continue
			}
			seen[ev.Email] = struct{}{}
			out = append(out, ev.Email)
		}
		return out, nil
	})
}

// InvalidateEventCaches drops every entry an event mutation could have made
// stale. The cache is invalidated, never updated in place: the next read
// repopulates from source, so the cache can't disagree with the base.
func (r *CachedReader) InvalidateEventCaches(eventID, organizerEmail string) {
	r.store.Delete(keyEventPrefix + eventID)
	r.store.Delete(keyOrganizerPrefix + organizerEmail)
	r.store.Delete(keyAllEvents)
	r.store.Delete(keyAttendeesPrefix + eventID)
}
