package airtable

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hackportal/airsync/internal/models"
)

// Reader is the typed view of the source base consumed by the sync
// orchestrator and, behind the cache wrapper, by request-serving code.
// The orchestrator must be wired to a bare *Client so its reads always hit
// the source; stale input would defeat the point of syncing.
type Reader interface {
	EventsByOrganizer(ctx context.Context, email string) ([]models.Event, error)
	AllEvents(ctx context.Context) ([]models.Event, error)
	EventByID(ctx context.Context, id string) (*models.Event, error)
	AllAdmins(ctx context.Context) ([]models.Admin, error)
	AllAttendees(ctx context.Context) ([]models.Attendee, error)
	AllVenues(ctx context.Context) ([]models.Venue, error)
	AttendeesForEvent(ctx context.Context, eventID string) ([]models.Attendee, error)
}

var _ Reader = (*Client)(nil)

// EventsByOrganizer returns the organizer's events, name ascending.
func (c *Client) EventsByOrganizer(ctx context.Context, email string) ([]models.Event, error) {
	recs, err := c.listRecords(ctx, TableEvents, listOptions{
		filterByFormula: fmt.Sprintf(`{Email} = "%s"`, escapeFormula(email)),
		sortField:       "Name",
	})
	if err != nil {
		return nil, err
	}
	return c.mapEvents(recs), nil
}

// AllEvents returns every event, name ascending.
func (c *Client) AllEvents(ctx context.Context) ([]models.Event, error) {
	recs, err := c.listRecords(ctx, TableEvents, listOptions{sortField: "Name"})
	if err != nil {
		return nil, err
	}
	return c.mapEvents(recs), nil
}

// EventByID returns one event, or ErrNotFound.
func (c *Client) EventByID(ctx context.Context, id string) (*models.Event, error) {
	rec, err := c.getRecord(ctx, TableEvents, id)
	if err != nil {
		return nil, err
	}
	ev := mapEvent(*rec, time.Now())
	return &ev, nil
}

func (c *Client) AllAdmins(ctx context.Context) ([]models.Admin, error) {
	recs, err := c.listRecords(ctx, TableAdmins, listOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]models.Admin, 0, len(recs))
	for _, rec := range recs {
		out = append(out, mapAdmin(rec))
	}
	return out, nil
}

func (c *Client) AllAttendees(ctx context.Context) ([]models.Attendee, error) {
	recs, err := c.listRecords(ctx, TableAttendees, listOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]models.Attendee, 0, len(recs))
	for _, rec := range recs {
		out = append(out, mapAttendee(rec))
	}
	return out, nil
}

func (c *Client) AllVenues(ctx context.Context) ([]models.Venue, error) {
	recs, err := c.listRecords(ctx, TableVenues, listOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]models.Venue, 0, len(recs))
	for _, rec := range recs {
		out = append(out, mapVenue(rec))
	}
	return out, nil
}

// AttendeesForEvent filters by membership of eventID in the attendee's event
// reference list, not just the primary reference.
func (c *Client) AttendeesForEvent(ctx context.Context, eventID string) ([]models.Attendee, error) {
	all, err := c.AllAttendees(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Attendee
	for _, a := range all {
		if attendeeReferences(a, eventID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func attendeeReferences(a models.Attendee, eventID string) bool {
	if a.EventAirtableID == eventID {
		return true
	}
	return strings.Contains(string(a.EventIDs), fmt.Sprintf("%q", eventID))
}

func (c *Client) mapEvents(recs []Record) []models.Event {
	now := time.Now()
	out := make([]models.Event, 0, len(recs))
	for _, rec := range recs {
		out = append(out, mapEvent(rec, now))
	}
	// The base sorts for us, but keep the ordering guarantee local too.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// escapeFormula makes s safe inside a double-quoted formula string literal.
func escapeFormula(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
