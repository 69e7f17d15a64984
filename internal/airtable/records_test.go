package airtable

import (
	"testing"
	"time"

	"github.com/hackportal/airsync/internal/models"
)

var mapNow = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func TestMapEventTranslatesFields(t *testing.T) {
	rec := Record{
		ID: "ev1",
		Fields: map[string]any{
			"Name":                "Hack A",
			"Email":               "a@x.com",
			"First Name":          "Ada",
			"Last Name":           "Lovelace",
			"Date of Birth":       "2000-03-10",
			"City":                "Austin",
			"Latitude":            30.27,
			"Longitude":           -97.74,
			"Estimated Attendees": float64(120),
			"Status":              "approved",
			"Venue Confirmed":     true,
			"Send Welcome Email":  true,
		},
	}

	ev := mapEvent(rec, mapNow)
	if ev.AirtableID != "ev1" || ev.Name != "Hack A" || ev.Email != "a@x.com" {
		t.Fatalf("identity fields: %+v", ev)
	}
	if ev.Age != 26 {
		t.Fatalf("age = %d, want 26", ev.Age)
	}
	if ev.EstimatedAttendees != 120 || ev.Latitude != 30.27 {
		t.Fatalf("numeric fields: %+v", ev)
	}
	if ev.Status != models.EventStatusApproved || !ev.VenueConfirmed {
		t.Fatalf("status fields: %+v", ev)
	}
	if string(ev.ActionFlags) != `{"Send Welcome Email":true}` {
		t.Fatalf("action flags = %s", ev.ActionFlags)
	}
}

func TestMapEventDefaultsAbsentFields(t *testing.T) {
	ev := mapEvent(Record{ID: "ev2", Fields: map[string]any{}}, mapNow)
	if ev.Email != "" || ev.Age != 0 || ev.Latitude != 0 {
		t.Fatalf("absent fields must default to zero: %+v", ev)
	}
	if ev.Status != models.EventStatusPending {
		t.Fatalf("status = %q, want pending default", ev.Status)
	}
}

func TestMapAttendeePrimaryReference(t *testing.T) {
	at := mapAttendee(Record{
		ID:     "at1",
		Fields: map[string]any{"Event": []any{"ev1", "ev2"}, "Email": "p@x.com"},
	})
	if at.EventAirtableID != "ev1" {
		t.Fatalf("primary event ref = %q, want first list entry", at.EventAirtableID)
	}
	if string(at.EventIDs) != `["ev1","ev2"]` {
		t.Fatalf("raw reference list = %s", at.EventIDs)
	}

	orphan := mapAttendee(Record{ID: "at2", Fields: map[string]any{"Email": "q@x.com"}})
	if orphan.EventAirtableID != "" {
		t.Fatalf("missing reference must map to empty, got %q", orphan.EventAirtableID)
	}
}

func TestMapAdminFallsBackToEmailID(t *testing.T) {
	a := mapAdmin(Record{ID: "", Fields: map[string]any{"Email": "root@x.com", "Status": "admin"}})
	if a.AirtableID != "root@x.com" {
		t.Fatalf("id fallback = %q, want email", a.AirtableID)
	}
	if a.Status != models.AdminStatusAdmin {
		t.Fatalf("status = %q", a.Status)
	}

	b := mapAdmin(Record{ID: "ad1", Fields: map[string]any{"Email": "x@x.com"}})
	if b.Status != models.AdminStatusInactive {
		t.Fatalf("absent status must default inactive, got %q", b.Status)
	}
}

func TestAgeFromDOB(t *testing.T) {
	cases := []struct {
		dob  string
		want int
	}{
		{"2000-03-10", 26},
		{"2000-12-31", 25}, // birthday later this year
		{"not-a-date", 0},
		{"", 0},
		{"2030-01-01", 0}, // future DOB clamps to 0
	}
	for _, tc := range cases {
		if got := ageFromDOB(tc.dob, mapNow); got != tc.want {
			t.Errorf("ageFromDOB(%q) = %d, want %d", tc.dob, got, tc.want)
		}
	}
}
