package airtable

import (
	"encoding/json"
	"time"

	"github.com/hackportal/airsync/internal/models"
	"gorm.io/datatypes"
)

// Field mapping from the base's vocabulary to the domain models. Absent fields
// default to zero values; the base omits a field entirely when it is empty.

var actionFlagFields = []string{
	"Send Welcome Email",
	"Send Reminder Email",
	"Send Venue Email",
	"Request More Info",
}

func mapEvent(rec Record, now time.Time) models.Event {
	f := fieldMap(rec.Fields)
	dob := f.str("Date of Birth")

	flags := map[string]bool{}
	for _, name := range actionFlagFields {
		if f.boolean(name) {
			flags[name] = true
		}
	}
	flagJSON, _ := json.Marshal(flags)

	return models.Event{
		AirtableID:         rec.ID,
		Name:               f.str("Name"),
		Email:              f.str("Email"),
		FirstName:          f.str("First Name"),
		LastName:           f.str("Last Name"),
		Phone:              f.str("Phone"),
		DateOfBirth:        dob,
		Age:                ageFromDOB(dob, now),
		Address:            f.str("Address"),
		City:               f.str("City"),
		State:              f.str("State"),
		Zip:                f.str("Zip"),
		Country:            f.str("Country"),
		Latitude:           f.num("Latitude"),
		Longitude:          f.num("Longitude"),
		EstimatedAttendees: int(f.num("Estimated Attendees")),
		Status:             defaultStr(f.str("Status"), models.EventStatusPending),
		VenueConfirmed:     f.boolean("Venue Confirmed"),
		Notes:              f.str("Notes"),
		ActionFlags:        datatypes.JSON(flagJSON),
	}
}

func mapAttendee(rec Record) models.Attendee {
	f := fieldMap(rec.Fields)
	eventIDs := f.strList("Event")

	primary := ""
	if len(eventIDs) > 0 {
		primary = eventIDs[0]
	}
	idsJSON, _ := json.Marshal(eventIDs)

	return models.Attendee{
		AirtableID:      rec.ID,
		EventAirtableID: primary,
		EventIDs:        datatypes.JSON(idsJSON),
		Email:           f.str("Email"),
		FirstName:       f.str("First Name"),
		LastName:        f.str("Last Name"),
	}
}

func mapVenue(rec Record) models.Venue {
	f := fieldMap(rec.Fields)
	return models.Venue{
		AirtableID: rec.ID,
		EventName:  f.str("Event Name"),
		Name:       f.str("Venue Name"),
		Capacity:   int(f.num("Capacity")),
		Address:    f.str("Address"),
		City:       f.str("City"),
		State:      f.str("State"),
		Zip:        f.str("Zip"),
		Confirmed:  f.boolean("Confirmed"),
	}
}

func mapAdmin(rec Record) models.Admin {
	f := fieldMap(rec.Fields)
	id := rec.ID
	if id == "" {
		id = f.str("Email")
	}
	return models.Admin{
		AirtableID: id,
		Email:      f.str("Email"),
		Status:     defaultStr(f.str("Status"), models.AdminStatusInactive),
	}
}

// fieldMap wraps the raw field map with type-coercing accessors.
type fieldMap map[string]any

func (f fieldMap) str(key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

func (f fieldMap) num(key string) float64 {
	if v, ok := f[key].(float64); ok {
		return v
	}
	return 0
}

func (f fieldMap) boolean(key string) bool {
	if v, ok := f[key].(bool); ok {
		return v
	}
	return false
}

func (f fieldMap) strList(key string) []string {
	raw, ok := f[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func defaultStr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// ageFromDOB derives whole years from a YYYY-MM-DD date of birth. Unparseable
// or absent dates yield 0.
func ageFromDOB(dob string, now time.Time) int {
	born, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return 0
	}
	years := now.Year() - born.Year()
	if now.YearDay() < born.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
