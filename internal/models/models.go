package models

import (
	"time"

	"gorm.io/datatypes"
)

// Entity type names, also the sync_metadata keys.
const (
	EntityEvents    = "events"
	EntityAdmins    = "admins"
	EntityAttendees = "attendees"
	EntityVenues    = "venues"
)

// Event triage statuses. Status governs visibility in the portal.
const (
	EventStatusPending        = "pending"
	EventStatusApproved       = "approved"
	EventStatusRejected       = "rejected"
	EventStatusHold           = "hold"
	EventStatusAsk            = "ask"
	EventStatusMergeConfirmed = "merge_confirmed"
)

// Admin statuses.
const (
	AdminStatusActive   = "active"
	AdminStatusAdmin    = "admin"
	AdminStatusInactive = "inactive"
)

// ---------------- EVENTS ----------------
// Event mirrors one hackathon event record. AirtableID is the join key used
// everywhere; the sync path is the only writer of this table.
type Event struct {
	ID                 uint           `gorm:"primaryKey;autoIncrement" json:"-"`
	AirtableID         string         `gorm:"uniqueIndex;not null" json:"airtableId"`
	Name               string         `gorm:"index" json:"name"`
	Email              string         `gorm:"index;not null" json:"email"`
	FirstName          string         `json:"firstName"`
	LastName           string         `json:"lastName"`
	Phone              string         `json:"phone"`
	DateOfBirth        string         `json:"dateOfBirth"`
	Age                int            `json:"age"`
	Address            string         `json:"address"`
	City               string         `json:"city"`
	State              string         `json:"state"`
	Zip                string         `json:"zip"`
	Country            string         `json:"country"`
	Latitude           float64        `json:"latitude"`
	Longitude          float64        `json:"longitude"`
	EstimatedAttendees int            `json:"estimatedAttendees"`
	Status             string         `gorm:"index;default:pending" json:"status"`
	VenueConfirmed     bool           `json:"venueConfirmed"`
	Notes              string         `json:"notes"`
	ActionFlags        datatypes.JSON `json:"actionFlags"` // email-automation triggers, opaque to sync
	SyncedAt           time.Time      `json:"syncedAt"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// ---------------- ATTENDEES ----------------
// Attendee mirrors one registrant. EventAirtableID must reference an event row
// already present in the mirror; orphans are dropped during sync.
type Attendee struct {
	ID              uint           `gorm:"primaryKey;autoIncrement" json:"-"`
	AirtableID      string         `gorm:"uniqueIndex;not null" json:"airtableId"`
	EventAirtableID string         `gorm:"index;not null" json:"eventAirtableId"`
	EventIDs        datatypes.JSON `json:"eventIds"` // raw reference list from the source
	Email           string         `gorm:"index" json:"email"`
	FirstName       string         `json:"firstName"`
	LastName        string         `json:"lastName"`
	SyncedAt        time.Time      `json:"syncedAt"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// ---------------- VENUES ----------------
// Venue joins to Event on event name, not id; that is how the source base
// links the two tables.
type Venue struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	AirtableID string    `gorm:"uniqueIndex;not null" json:"airtableId"`
	EventName  string    `gorm:"index" json:"eventName"`
	Name       string    `json:"name"`
	Capacity   int       `json:"capacity"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Zip        string    `json:"zip"`
	Confirmed  bool      `json:"confirmed"`
	SyncedAt   time.Time `json:"syncedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ---------------- ADMINS ----------------
type Admin struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	AirtableID string    `gorm:"uniqueIndex;not null" json:"airtableId"` // falls back to email when the source id is absent
	Email      string    `gorm:"index;not null" json:"email"`
	Status     string    `gorm:"default:inactive" json:"status"`
	SyncedAt   time.Time `json:"syncedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ---------------- SYNC METADATA ----------------
// SyncMetadata keeps exactly one current row per entity type, overwritten on
// every run. Skips are data-quality gaps and are counted apart from errors.
type SyncMetadata struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	EntityType    string    `gorm:"uniqueIndex;not null" json:"entityType"`
	LastStatus    string    `json:"lastStatus"` // success | partial_failure
	RecordsSynced int       `json:"recordsSynced"`
	SkippedCount  int       `json:"skippedCount"`
	ErrorsCount   int       `json:"errorsCount"`
	ErrorDetails  string    `json:"errorDetails"`
	LastSyncAt    time.Time `json:"lastSyncAt"`
}

// Sync step statuses recorded in SyncMetadata.LastStatus.
const (
	SyncStatusSuccess        = "success"
	SyncStatusPartialFailure = "partial_failure"
)
