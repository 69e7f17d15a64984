package db

import (
	"github.com/hackportal/airsync/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the mirror schema. Venues and events come before
// attendees so the reference tables exist first.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Venue{},
		&models.Event{},
		&models.Admin{},
		&models.Attendee{},
		&models.SyncMetadata{},
		&models.SyncError{},
	)
}
