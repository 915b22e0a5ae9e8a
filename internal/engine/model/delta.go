package model

import "time"

// TrailerDelta is a typed, partial update to a trailer record. Nil fields
// are absent from the delta and never erase what the store already holds;
// merging is last-writer-wins per field, not per record.
type TrailerDelta struct {
	ID          TrailerID
	PlateNumber *string
	Name        *string
	Company     *string
	Status      *TrailerStatus
	Position    *Position

	EngineRunning    *bool
	NetworkAvailable *bool

	LastLogin          *time.Time
	Permissions        map[Permission]bool
	CameraInstallDates map[CameraID]time.Time
}

// StripVolatile clears the fields for which only REST snapshot fetches are
// authoritative. Push-sourced trailer records must not overwrite them.
func (d *TrailerDelta) StripVolatile() {
	d.Position = nil
	d.Permissions = nil
}
