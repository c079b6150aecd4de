package model

import "time"

// Table statuses.  AVAILABLE tables can be held or booked, OCCUPIED
// tables have a seated party, and RESERVED tables are committed to an
// upcoming booking.  Short-lived holds are not a table status – they
// live in Redis with a TTL and overlay this state.
const (
	TableAvailable = "AVAILABLE"
	TableOccupied  = "OCCUPIED"
	TableReserved  = "RESERVED"
)

// Table is one physical table in the dining room.
//
// Fields:
//
//	ID        – primary key identifier.
//	Name      – label printed on the floor plan (e.g. "T12").
//	Seats     – how many guests the table fits.
//	Status    – current status (see constants above).
//	CreatedAt – when the table was created.
//	UpdatedAt – when the table was last changed.
type Table struct {
	ID        uint64    `json:"id"`         // tables.id
	Name      string    `json:"name"`       // tables.name
	Seats     uint32    `json:"seats"`      // tables.seats
	Status    string    `json:"status"`     // tables.status
	CreatedAt time.Time `json:"created_at"` // tables.created_at
	UpdatedAt time.Time `json:"updated_at"` // tables.updated_at
}
