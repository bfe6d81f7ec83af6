package model

// Sheet represents a physical library seat identified by its number.
// Sheet records are created lazily: a record only materializes the first
// time a reservation touches that seat number, and it is never deleted —
// releasing a slot just clears the occupant field and re-derives Status.
//
// Fields:
//  ID            – document identifier in the store.
//  SheetNumber   – positive, unique, stable identity for the seat.
//  Status        – derived aggregate occupancy (free, half, full).
//  FirstHalfName – occupant display name for the first half-day window.
//  LastHalfName  – occupant display name for the last half-day window.
//  FullTimeName  – occupant display name when booked for the whole day.
//  IsActive      – true once the record has been materialized.
type Sheet struct {
	ID            string      `json:"id"`
	SheetNumber   int         `json:"sheet_number"`
	Status        SheetStatus `json:"status"`
	FirstHalfName string      `json:"first_half_name,omitempty"`
	LastHalfName  string      `json:"last_half_name,omitempty"`
	FullTimeName  string      `json:"full_time_name,omitempty"`
	IsActive      bool        `json:"is_active"`
}
