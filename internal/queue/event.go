// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// Event types published on the seat.events queue.
const (
	EventSeatAllocated = "seat.allocated"
	EventSeatReleased  = "seat.released"
)

// SeatEvent is published whenever the allocation engine changes a sheet's
// occupancy: a reservation is created or fulfilled (allocated) or
// permanently deleted (released). It carries enough information for
// downstream consumers to log or notify without querying the store.
type SeatEvent struct {
	Type          string `json:"type"`
	ReservationID string `json:"reservation_id"`
	StudentID     string `json:"student_id"`
	StudentName   string `json:"student_name"`
	SheetNumber   int    `json:"sheet_number"`
	Slot          string `json:"slot"`
	SheetStatus   string `json:"sheet_status"`
	OccurredAt    string `json:"occurred_at"`
}
