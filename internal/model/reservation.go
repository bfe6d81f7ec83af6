package model

// ReservationStatus tracks the lifecycle of a booking. Cancellation and
// the soft-delete flag are independent: a cancelled reservation is still
// active in the is_active sense until it is deleted.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation links a student to a sheet for a slot and date range.
//
// Fields:
//  ID              – document identifier, assigned at creation.
//  StudentID       – reference to the requesting student.
//  StudentName     – denormalized display name written onto the sheet.
//  SheetNumber     – target seat.
//  Slot            – time window occupied on the sheet.
//  StartDate       – first day of the booking (RFC 3339 date string).
//  EndDate         – optional last day; set on fulfillment completion.
//  Status          – active, completed or cancelled.
//  IsActive        – soft-delete flag, independent of Status.
//  ReservationDate – when the booking was made.
type Reservation struct {
	ID              string            `json:"id"`
	StudentID       string            `json:"student_id"`
	StudentName     string            `json:"student_name"`
	SheetNumber     int               `json:"sheet_number"`
	Slot            Slot              `json:"slot"`
	StartDate       string            `json:"start_date"`
	EndDate         string            `json:"end_date,omitempty"`
	Status          ReservationStatus `json:"status"`
	IsActive        bool              `json:"is_active"`
	ReservationDate string            `json:"reservation_date"`
}
