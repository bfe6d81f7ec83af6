package model

// Student is a registered library member. The Slot, SheetNumber and
// ReservationID fields mirror the student's current active reservation and
// are written by the allocation engine as a side effect of reservation
// create/update/delete; they are cleared when the reservation is removed.
type Student struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	FatherName    string `json:"father_name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	Slot          Slot   `json:"slot,omitempty"`
	SheetNumber   int    `json:"sheet_number,omitempty"`
	ReservationID string `json:"reservation_id,omitempty"`
}
