package allocation

import "github.com/iliyamo/library-seat-reservation/internal/model"

// Rejection reasons surfaced to clients by CheckAvailability.
const (
	ReasonSheetOccupied  = "Sheet is already partially or fully occupied"
	ReasonFirstHalfTaken = "First half is already taken"
	ReasonLastHalfTaken  = "Last half is already taken"
)

// Availability is the outcome of a compatibility check. Reason is set only
// on rejection.
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// CheckAvailability evaluates whether the requested slot can be assigned
// given the sheet's current record. A nil sheet means the seat has never
// been touched and is always available. A full-time request needs the
// whole sheet free; a half request needs its own window free and no
// full-time occupant.
//
// Callers editing a reservation that already owns the target (sheet, slot)
// pair must bypass this check entirely, otherwise the reservation's own
// occupancy reads as a false "already taken" rejection. That bypass lives
// in UpdateReservation.
func CheckAvailability(sheet *model.Sheet, slot model.Slot) Availability {
	if sheet == nil {
		return Availability{Available: true}
	}
	switch slot {
	case model.SlotFullTime:
		if sheet.Status != model.SheetFree {
			return Availability{Reason: ReasonSheetOccupied}
		}
	case model.SlotFirstHalf:
		if sheet.FullTimeName != "" {
			return Availability{Reason: ReasonSheetOccupied}
		}
		if sheet.FirstHalfName != "" {
			return Availability{Reason: ReasonFirstHalfTaken}
		}
	case model.SlotLastHalf:
		if sheet.FullTimeName != "" {
			return Availability{Reason: ReasonSheetOccupied}
		}
		if sheet.LastHalfName != "" {
			return Availability{Reason: ReasonLastHalfTaken}
		}
	}
	return Availability{Available: true}
}
