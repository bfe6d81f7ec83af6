package allocation

import "github.com/iliyamo/library-seat-reservation/internal/model"

// Occupancy is the presence of the three occupant fields on a sheet. It is
// the sole input to DeriveStatus.
type Occupancy struct {
	FirstHalf bool
	LastHalf  bool
	FullTime  bool
}

// OccupancyOf reads the occupant fields off a sheet. A nil sheet is empty.
func OccupancyOf(s *model.Sheet) Occupancy {
	if s == nil {
		return Occupancy{}
	}
	return Occupancy{
		FirstHalf: s.FirstHalfName != "",
		LastHalf:  s.LastHalfName != "",
		FullTime:  s.FullTimeName != "",
	}
}

// DeriveStatus returns the unique aggregate status consistent with the
// occupancy. It is pure and must be re-run after every occupancy mutation;
// callers never set a sheet's status directly, which keeps the stored
// status from drifting away from the occupant fields.
func DeriveStatus(o Occupancy) model.SheetStatus {
	switch {
	case o.FullTime:
		return model.SheetFull
	case o.FirstHalf && o.LastHalf:
		return model.SheetFull
	case o.FirstHalf || o.LastHalf:
		return model.SheetHalf
	default:
		return model.SheetFree
	}
}

// applySlot writes an occupant name onto the sheet for the given slot and
// re-derives the status. A full-time assignment clears both half fields;
// they cannot coexist with a full-time occupant. When the second half of a
// sheet fills up the status becomes full without synthesizing a combined
// full-time label.
func applySlot(s *model.Sheet, slot model.Slot, name string) {
	switch slot {
	case model.SlotFullTime:
		s.FullTimeName = name
		s.FirstHalfName = ""
		s.LastHalfName = ""
	case model.SlotFirstHalf:
		s.FirstHalfName = name
	case model.SlotLastHalf:
		s.LastHalfName = name
	}
	s.Status = DeriveStatus(OccupancyOf(s))
}

// clearSlot removes the occupant for the given slot and re-derives the
// status from the remaining occupancy.
func clearSlot(s *model.Sheet, slot model.Slot) {
	switch slot {
	case model.SlotFullTime:
		s.FullTimeName = ""
	case model.SlotFirstHalf:
		s.FirstHalfName = ""
	case model.SlotLastHalf:
		s.LastHalfName = ""
	}
	s.Status = DeriveStatus(OccupancyOf(s))
}
