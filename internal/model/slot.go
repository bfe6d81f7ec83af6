package model

// Slot is the time window a reservation occupies on a sheet. It is a
// closed enumeration: a sheet is booked either for the whole day or for
// one of its two half-day windows. Code that branches on a Slot should
// switch over all three constants so that the compatibility rules stay
// exhaustive.
type Slot string

const (
	SlotFullTime  Slot = "full_time"
	SlotFirstHalf Slot = "first_half"
	SlotLastHalf  Slot = "last_half"
)

// ParseSlot validates a raw slot string and returns the typed value.
func ParseSlot(s string) (Slot, bool) {
	switch Slot(s) {
	case SlotFullTime, SlotFirstHalf, SlotLastHalf:
		return Slot(s), true
	}
	return "", false
}

// Valid reports whether the slot is one of the three known values.
func (s Slot) Valid() bool {
	_, ok := ParseSlot(string(s))
	return ok
}

// SheetStatus is the aggregate occupancy of a sheet. It is always derived
// from the occupant name fields and never stored independently of them.
type SheetStatus string

const (
	SheetFree SheetStatus = "free"
	SheetHalf SheetStatus = "half"
	SheetFull SheetStatus = "full"
)
