package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/library-seat-reservation/internal/model"
)

func TestCheckAvailabilityNilSheet(t *testing.T) {
	for _, slot := range []model.Slot{model.SlotFullTime, model.SlotFirstHalf, model.SlotLastHalf} {
		av := CheckAvailability(nil, slot)
		assert.True(t, av.Available, "slot %s", slot)
		assert.Empty(t, av.Reason)
	}
}

func TestCheckAvailabilityFullTime(t *testing.T) {
	free := &model.Sheet{SheetNumber: 1, Status: model.SheetFree}
	assert.True(t, CheckAvailability(free, model.SlotFullTime).Available)

	half := &model.Sheet{SheetNumber: 1, Status: model.SheetHalf, FirstHalfName: "Bob"}
	av := CheckAvailability(half, model.SlotFullTime)
	assert.False(t, av.Available)
	assert.Equal(t, ReasonSheetOccupied, av.Reason)

	full := &model.Sheet{SheetNumber: 1, Status: model.SheetFull, FullTimeName: "Alice"}
	av = CheckAvailability(full, model.SlotFullTime)
	assert.False(t, av.Available)
	assert.Equal(t, ReasonSheetOccupied, av.Reason)
}

func TestCheckAvailabilityHalves(t *testing.T) {
	s := &model.Sheet{SheetNumber: 1, Status: model.SheetHalf, FirstHalfName: "Bob"}

	av := CheckAvailability(s, model.SlotFirstHalf)
	assert.False(t, av.Available)
	assert.Equal(t, ReasonFirstHalfTaken, av.Reason)

	// The complementary half is still open.
	assert.True(t, CheckAvailability(s, model.SlotLastHalf).Available)

	s = &model.Sheet{SheetNumber: 1, Status: model.SheetHalf, LastHalfName: "Carol"}
	av = CheckAvailability(s, model.SlotLastHalf)
	assert.False(t, av.Available)
	assert.Equal(t, ReasonLastHalfTaken, av.Reason)
	assert.True(t, CheckAvailability(s, model.SlotFirstHalf).Available)
}

func TestCheckAvailabilityHalfAgainstFullTimeOccupant(t *testing.T) {
	// A full-time occupant blocks both halves with the occupied reason,
	// not the half-specific one.
	s := &model.Sheet{SheetNumber: 1, Status: model.SheetFull, FullTimeName: "Alice"}

	for _, slot := range []model.Slot{model.SlotFirstHalf, model.SlotLastHalf} {
		av := CheckAvailability(s, slot)
		assert.False(t, av.Available, "slot %s", slot)
		assert.Equal(t, ReasonSheetOccupied, av.Reason)
	}
}
