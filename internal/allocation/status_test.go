package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/library-seat-reservation/internal/model"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name string
		occ  Occupancy
		want model.SheetStatus
	}{
		{"empty", Occupancy{}, model.SheetFree},
		{"first half only", Occupancy{FirstHalf: true}, model.SheetHalf},
		{"last half only", Occupancy{LastHalf: true}, model.SheetHalf},
		{"both halves", Occupancy{FirstHalf: true, LastHalf: true}, model.SheetFull},
		{"full time", Occupancy{FullTime: true}, model.SheetFull},
		{"full time dominates halves", Occupancy{FirstHalf: true, FullTime: true}, model.SheetFull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.occ))
		})
	}
}

func TestApplySlotFullTimeClearsHalves(t *testing.T) {
	s := &model.Sheet{SheetNumber: 7, FirstHalfName: "Bob", LastHalfName: "Carol"}
	applySlot(s, model.SlotFullTime, "Alice")

	assert.Equal(t, "Alice", s.FullTimeName)
	assert.Empty(t, s.FirstHalfName)
	assert.Empty(t, s.LastHalfName)
	assert.Equal(t, model.SheetFull, s.Status)
}

func TestApplySlotLastHalfSetsLastHalfName(t *testing.T) {
	// Guards against the last-half assignment writing into the wrong
	// occupant field.
	s := &model.Sheet{SheetNumber: 7}
	applySlot(s, model.SlotLastHalf, "Dana")

	assert.Equal(t, "Dana", s.LastHalfName)
	assert.Empty(t, s.FirstHalfName)
	assert.Empty(t, s.FullTimeName)
	assert.Equal(t, model.SheetHalf, s.Status)
}

func TestClearSlotReDerivesStatus(t *testing.T) {
	s := &model.Sheet{SheetNumber: 7}
	applySlot(s, model.SlotFirstHalf, "Bob")
	applySlot(s, model.SlotLastHalf, "Carol")
	assert.Equal(t, model.SheetFull, s.Status)

	clearSlot(s, model.SlotLastHalf)
	assert.Equal(t, model.SheetHalf, s.Status)
	assert.Equal(t, "Bob", s.FirstHalfName)

	clearSlot(s, model.SlotFirstHalf)
	assert.Equal(t, model.SheetFree, s.Status)
}

func TestStatusAlwaysMatchesOccupancy(t *testing.T) {
	// Status is derived state: after any sequence of apply/clear calls it
	// must equal DeriveStatus of the occupant fields.
	s := &model.Sheet{SheetNumber: 1}
	steps := []func(){
		func() { applySlot(s, model.SlotFirstHalf, "A") },
		func() { applySlot(s, model.SlotLastHalf, "B") },
		func() { clearSlot(s, model.SlotFirstHalf) },
		func() { applySlot(s, model.SlotFullTime, "C") },
		func() { clearSlot(s, model.SlotFullTime) },
	}
	for i, step := range steps {
		step()
		assert.Equal(t, DeriveStatus(OccupancyOf(s)), s.Status, "step %d", i)
	}
}
