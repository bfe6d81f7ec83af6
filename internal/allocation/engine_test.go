package allocation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()
	st := store.NewMemory()
	return New(st), st
}

func seedStudent(t *testing.T, st store.Store, id, name string) {
	t.Helper()
	_, err := st.Create(context.Background(), CollectionStudents, id, map[string]any{"name": name})
	require.NoError(t, err)
}

func loadSheet(t *testing.T, st store.Store, number int) *model.Sheet {
	t.Helper()
	doc, err := st.FindByField(context.Background(), CollectionSheets, FieldSheetNumber, number)
	require.NoError(t, err)
	return SheetFromDoc(doc)
}

func createInput(studentID, name string, sheet int, slot model.Slot) CreateReservationInput {
	return CreateReservationInput{
		StudentID:   studentID,
		StudentName: name,
		SheetNumber: sheet,
		Slot:        slot,
		StartDate:   "2026-09-01",
	}
}

func TestCreateReservationFullTime(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, st, "stu-1", "Alice")

	res := e.CreateReservation(ctx, createInput("stu-1", "Alice", 10, model.SlotFullTime))
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Reservation created successfully", res.Message)
	require.NotNil(t, res.Data)
	assert.Equal(t, model.ReservationActive, res.Data.Status)
	assert.True(t, res.Data.IsActive)
	assert.NotEmpty(t, res.Data.ReservationDate)

	sheet := loadSheet(t, st, 10)
	assert.Equal(t, model.SheetFull, sheet.Status)
	assert.Equal(t, "Alice", sheet.FullTimeName)
	assert.True(t, sheet.IsActive)

	stu, err := st.Get(ctx, CollectionStudents, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, string(model.SlotFullTime), stu.String("slot"))
	assert.Equal(t, 10, stu.Int(FieldSheetNumber))
	assert.Equal(t, res.Data.ID, stu.String("reservation_id"))
}

func TestCreateReservationValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	cases := []CreateReservationInput{
		{},
		createInput("", "Alice", 1, model.SlotFullTime),
		createInput("stu-1", "", 1, model.SlotFullTime),
		createInput("stu-1", "Alice", 0, model.SlotFullTime),
		createInput("stu-1", "Alice", 1, model.Slot("weekend")),
		{StudentID: "stu-1", StudentName: "Alice", SheetNumber: 1, Slot: model.SlotFullTime},
	}
	for i, in := range cases {
		res := e.CreateReservation(ctx, in)
		assert.False(t, res.Success, "case %d", i)
		assert.Equal(t, KindValidation, res.Kind, "case %d", i)
		assert.Equal(t, "Please fill in all required fields", res.Message, "case %d", i)
	}
}

func TestHalfSlotCombination(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, st, "stu-bob", "Bob")
	seedStudent(t, st, "stu-carol", "Carol")
	seedStudent(t, st, "stu-dan", "Dan")

	res := e.CreateReservation(ctx, createInput("stu-bob", "Bob", 3, model.SlotFirstHalf))
	require.True(t, res.Success)
	assert.Equal(t, model.SheetHalf, loadSheet(t, st, 3).Status)

	res = e.CreateReservation(ctx, createInput("stu-carol", "Carol", 3, model.SlotLastHalf))
	require.True(t, res.Success)

	sheet := loadSheet(t, st, 3)
	assert.Equal(t, model.SheetFull, sheet.Status)
	assert.Equal(t, "Bob", sheet.FirstHalfName)
	assert.Equal(t, "Carol", sheet.LastHalfName)
	// Two halves never collapse into a synthesized full-time occupant.
	assert.Empty(t, sheet.FullTimeName)

	res = e.CreateReservation(ctx, createInput("stu-dan", "Dan", 3, model.SlotFullTime))
	assert.False(t, res.Success)
	assert.Equal(t, KindConflict, res.Kind)
	assert.Equal(t, ReasonSheetOccupied, res.Message)
}

func TestCreateReservationDoubleBookingRace(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	const n = 16
	for i := 0; i < n; i++ {
		seedStudent(t, st, studentID(i), "Racer")
	}

	var wg sync.WaitGroup
	results := make([]Result[*model.Reservation], n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.CreateReservation(ctx, createInput(studentID(i), "Racer", 42, model.SlotFullTime))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, r := range results {
		if r.Success {
			wins++
		} else {
			assert.Equal(t, KindConflict, r.Kind)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent create may win the slot")

	docs, err := st.List(ctx, CollectionReservations)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func studentID(i int) string {
	return "racer-" + string(rune('a'+i))
}

func TestUpdateReservationSamePairLeavesSheetAlone(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, st, "stu-1", "Alice")

	created := e.CreateReservation(ctx, createInput("stu-1", "Alice", 5, model.SlotFirstHalf))
	require.True(t, created.Success)
	before := loadSheet(t, st, 5)

	res := e.UpdateReservation(ctx, UpdateReservationInput{
		ReservationID:       created.Data.ID,
		StudentID:           "stu-1",
		StudentName:         "Alice",
		SheetNumber:         5,
		Slot:                model.SlotFirstHalf,
		StartDate:           "2026-09-02",
		EndDate:             "2026-09-30",
		PreviousSheetNumber: 5,
		PreviousSlot:        model.SlotFirstHalf,
	})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "2026-09-02", res.Data.StartDate)

	// Editing dates on an unchanged (sheet, slot) pair must not trip over
	// the reservation's own occupancy or rewrite the sheet.
	after := loadSheet(t, st, 5)
	assert.Equal(t, before, after)
}

func TestUpdateReservationMoveSlotWithinSheet(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, st, "stu-1", "Alice")

	created := e.CreateReservation(ctx, createInput("stu-1", "Alice", 5, model.SlotFirstHalf))
	require.True(t, created.Success)

	res := e.UpdateReservation(ctx, UpdateReservationInput{
		ReservationID:       created.Data.ID,
		StudentID:           "stu-1",
		StudentName:         "Alice",
		SheetNumber:         5,
		Slot:                model.SlotLastHalf,
		StartDate:           "2026-09-01",
		PreviousSheetNumber: 5,
		PreviousSlot:        model.SlotFirstHalf,
	})
	require.True(t, res.Success, res.Message)

	sheet := loadSheet(t, st, 5)
	assert.Empty(t, sheet.FirstHalfName)
	assert.Equal(t, "Alice", sheet.LastHalfName)
	assert.Equal(t, model.SheetHalf, sheet.Status)
}

func TestUpdateReservationMoveBetweenSheets(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, st, "stu-1", "Alice")

	created := e.CreateReservation(ctx, createInput("stu-1", "Alice", 5, model.SlotFullTime))
	require.True(t, created.Success)

	res := e.UpdateReservation(ctx, UpdateReservationInput{
		ReservationID:       created.Data.ID,
		StudentID:           "stu-1",
		StudentName:         "Alice",
		SheetNumber:         6,
		Slot:                model.SlotFullTime,
		StartDate:           "2026-09-01",
		PreviousSheetNumber: 5,
		PreviousSlot:        model.SlotFullTime,
	})
	require.True(t, res.Success, res.Message)

	old := loadSheet(t, st, 5)
	assert.Equal(t, model.SheetFree, old.Status)
	assert.Empty(t, old.FullTimeName)

	moved := loadSheet(t, st, 6)
	assert.Equal(t, model.SheetFull, moved.Status)
	assert.Equal(t, "Alice", moved.FullTimeName)

	stu, err := st.Get(ctx, CollectionStudents, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 6, stu.Int(FieldSheetNumber))
}

func TestUpdateReservationTargetTaken(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, st, "stu-1", "Alice")
	seedStudent(t, st, "stu-2", "Bob")

	require.True(t, e.CreateReservation(ctx, createInput("stu-2", "Bob", 6, model.SlotFullTime)).Success)
	created := e.CreateReservation(ctx, createInput("stu-1", "Alice", 5, model.SlotFullTime))
	require.True(t, created.Success)

	res := e.UpdateReservation(ctx, UpdateReservationInput{
		ReservationID:       created.Data.ID,
		StudentID:           "stu-1",
		StudentName:         "Alice",
		SheetNumber:         6,
		Slot:                model.SlotFullTime,
		StartDate:           "2026-09-01",
		PreviousSheetNumber: 5,
		PreviousSlot:        model.SlotFullTime,
	})
	assert.False(t, res.Success)
	assert.Equal(t, KindConflict, res.Kind)

	// The rejected move must not have released the original seat.
	assert.Equal(t, "Alice", loadSheet(t, st, 5).FullTimeName)
}

func TestFulfillReservation(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, st, "stu-1", "Alice")

	created := e.CreateReservation(ctx, createInput("stu-1", "Alice", 8, model.SlotFirstHalf))
	require.True(t, created.Success)

	// Own occupancy is deliberately not exempted: the first half is now
	// taken by this very reservation, so fulfilling it conflicts.
	res := e.FulfillReservation(ctx, created.Data.ID)
	assert.False(t, res.Success)
	assert.Equal(t, KindConflict, res.Kind)
	assert.Equal(t, ReasonFirstHalfTaken, res.Message)

	// Free the seat, then fulfill succeeds.
	require.NoError(t, e.releaseSlot(ctx, 8, model.SlotFirstHalf))
	res = e.FulfillReservation(ctx, created.Data.ID)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, model.ReservationCompleted, res.Data.Status)
	assert.NotEmpty(t, res.Data.EndDate)
	assert.Equal(t, "Alice", loadSheet(t, st, 8).FirstHalfName)
}

func TestFulfillReservationNotFound(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.FulfillReservation(context.Background(), "missing")
	assert.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.Kind)
}

func TestCancelKeepsSheetOccupied(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, st, "stu-1", "Alice")

	created := e.CreateReservation(ctx, createInput("stu-1", "Alice", 9, model.SlotFullTime))
	require.True(t, created.Success)

	res := e.CancelReservation(ctx, created.Data.ID)
	require.True(t, res.Success)
	assert.Equal(t, model.ReservationCancelled, res.Data.Status)
	assert.True(t, res.Data.IsActive)

	// Cancellation does not release the slot; only deletion does.
	sheet := loadSheet(t, st, 9)
	assert.Equal(t, model.SheetFull, sheet.Status)
	assert.Equal(t, "Alice", sheet.FullTimeName)

	// A new booking on the seat still fails after cancellation.
	seedStudent(t, st, "stu-2", "Bob")
	blocked := e.CreateReservation(ctx, createInput("stu-2", "Bob", 9, model.SlotFullTime))
	assert.False(t, blocked.Success)
	assert.Equal(t, KindConflict, blocked.Kind)

	// Fulfilling the cancelled reservation still runs the availability
	// check and conflicts with its own never-released occupancy.
	fulfilled := e.FulfillReservation(ctx, created.Data.ID)
	assert.False(t, fulfilled.Success)
	assert.Equal(t, KindConflict, fulfilled.Kind)
	assert.Equal(t, ReasonSheetOccupied, fulfilled.Message)
}

func TestSoftDeleteKeepsSlot(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, st, "stu-1", "Alice")

	created := e.CreateReservation(ctx, createInput("stu-1", "Alice", 11, model.SlotFullTime))
	require.True(t, created.Success)

	res := e.DeleteReservation(ctx, created.Data.ID, true)
	require.True(t, res.Success)
	assert.Equal(t, "Reservation moved to trash", res.Message)
	assert.False(t, res.Data.IsActive)

	// Trashed reservations can be restored, so the seat stays held and
	// the record remains in the store.
	assert.Equal(t, model.SheetFull, loadSheet(t, st, 11).Status)
	_, err := st.Get(ctx, CollectionReservations, created.Data.ID)
	assert.NoError(t, err)
}

func TestHardDeleteFreesSheetAndClearsStudent(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, st, "stu-1", "Alice")

	created := e.CreateReservation(ctx, createInput("stu-1", "Alice", 12, model.SlotFullTime))
	require.True(t, created.Success)

	res := e.DeleteReservation(ctx, created.Data.ID, false)
	require.True(t, res.Success)
	assert.Equal(t, "Reservation deleted", res.Message)

	_, err := st.Get(ctx, CollectionReservations, created.Data.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	sheet := loadSheet(t, st, 12)
	assert.Equal(t, model.SheetFree, sheet.Status)
	assert.Empty(t, sheet.FullTimeName)

	stu, err := st.Get(ctx, CollectionStudents, "stu-1")
	require.NoError(t, err)
	assert.Empty(t, stu.String("reservation_id"))
	assert.Empty(t, stu.String("slot"))
	assert.Zero(t, stu.Int(FieldSheetNumber))

	// Freed seat is immediately bookable again.
	seedStudent(t, st, "stu-2", "Bob")
	assert.True(t, e.CreateReservation(ctx, createInput("stu-2", "Bob", 12, model.SlotFullTime)).Success)
}

func TestCreateReservationStudentMissing(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	res := e.CreateReservation(ctx, createInput("ghost", "Ghost", 13, model.SlotFullTime))
	assert.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.Kind)
	assert.Equal(t, "reservation saved but student record not found", res.Message)

	// Partial failure: the reservation and sheet writes stay applied.
	docs, err := st.List(ctx, CollectionReservations)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, model.SheetFull, loadSheet(t, st, 13).Status)
}
