package allocation

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/store"
)

// msgRequiredFields is returned for any operation missing a required input
// field. Validation happens before any I/O.
const msgRequiredFields = "Please fill in all required fields"

// Engine performs the allocation transitions across the sheets,
// reservations and students collections. It owns no HTTP or transport
// concerns; handlers wrap its results.
type Engine struct {
	store store.Store
	locks *sheetLocks
	now   func() time.Time
}

// New returns an Engine bound to the given store.
func New(st store.Store) *Engine {
	return &Engine{
		store: st,
		locks: newSheetLocks(),
		now:   time.Now,
	}
}

// findSheet loads the sheet record for a seat number. A seat that has never
// been reserved has no record; that is reported as a nil sheet, not an
// error. More than one record for the same number is a data corruption the
// engine refuses to guess its way around.
func (e *Engine) findSheet(ctx context.Context, number int) (*model.Sheet, error) {
	doc, err := e.store.FindByField(ctx, CollectionSheets, FieldSheetNumber, number)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sheetFromDoc(doc), nil
}

// upsertSheet creates the sheet record on first touch and updates it
// afterwards. Materialized records always carry is_active=true.
func (e *Engine) upsertSheet(ctx context.Context, sheet *model.Sheet) error {
	sheet.IsActive = true
	if sheet.ID == "" {
		sheet.ID = store.NewID()
		_, err := e.store.Create(ctx, CollectionSheets, sheet.ID, sheetFields(sheet))
		return err
	}
	_, err := e.store.Update(ctx, CollectionSheets, sheet.ID, sheetFields(sheet))
	return err
}

// CreateReservationInput carries the fields required to book a slot.
type CreateReservationInput struct {
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	SheetNumber int        `json:"sheet_number"`
	Slot        model.Slot `json:"slot"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
}

// CreateReservation books a slot on a sheet for a student. On success the
// reservation record is created, the sheet's occupant fields and derived
// status are upserted, and the assignment is mirrored onto the student.
// A failure after the first write is reported as-is; earlier writes stay
// applied because the store offers no transaction to roll them back.
func (e *Engine) CreateReservation(ctx context.Context, in CreateReservationInput) Result[*model.Reservation] {
	if in.StudentID == "" || in.StudentName == "" || in.StartDate == "" || in.SheetNumber <= 0 || !in.Slot.Valid() {
		return fail[*model.Reservation](KindValidation, msgRequiredFields, nil)
	}

	unlock := e.locks.acquire(in.SheetNumber)
	defer unlock()

	sheet, err := e.findSheet(ctx, in.SheetNumber)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fail[*model.Reservation](KindIntegrity, "multiple sheet records share the same number", err)
		}
		return fail[*model.Reservation](KindUpstream, "failed to look up sheet", err)
	}
	if av := CheckAvailability(sheet, in.Slot); !av.Available {
		return fail[*model.Reservation](KindConflict, av.Reason, nil)
	}

	res := &model.Reservation{
		ID:              store.NewID(),
		StudentID:       in.StudentID,
		StudentName:     in.StudentName,
		SheetNumber:     in.SheetNumber,
		Slot:            in.Slot,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		Status:          model.ReservationActive,
		IsActive:        true,
		ReservationDate: e.now().UTC().Format(time.RFC3339),
	}
	if _, err := e.store.Create(ctx, CollectionReservations, res.ID, reservationFields(res)); err != nil {
		return fail[*model.Reservation](KindUpstream, "failed to create reservation", err)
	}

	if sheet == nil {
		sheet = &model.Sheet{SheetNumber: in.SheetNumber}
	}
	applySlot(sheet, in.Slot, in.StudentName)
	if err := e.upsertSheet(ctx, sheet); err != nil {
		return fail[*model.Reservation](KindUpstream, "reservation created but sheet update failed", err)
	}

	if err := e.mirrorStudent(ctx, in.StudentID, in.Slot, in.SheetNumber, res.ID); err != nil {
		return e.studentMirrorFailure(err)
	}
	return ok(res, "Reservation created successfully")
}

// UpdateReservationInput carries the edited reservation plus the previous
// (sheet, slot) pair so the engine can reconcile side effects. Editing is
// modeled as "clear effects of the old pair, then apply the new pair".
type UpdateReservationInput struct {
	ReservationID       string     `json:"reservation_id"`
	StudentID           string     `json:"student_id"`
	StudentName         string     `json:"student_name"`
	SheetNumber         int        `json:"sheet_number"`
	Slot                model.Slot `json:"slot"`
	StartDate           string     `json:"start_date"`
	EndDate             string     `json:"end_date"`
	PreviousSheetNumber int        `json:"previous_sheet_number"`
	PreviousSlot        model.Slot `json:"previous_slot"`
}

// UpdateReservation edits a reservation. When the (sheet, slot) pair is
// unchanged the availability check and the clearing step are skipped
// entirely, so editing unrelated fields such as dates never disturbs sheet
// state and never trips over the reservation's own occupancy.
func (e *Engine) UpdateReservation(ctx context.Context, in UpdateReservationInput) Result[*model.Reservation] {
	if in.ReservationID == "" || in.StudentID == "" || in.StudentName == "" ||
		in.SheetNumber <= 0 || in.StartDate == "" || !in.Slot.Valid() {
		return fail[*model.Reservation](KindValidation, msgRequiredFields, nil)
	}

	hadPrevious := in.PreviousSheetNumber > 0 && in.PreviousSlot.Valid()
	samePair := hadPrevious && in.PreviousSheetNumber == in.SheetNumber && in.PreviousSlot == in.Slot

	if !samePair {
		var unlock func()
		if hadPrevious {
			unlock = e.locks.acquirePair(in.PreviousSheetNumber, in.SheetNumber)
		} else {
			unlock = e.locks.acquire(in.SheetNumber)
		}
		defer unlock()

		target, err := e.findSheet(ctx, in.SheetNumber)
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return fail[*model.Reservation](KindIntegrity, "multiple sheet records share the same number", err)
			}
			return fail[*model.Reservation](KindUpstream, "failed to look up sheet", err)
		}
		if av := CheckAvailability(target, in.Slot); !av.Available {
			return fail[*model.Reservation](KindConflict, av.Reason, nil)
		}

		if hadPrevious && in.PreviousSheetNumber == in.SheetNumber {
			// Slot moved within one sheet: clear and reassign on the same
			// record with a single write.
			if target == nil {
				target = &model.Sheet{SheetNumber: in.SheetNumber}
			}
			clearSlot(target, in.PreviousSlot)
			applySlot(target, in.Slot, in.StudentName)
			if err := e.upsertSheet(ctx, target); err != nil {
				return fail[*model.Reservation](KindUpstream, "failed to update sheet", err)
			}
		} else {
			if hadPrevious {
				if err := e.releaseSlot(ctx, in.PreviousSheetNumber, in.PreviousSlot); err != nil {
					return fail[*model.Reservation](KindUpstream, "failed to release previous sheet", err)
				}
			}
			if target == nil {
				target = &model.Sheet{SheetNumber: in.SheetNumber}
			}
			applySlot(target, in.Slot, in.StudentName)
			if err := e.upsertSheet(ctx, target); err != nil {
				return fail[*model.Reservation](KindUpstream, "failed to update sheet", err)
			}
		}
	}

	fields := map[string]any{
		"student_id":     in.StudentID,
		"student_name":   in.StudentName,
		FieldSheetNumber: in.SheetNumber,
		"slot":           string(in.Slot),
		"start_date":     in.StartDate,
		"end_date":       in.EndDate,
	}
	doc, err := e.store.Update(ctx, CollectionReservations, in.ReservationID, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail[*model.Reservation](KindNotFound, "reservation not found", err)
		}
		return fail[*model.Reservation](KindUpstream, "failed to update reservation", err)
	}

	if err := e.mirrorStudent(ctx, in.StudentID, in.Slot, in.SheetNumber, in.ReservationID); err != nil {
		return e.studentMirrorFailure(err)
	}
	return ok(reservationFromDoc(doc), "Reservation updated successfully")
}

// FulfillReservation converts a pending reservation into a checked-in seat
// assignment. Availability is re-checked against the sheet's current
// record because the slot may have been taken through another path since
// the reservation was made; the check is deliberately not exempted for the
// reservation's own occupancy.
func (e *Engine) FulfillReservation(ctx context.Context, reservationID string) Result[*model.Reservation] {
	doc, err := e.store.Get(ctx, CollectionReservations, reservationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail[*model.Reservation](KindNotFound, "reservation not found", err)
		}
		return fail[*model.Reservation](KindUpstream, "failed to load reservation", err)
	}
	res := reservationFromDoc(doc)

	unlock := e.locks.acquire(res.SheetNumber)
	defer unlock()

	sheet, err := e.findSheet(ctx, res.SheetNumber)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fail[*model.Reservation](KindIntegrity, "multiple sheet records share the same number", err)
		}
		return fail[*model.Reservation](KindUpstream, "failed to look up sheet", err)
	}
	if av := CheckAvailability(sheet, res.Slot); !av.Available {
		return fail[*model.Reservation](KindConflict, av.Reason, nil)
	}

	if err := e.mirrorStudent(ctx, res.StudentID, res.Slot, res.SheetNumber, res.ID); err != nil {
		return e.studentMirrorFailure(err)
	}

	if sheet == nil {
		sheet = &model.Sheet{SheetNumber: res.SheetNumber}
	}
	applySlot(sheet, res.Slot, res.StudentName)
	if err := e.upsertSheet(ctx, sheet); err != nil {
		return fail[*model.Reservation](KindUpstream, "failed to update sheet", err)
	}

	res.Status = model.ReservationCompleted
	res.EndDate = e.now().UTC().Format(time.RFC3339)
	fields := map[string]any{
		"status":   string(res.Status),
		"end_date": res.EndDate,
	}
	if _, err := e.store.Update(ctx, CollectionReservations, res.ID, fields); err != nil {
		return fail[*model.Reservation](KindUpstream, "failed to complete reservation", err)
	}
	return ok(res, "Reservation fulfilled successfully")
}

// CancelReservation marks a reservation cancelled. It deliberately leaves
// the sheet's occupant fields and the student mirror untouched; the slot
// is only released when the reservation is permanently deleted.
// TODO: decide whether cancellation should release the slot; today's
// behavior matches the legacy system and is pinned by tests.
func (e *Engine) CancelReservation(ctx context.Context, reservationID string) Result[*model.Reservation] {
	doc, err := e.store.Get(ctx, CollectionReservations, reservationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail[*model.Reservation](KindNotFound, "reservation not found", err)
		}
		return fail[*model.Reservation](KindUpstream, "failed to load reservation", err)
	}
	updated, err := e.store.Update(ctx, CollectionReservations, doc.ID,
		map[string]any{"status": string(model.ReservationCancelled)})
	if err != nil {
		return fail[*model.Reservation](KindUpstream, "failed to cancel reservation", err)
	}
	return ok(reservationFromDoc(updated), "Reservation cancelled")
}

// DeleteReservation removes a reservation. Soft deletion only flips the
// is_active flag: a trashed reservation still holds its slot so it can be
// restored. Permanent deletion removes the record first and then frees the
// sheet and clears the student mirror; a crash between those steps leaves
// the sheet referencing a missing reservation, which is the accepted gap
// without store transactions.
func (e *Engine) DeleteReservation(ctx context.Context, reservationID string, softDelete bool) Result[*model.Reservation] {
	doc, err := e.store.Get(ctx, CollectionReservations, reservationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail[*model.Reservation](KindNotFound, "reservation not found", err)
		}
		return fail[*model.Reservation](KindUpstream, "failed to load reservation", err)
	}
	res := reservationFromDoc(doc)

	if softDelete {
		if _, err := e.store.Update(ctx, CollectionReservations, res.ID, map[string]any{"is_active": false}); err != nil {
			return fail[*model.Reservation](KindUpstream, "failed to soft delete reservation", err)
		}
		res.IsActive = false
		return ok(res, "Reservation moved to trash")
	}

	unlock := e.locks.acquire(res.SheetNumber)
	defer unlock()

	if err := e.store.Delete(ctx, CollectionReservations, res.ID); err != nil {
		return fail[*model.Reservation](KindUpstream, "failed to delete reservation", err)
	}
	if err := e.releaseSlot(ctx, res.SheetNumber, res.Slot); err != nil {
		return fail[*model.Reservation](KindUpstream, "reservation deleted but sheet release failed", err)
	}
	if _, err := e.store.Update(ctx, CollectionStudents, res.StudentID, clearedStudentAssignment()); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fail[*model.Reservation](KindUpstream, "reservation deleted but student update failed", err)
		}
	}
	return ok(res, "Reservation deleted")
}

// releaseSlot clears the occupant field for one slot on a sheet and
// re-derives the status. A missing sheet record is not an error: there is
// nothing to free.
func (e *Engine) releaseSlot(ctx context.Context, sheetNumber int, slot model.Slot) error {
	sheet, err := e.findSheet(ctx, sheetNumber)
	if err != nil {
		return err
	}
	if sheet == nil {
		return nil
	}
	clearSlot(sheet, slot)
	_, err = e.store.Update(ctx, CollectionSheets, sheet.ID, sheetFields(sheet))
	return err
}

// mirrorStudent writes the current assignment onto the student record.
func (e *Engine) mirrorStudent(ctx context.Context, studentID string, slot model.Slot, sheetNumber int, reservationID string) error {
	_, err := e.store.Update(ctx, CollectionStudents, studentID,
		studentAssignment(slot, sheetNumber, reservationID))
	if err != nil && errors.Is(err, store.ErrNotFound) {
		return errStudentMissing
	}
	return err
}

// studentMirrorFailure maps a failed student mirror write. The reservation
// and sheet writes have already landed at this point, which the message
// makes explicit instead of hiding.
func (e *Engine) studentMirrorFailure(err error) Result[*model.Reservation] {
	if errors.Is(err, errStudentMissing) {
		return fail[*model.Reservation](KindNotFound, "reservation saved but student record not found", err)
	}
	return fail[*model.Reservation](KindUpstream, "reservation saved but student update failed", err)
}
