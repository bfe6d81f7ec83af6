package allocation

import (
	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/store"
)

// Collections written by the engine.
const (
	CollectionSheets       = "sheets"
	CollectionReservations = "reservations"
	CollectionStudents     = "students"
)

// Document field names shared between the engine and the handlers.
const (
	FieldSheetNumber = "sheet_number"
)

func sheetFromDoc(d *store.Document) *model.Sheet {
	return &model.Sheet{
		ID:            d.ID,
		SheetNumber:   d.Int(FieldSheetNumber),
		Status:        model.SheetStatus(d.String("status")),
		FirstHalfName: d.String("first_half_name"),
		LastHalfName:  d.String("last_half_name"),
		FullTimeName:  d.String("full_time_name"),
		IsActive:      d.Bool("is_active"),
	}
}

func sheetFields(s *model.Sheet) map[string]any {
	return map[string]any{
		FieldSheetNumber:  s.SheetNumber,
		"status":          string(s.Status),
		"first_half_name": s.FirstHalfName,
		"last_half_name":  s.LastHalfName,
		"full_time_name":  s.FullTimeName,
		"is_active":       s.IsActive,
	}
}

// SheetFromDoc converts a stored sheet document for read paths outside the
// engine, such as the sheet listing endpoints.
func SheetFromDoc(d *store.Document) *model.Sheet { return sheetFromDoc(d) }

func reservationFromDoc(d *store.Document) *model.Reservation {
	return &model.Reservation{
		ID:              d.ID,
		StudentID:       d.String("student_id"),
		StudentName:     d.String("student_name"),
		SheetNumber:     d.Int(FieldSheetNumber),
		Slot:            model.Slot(d.String("slot")),
		StartDate:       d.String("start_date"),
		EndDate:         d.String("end_date"),
		Status:          model.ReservationStatus(d.String("status")),
		IsActive:        d.Bool("is_active"),
		ReservationDate: d.String("reservation_date"),
	}
}

func reservationFields(r *model.Reservation) map[string]any {
	return map[string]any{
		"student_id":       r.StudentID,
		"student_name":     r.StudentName,
		FieldSheetNumber:   r.SheetNumber,
		"slot":             string(r.Slot),
		"start_date":       r.StartDate,
		"end_date":         r.EndDate,
		"status":           string(r.Status),
		"is_active":        r.IsActive,
		"reservation_date": r.ReservationDate,
	}
}

// ReservationFromDoc converts a stored reservation document for listing
// endpoints.
func ReservationFromDoc(d *store.Document) *model.Reservation { return reservationFromDoc(d) }

// studentAssignment is the denormalized mirror written onto the Student
// record; nil values clear the fields on deletion.
func studentAssignment(slot model.Slot, sheetNumber int, reservationID string) map[string]any {
	return map[string]any{
		"slot":           string(slot),
		FieldSheetNumber: sheetNumber,
		"reservation_id": reservationID,
	}
}

func clearedStudentAssignment() map[string]any {
	return map[string]any{
		"slot":           nil,
		FieldSheetNumber: nil,
		"reservation_id": nil,
	}
}
