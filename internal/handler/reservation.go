package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/allocation"
	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/queue"
	"github.com/iliyamo/library-seat-reservation/internal/service"
	"github.com/iliyamo/library-seat-reservation/internal/store"
)

// ReservationHandler exposes the allocation engine over HTTP.
type ReservationHandler struct {
	Engine *allocation.Engine
	Store  store.Store
}

func NewReservationHandler(engine *allocation.Engine, st store.Store) *ReservationHandler {
	return &ReservationHandler{Engine: engine, Store: st}
}

// Create books a slot. Students may only book for themselves; the
// student_id is taken from their user record regardless of the body.
func (h *ReservationHandler) Create(c echo.Context) error {
	var in allocation.CreateReservationInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}

	if getRole(c) == model.RoleStudent {
		sid, err := h.ownStudentID(c)
		if err != nil {
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "no student profile linked to this account"})
		}
		in.StudentID = sid
	}

	res := h.Engine.CreateReservation(c.Request().Context(), in)
	if !res.Success {
		return c.JSON(statusForKind(res.Kind), res)
	}
	h.publishEvent(c.Request().Context(), queue.EventSeatAllocated, res.Data)
	return c.JSON(http.StatusCreated, res)
}

// Update edits a reservation, reconciling sheet side effects.
func (h *ReservationHandler) Update(c echo.Context) error {
	var in allocation.UpdateReservationInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}
	in.ReservationID = c.Param("id")

	if getRole(c) == model.RoleStudent {
		if err := h.mustOwn(c, in.ReservationID); err != nil {
			return err
		}
	}

	res := h.Engine.UpdateReservation(c.Request().Context(), in)
	if !res.Success {
		return c.JSON(statusForKind(res.Kind), res)
	}
	return c.JSON(http.StatusOK, res)
}

// Fulfill checks a student in against their reservation.
func (h *ReservationHandler) Fulfill(c echo.Context) error {
	id := c.Param("id")
	if getRole(c) == model.RoleStudent {
		if err := h.mustOwn(c, id); err != nil {
			return err
		}
	}
	res := h.Engine.FulfillReservation(c.Request().Context(), id)
	if !res.Success {
		return c.JSON(statusForKind(res.Kind), res)
	}
	h.publishEvent(c.Request().Context(), queue.EventSeatAllocated, res.Data)
	return c.JSON(http.StatusOK, res)
}

// Cancel marks a reservation cancelled. The slot stays occupied until the
// reservation is permanently deleted.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id := c.Param("id")
	if getRole(c) == model.RoleStudent {
		if err := h.mustOwn(c, id); err != nil {
			return err
		}
	}
	res := h.Engine.CancelReservation(c.Request().Context(), id)
	if !res.Success {
		return c.JSON(statusForKind(res.Kind), res)
	}
	return c.JSON(http.StatusOK, res)
}

// Delete removes a reservation. ?soft=true only flips the is_active flag;
// the default is a permanent delete that frees the sheet.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	soft, _ := strconv.ParseBool(c.QueryParam("soft"))

	res := h.Engine.DeleteReservation(c.Request().Context(), id, soft)
	if !res.Success {
		return c.JSON(statusForKind(res.Kind), res)
	}
	if !soft {
		h.publishEvent(c.Request().Context(), queue.EventSeatReleased, res.Data)
	}
	return c.JSON(http.StatusOK, res)
}

// List returns reservations. Admins see everything; students see only
// their own.
func (h *ReservationHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	docs, err := h.Store.List(ctx, allocation.CollectionReservations)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to list reservations"})
	}

	ownID := ""
	if getRole(c) == model.RoleStudent {
		sid, err := h.ownStudentID(c)
		if err != nil {
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "no student profile linked to this account"})
		}
		ownID = sid
	}

	out := make([]*model.Reservation, 0, len(docs))
	for _, d := range docs {
		r := allocation.ReservationFromDoc(d)
		if ownID != "" && r.StudentID != ownID {
			continue
		}
		out = append(out, r)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": out})
}

// ----- helpers -----

// ownStudentID resolves the student record linked to the logged-in user.
func (h *ReservationHandler) ownStudentID(c echo.Context) (string, error) {
	uid, err := getUserID(c)
	if err != nil {
		return "", err
	}
	user, err := h.Store.Get(c.Request().Context(), collectionUsers, uid)
	if err != nil {
		return "", err
	}
	sid := user.String("student_id")
	if sid == "" {
		return "", echo.ErrForbidden
	}
	return sid, nil
}

// mustOwn rejects student access to reservations belonging to someone
// else. It writes the error response itself and returns it for the caller
// to propagate.
func (h *ReservationHandler) mustOwn(c echo.Context, reservationID string) error {
	sid, err := h.ownStudentID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "no student profile linked to this account"})
	}
	doc, err := h.Store.Get(c.Request().Context(), allocation.CollectionReservations, reservationID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "reservation not found"})
	}
	if doc.String("student_id") != sid {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "not your reservation"})
	}
	return nil
}

// publishEvent emits a seat event to the queue. Publishing is best effort;
// the reservation flow never fails because the broker is down.
func (h *ReservationHandler) publishEvent(ctx context.Context, eventType string, res *model.Reservation) {
	if res == nil {
		return
	}
	ev := queue.SeatEvent{
		Type:          eventType,
		ReservationID: res.ID,
		StudentID:     res.StudentID,
		StudentName:   res.StudentName,
		SheetNumber:   res.SheetNumber,
		Slot:          string(res.Slot),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	// Sheet status is informational on the event; a lookup failure leaves
	// it empty.
	if doc, err := h.Store.FindByField(ctx, allocation.CollectionSheets, allocation.FieldSheetNumber, res.SheetNumber); err == nil {
		ev.SheetStatus = doc.String("status")
	}
	if err := service.PublishSeatEvent(ctx, ev); err != nil {
		log.Printf("reservation: publish %s event failed: %v", eventType, err)
	}
}
