package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/store"
)

const collectionAttendance = "attendance"

// AttendanceHandler records daily check-ins and check-outs. The document
// ID "<student_id>:<date>" makes check-in naturally idempotent per day.
type AttendanceHandler struct {
	Store store.Store
	Now   func() time.Time
}

func NewAttendanceHandler(st store.Store) *AttendanceHandler {
	return &AttendanceHandler{Store: st, Now: time.Now}
}

type attendanceReq struct {
	StudentID string `json:"student_id"`
	Date      string `json:"date"` // optional, defaults to today
}

func attendanceID(studentID, date string) string {
	return studentID + ":" + date
}

// CheckIn records the student's arrival for the day. A second check-in on
// the same day is a conflict.
func (h *AttendanceHandler) CheckIn(c echo.Context) error {
	var req attendanceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	if req.StudentID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "student_id is required"})
	}
	now := h.Now().UTC()
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = now.Format("2006-01-02")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id := attendanceID(req.StudentID, date)
	fields := map[string]any{
		"student_id": req.StudentID,
		"date":       date,
		"check_in":   now.Format(time.RFC3339),
	}
	doc, err := h.Store.Create(ctx, collectionAttendance, id, fields)
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "already checked in today"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to check in"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Checked in", "data": attendanceFromDoc(doc)})
}

// CheckOut stamps the departure time on today's attendance record.
func (h *AttendanceHandler) CheckOut(c echo.Context) error {
	var req attendanceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	if req.StudentID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "student_id is required"})
	}
	now := h.Now().UTC()
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = now.Format("2006-01-02")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.Store.Update(ctx, collectionAttendance, attendanceID(req.StudentID, date), map[string]any{
		"check_out": now.Format(time.RFC3339),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "no check-in found for that day"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to check out"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Checked out", "data": attendanceFromDoc(doc)})
}

// List returns attendance records, filterable by ?student_id= and ?date=.
func (h *AttendanceHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	docs, err := h.Store.List(ctx, collectionAttendance)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to list attendance"})
	}
	studentFilter := strings.TrimSpace(c.QueryParam("student_id"))
	dateFilter := strings.TrimSpace(c.QueryParam("date"))

	out := make([]*model.Attendance, 0, len(docs))
	for _, d := range docs {
		a := attendanceFromDoc(d)
		if studentFilter != "" && a.StudentID != studentFilter {
			continue
		}
		if dateFilter != "" && a.Date != dateFilter {
			continue
		}
		out = append(out, a)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": out})
}

func attendanceFromDoc(d *store.Document) *model.Attendance {
	return &model.Attendance{
		ID:        d.ID,
		StudentID: d.String("student_id"),
		Date:      d.String("date"),
		CheckIn:   d.String("check_in"),
		CheckOut:  d.String("check_out"),
	}
}
