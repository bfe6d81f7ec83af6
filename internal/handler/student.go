package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/allocation"
	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/store"
)

// StudentHandler provides admin CRUD over student records. The Slot,
// SheetNumber and ReservationID mirror fields are owned by the allocation
// engine and are never writable through these endpoints.
type StudentHandler struct {
	Store store.Store
}

func NewStudentHandler(st store.Store) *StudentHandler {
	return &StudentHandler{Store: st}
}

type studentReq struct {
	Name       string `json:"name"`
	FatherName string `json:"father_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

func (h *StudentHandler) Create(c echo.Context) error {
	var req studentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id := store.NewID()
	fields := map[string]any{
		"name":        req.Name,
		"father_name": strings.TrimSpace(req.FatherName),
		"phone":       strings.TrimSpace(req.Phone),
		"address":     strings.TrimSpace(req.Address),
	}
	doc, err := h.Store.Create(ctx, allocation.CollectionStudents, id, fields)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to create student"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Student created", "data": studentFromDoc(doc)})
}

func (h *StudentHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.Store.Get(ctx, allocation.CollectionStudents, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load student"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": studentFromDoc(doc)})
}

func (h *StudentHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	docs, err := h.Store.List(ctx, allocation.CollectionStudents)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to list students"})
	}
	out := make([]*model.Student, 0, len(docs))
	for _, d := range docs {
		out = append(out, studentFromDoc(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": out})
}

// Update changes profile fields only; assignment mirror fields in the body
// are ignored.
func (h *StudentHandler) Update(c echo.Context) error {
	var req studentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	fields := map[string]any{}
	if v := strings.TrimSpace(req.Name); v != "" {
		fields["name"] = v
	}
	if v := strings.TrimSpace(req.FatherName); v != "" {
		fields["father_name"] = v
	}
	if v := strings.TrimSpace(req.Phone); v != "" {
		fields["phone"] = v
	}
	if v := strings.TrimSpace(req.Address); v != "" {
		fields["address"] = v
	}
	if len(fields) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "nothing to update"})
	}

	doc, err := h.Store.Update(ctx, allocation.CollectionStudents, c.Param("id"), fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to update student"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Student updated", "data": studentFromDoc(doc)})
}

// Delete removes a student record. A student holding an active reservation
// cannot be deleted; the reservation must be removed first.
func (h *StudentHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.Store.Get(ctx, allocation.CollectionStudents, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load student"})
	}
	if doc.String("reservation_id") != "" {
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "student has an active reservation"})
	}
	if err := h.Store.Delete(ctx, allocation.CollectionStudents, doc.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to delete student"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Student deleted"})
}

func studentFromDoc(d *store.Document) *model.Student {
	return &model.Student{
		ID:            d.ID,
		Name:          d.String("name"),
		FatherName:    d.String("father_name"),
		Phone:         d.String("phone"),
		Address:       d.String("address"),
		Slot:          model.Slot(d.String("slot")),
		SheetNumber:   d.Int(allocation.FieldSheetNumber),
		ReservationID: d.String("reservation_id"),
	}
}
