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

const collectionRegistrations = "registrations"

// RegistrationHandler manages membership requests: public submission plus
// the admin review queue.
type RegistrationHandler struct {
	Store store.Store
}

func NewRegistrationHandler(st store.Store) *RegistrationHandler {
	return &RegistrationHandler{Store: st}
}

type submitRegistrationReq struct {
	Name       string `json:"name"`
	FatherName string `json:"father_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

// Submit creates a pending registration. This endpoint is public; the
// request only enters the system once an admin approves it.
func (h *RegistrationHandler) Submit(c echo.Context) error {
	var req submitRegistrationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "name and phone are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reg := &model.Registration{
		ID:         store.NewID(),
		Name:       req.Name,
		FatherName: strings.TrimSpace(req.FatherName),
		Phone:      req.Phone,
		Address:    strings.TrimSpace(req.Address),
		Status:     model.RegistrationPending,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	fields := map[string]any{
		"name":        reg.Name,
		"father_name": reg.FatherName,
		"phone":       reg.Phone,
		"address":     reg.Address,
		"status":      string(reg.Status),
		"created_at":  reg.CreatedAt,
	}
	if _, err := h.Store.Create(ctx, collectionRegistrations, reg.ID, fields); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to submit registration"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Registration submitted", "data": reg})
}

// List returns registrations, optionally filtered with ?status=pending.
func (h *RegistrationHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	docs, err := h.Store.List(ctx, collectionRegistrations)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to list registrations"})
	}
	statusFilter := strings.TrimSpace(c.QueryParam("status"))

	out := make([]*model.Registration, 0, len(docs))
	for _, d := range docs {
		reg := registrationFromDoc(d)
		if statusFilter != "" && string(reg.Status) != statusFilter {
			continue
		}
		out = append(out, reg)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": out})
}

// Approve turns a pending registration into a Student record and links it
// back via student_id. Approving twice is rejected.
func (h *RegistrationHandler) Approve(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.Store.Get(ctx, collectionRegistrations, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "registration not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load registration"})
	}
	reg := registrationFromDoc(doc)
	if reg.Status != model.RegistrationPending {
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "registration already reviewed"})
	}

	studentID := store.NewID()
	studentFields := map[string]any{
		"name":        reg.Name,
		"father_name": reg.FatherName,
		"phone":       reg.Phone,
		"address":     reg.Address,
	}
	if _, err := h.Store.Create(ctx, allocation.CollectionStudents, studentID, studentFields); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to create student"})
	}

	updated, err := h.Store.Update(ctx, collectionRegistrations, reg.ID, map[string]any{
		"status":     string(model.RegistrationApproved),
		"student_id": studentID,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "student created but registration update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Registration approved", "data": registrationFromDoc(updated)})
}

// Reject marks a pending registration rejected.
func (h *RegistrationHandler) Reject(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.Store.Get(ctx, collectionRegistrations, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "registration not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load registration"})
	}
	if model.RegistrationStatus(doc.String("status")) != model.RegistrationPending {
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "registration already reviewed"})
	}
	updated, err := h.Store.Update(ctx, collectionRegistrations, doc.ID, map[string]any{
		"status": string(model.RegistrationRejected),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to reject registration"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Registration rejected", "data": registrationFromDoc(updated)})
}

func registrationFromDoc(d *store.Document) *model.Registration {
	return &model.Registration{
		ID:         d.ID,
		Name:       d.String("name"),
		FatherName: d.String("father_name"),
		Phone:      d.String("phone"),
		Address:    d.String("address"),
		Status:     model.RegistrationStatus(d.String("status")),
		StudentID:  d.String("student_id"),
		CreatedAt:  d.String("created_at"),
	}
}
