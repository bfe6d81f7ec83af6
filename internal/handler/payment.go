package handler

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/store"
)

const collectionPayments = "payments"

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// PaymentHandler records monthly fee payments against students.
type PaymentHandler struct {
	Store store.Store
}

func NewPaymentHandler(st store.Store) *PaymentHandler {
	return &PaymentHandler{Store: st}
}

type paymentReq struct {
	StudentID   string `json:"student_id"`
	AmountCents int    `json:"amount_cents"`
	Month       string `json:"month"`
	Method      string `json:"method"`
	Note        string `json:"note"`
}

// Record stores a payment entry. The recording admin is taken from the
// access token, not the body.
func (h *PaymentHandler) Record(c echo.Context) error {
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid body"})
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Month = strings.TrimSpace(req.Month)
	if req.StudentID == "" || req.AmountCents <= 0 || !monthPattern.MatchString(req.Month) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "student_id, positive amount_cents and month (YYYY-MM) are required"})
	}
	recordedBy, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id := store.NewID()
	fields := map[string]any{
		"student_id":   req.StudentID,
		"amount_cents": req.AmountCents,
		"month":        req.Month,
		"method":       strings.TrimSpace(req.Method),
		"note":         strings.TrimSpace(req.Note),
		"recorded_by":  recordedBy,
		"created_at":   time.Now().UTC().Format(time.RFC3339),
	}
	doc, err := h.Store.Create(ctx, collectionPayments, id, fields)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to record payment"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Payment recorded", "data": paymentFromDoc(doc)})
}

// List returns payments, filterable by ?student_id= and ?month=.
func (h *PaymentHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	docs, err := h.Store.List(ctx, collectionPayments)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to list payments"})
	}
	studentFilter := strings.TrimSpace(c.QueryParam("student_id"))
	monthFilter := strings.TrimSpace(c.QueryParam("month"))

	out := make([]*model.Payment, 0, len(docs))
	for _, d := range docs {
		p := paymentFromDoc(d)
		if studentFilter != "" && p.StudentID != studentFilter {
			continue
		}
		if monthFilter != "" && p.Month != monthFilter {
			continue
		}
		out = append(out, p)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": out})
}

func paymentFromDoc(d *store.Document) *model.Payment {
	return &model.Payment{
		ID:          d.ID,
		StudentID:   d.String("student_id"),
		AmountCents: d.Int("amount_cents"),
		Month:       d.String("month"),
		Method:      d.String("method"),
		Note:        d.String("note"),
		RecordedBy:  d.String("recorded_by"),
		CreatedAt:   d.String("created_at"),
	}
}
