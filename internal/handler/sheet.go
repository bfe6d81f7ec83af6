package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/allocation"
	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/store"
)

// SheetHandler serves read-only views of the seat map.
type SheetHandler struct {
	Store store.Store
}

func NewSheetHandler(st store.Store) *SheetHandler {
	return &SheetHandler{Store: st}
}

// List returns every materialized sheet ordered by seat number. Seats that
// were never reserved have no record and do not appear.
func (h *SheetHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	docs, err := h.Store.List(ctx, allocation.CollectionSheets)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to list sheets"})
	}
	sheets := make([]*model.Sheet, 0, len(docs))
	for _, d := range docs {
		sheets = append(sheets, allocation.SheetFromDoc(d))
	}
	sort.Slice(sheets, func(i, j int) bool { return sheets[i].SheetNumber < sheets[j].SheetNumber })
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": sheets})
}

// Get returns a single sheet by seat number.
func (h *SheetHandler) Get(c echo.Context) error {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid sheet number"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.Store.FindByField(ctx, allocation.CollectionSheets, allocation.FieldSheetNumber, number)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "sheet not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load sheet"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": allocation.SheetFromDoc(doc)})
}

// Availability answers whether a slot can currently be booked on a sheet,
// using the same compatibility rules the engine applies at booking time.
// The answer is advisory: the engine re-checks under its lock.
func (h *SheetHandler) Availability(c echo.Context) error {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid sheet number"})
	}
	slot, ok := model.ParseSlot(c.QueryParam("slot"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid slot"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var sheet *model.Sheet
	doc, err := h.Store.FindByField(ctx, allocation.CollectionSheets, allocation.FieldSheetNumber, number)
	switch {
	case err == nil:
		sheet = allocation.SheetFromDoc(doc)
	case errors.Is(err, store.ErrNotFound):
		// never materialized: fully free
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load sheet"})
	}

	av := allocation.CheckAvailability(sheet, slot)
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"sheet_number": number,
		"slot":         slot,
		"available":    av.Available,
		"reason":       av.Reason,
	})
}
