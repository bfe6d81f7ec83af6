package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-reservation/internal/allocation"
	"github.com/iliyamo/library-seat-reservation/internal/store"
)

func seedSheet(t *testing.T, st store.Store, number int, fields map[string]any) {
	t.Helper()
	fields[allocation.FieldSheetNumber] = number
	_, err := st.Create(context.Background(), allocation.CollectionSheets, store.NewID(), fields)
	require.NoError(t, err)
}

func TestSheetListSortedByNumber(t *testing.T) {
	st := store.NewMemory()
	seedSheet(t, st, 5, map[string]any{"status": "free", "is_active": true})
	seedSheet(t, st, 2, map[string]any{"status": "full", "full_time_name": "Alice", "is_active": true})
	h := NewSheetHandler(st)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/sheets", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.List(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    []struct {
			SheetNumber  int    `json:"sheet_number"`
			Status       string `json:"status"`
			FullTimeName string `json:"full_time_name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Len(t, body.Data, 2)
	assert.Equal(t, 2, body.Data[0].SheetNumber)
	assert.Equal(t, "Alice", body.Data[0].FullTimeName)
	assert.Equal(t, 5, body.Data[1].SheetNumber)
}

func TestSheetGetNotFound(t *testing.T) {
	h := NewSheetHandler(store.NewMemory())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("number")
	c.SetParamValues("99")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSheetAvailability(t *testing.T) {
	st := store.NewMemory()
	seedSheet(t, st, 4, map[string]any{"status": "half", "first_half_name": "Bob", "is_active": true})
	h := NewSheetHandler(st)
	e := echo.New()

	check := func(number, slot string) (bool, string, int) {
		req := httptest.NewRequest(http.MethodGet, "/?slot="+slot, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("number")
		c.SetParamValues(number)
		require.NoError(t, h.Availability(c))

		var body struct {
			Available bool   `json:"available"`
			Reason    string `json:"reason"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body.Available, body.Reason, rec.Code
	}

	available, reason, code := check("4", "first_half")
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, available)
	assert.Equal(t, allocation.ReasonFirstHalfTaken, reason)

	available, _, _ = check("4", "last_half")
	assert.True(t, available)

	// Never-materialized seats are fully free.
	available, _, _ = check("77", "full_time")
	assert.True(t, available)

	_, _, code = check("4", "overnight")
	assert.Equal(t, http.StatusBadRequest, code)
}
