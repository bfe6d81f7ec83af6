package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-reservation/internal/allocation"
	"github.com/iliyamo/library-seat-reservation/internal/store"
)

func submitRegistration(t *testing.T, h *RegistrationHandler, body string) string {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/registrations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Submit(e.NewContext(req, rec)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Data.Status)
	return resp.Data.ID
}

func reviewRegistration(t *testing.T, h func(echo.Context) error, id string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h(c))
	return rec
}

func TestRegistrationApproveCreatesStudent(t *testing.T) {
	st := store.NewMemory()
	h := NewRegistrationHandler(st)

	id := submitRegistration(t, h, `{"name":"Alice","phone":"0700","address":"Main St"}`)

	rec := reviewRegistration(t, h.Approve, id)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Status    string `json:"status"`
			StudentID string `json:"student_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "approved", resp.Data.Status)
	require.NotEmpty(t, resp.Data.StudentID)

	stu, err := st.Get(context.Background(), allocation.CollectionStudents, resp.Data.StudentID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", stu.String("name"))
	assert.Equal(t, "0700", stu.String("phone"))

	// Registrations are reviewed once.
	rec = reviewRegistration(t, h.Approve, id)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = reviewRegistration(t, h.Reject, id)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegistrationReject(t *testing.T) {
	st := store.NewMemory()
	h := NewRegistrationHandler(st)

	id := submitRegistration(t, h, `{"name":"Bob","phone":"0701"}`)
	rec := reviewRegistration(t, h.Reject, id)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rejected")

	// No student record materializes for a rejected request.
	docs, err := st.List(context.Background(), allocation.CollectionStudents)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRegistrationSubmitValidation(t *testing.T) {
	h := NewRegistrationHandler(store.NewMemory())
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/registrations", strings.NewReader(`{"name":"NoPhone"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Submit(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
