package handler // handler defines http handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/allocation"
)

// getUserID extracts the authenticated user's document ID from the echo
// context. JWTAuth stores the raw "sub" claim, which this service always
// issues as a string.
func getUserID(c echo.Context) (string, error) {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("invalid user_id in context")
}

// getRole returns the role claim stored by JWTAuth, or empty.
func getRole(c echo.Context) string {
	if s, ok := c.Get("role").(string); ok {
		return s
	}
	return ""
}

// statusForKind maps an engine failure kind to a conventional HTTP status.
// The mapping is deliberately coarse: validation is the caller's fault,
// conflicts are business rules, everything else is a server-side problem.
func statusForKind(kind allocation.Kind) int {
	switch kind {
	case allocation.KindValidation:
		return http.StatusBadRequest
	case allocation.KindConflict:
		return http.StatusConflict
	case allocation.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
