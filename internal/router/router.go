// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/handler"
	"github.com/iliyamo/library-seat-reservation/internal/middleware"
)

// Handlers collects the handler set registered on the server.
type Handlers struct {
	Auth         *handler.AuthHandler
	Reservation  *handler.ReservationHandler
	Sheet        *handler.SheetHandler
	Registration *handler.RegistrationHandler
	Student      *handler.StudentHandler
	Attendance   *handler.AttendanceHandler
	Payment      *handler.PaymentHandler
}

// Register mounts every route. Public and rate-limited read endpoints come
// first, then authenticated student/admin surfaces under /v1.
func Register(e *echo.Echo, cfg config.Config, h Handlers, public ...echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")

	// Public surface: membership submission and the seat map. The seat map
	// carries the rate limiter and response cache when Redis is configured.
	v1.POST("/registrations", h.Registration.Submit)
	v1.GET("/sheets", h.Sheet.List, public...)
	v1.GET("/sheets/:number", h.Sheet.Get, public...)
	v1.GET("/sheets/:number/availability", h.Sheet.Availability, public...)

	// Auth endpoints.
	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/refresh-access", h.Auth.RefreshAccess)
	auth.POST("/logout", h.Auth.Logout)

	// Anything below requires a valid access token.
	protected := v1.Group("", middleware.JWTAuth(cfg.JWTSecret))
	protected.GET("/auth/me", h.Auth.Me)

	protected.POST("/reservations", h.Reservation.Create)
	protected.GET("/reservations", h.Reservation.List)
	protected.PUT("/reservations/:id", h.Reservation.Update)
	protected.POST("/reservations/:id/fulfill", h.Reservation.Fulfill)
	protected.POST("/reservations/:id/cancel", h.Reservation.Cancel)

	// Admin-only management surface.
	admin := protected.Group("/admin", middleware.RequireRole("ADMIN"))
	admin.DELETE("/reservations/:id", h.Reservation.Delete)

	admin.GET("/registrations", h.Registration.List)
	admin.POST("/registrations/:id/approve", h.Registration.Approve)
	admin.POST("/registrations/:id/reject", h.Registration.Reject)

	admin.POST("/students", h.Student.Create)
	admin.GET("/students", h.Student.List)
	admin.GET("/students/:id", h.Student.Get)
	admin.PUT("/students/:id", h.Student.Update)
	admin.DELETE("/students/:id", h.Student.Delete)

	admin.POST("/users/:id/link-student", h.Auth.LinkStudent)

	admin.POST("/attendance/check-in", h.Attendance.CheckIn)
	admin.POST("/attendance/check-out", h.Attendance.CheckOut)
	admin.GET("/attendance", h.Attendance.List)

	admin.POST("/payments", h.Payment.Record)
	admin.GET("/payments", h.Payment.List)
}
