package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/library-seat-reservation/internal/allocation"
	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/handler"
	"github.com/iliyamo/library-seat-reservation/internal/middleware"
	"github.com/iliyamo/library-seat-reservation/internal/queue"
	"github.com/iliyamo/library-seat-reservation/internal/router"
	"github.com/iliyamo/library-seat-reservation/internal/store"
)

// collections the server guarantees exist before serving traffic.
var collections = []string{
	"sheets", "reservations", "students",
	"users", "refresh_tokens", "registrations",
	"attendance", "payments",
}

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}
	cfg := config.Load()

	st, cleanup := openStore(cfg)
	defer cleanup()

	engine := allocation.New(st)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	// Redis is optional: without it the limiter and cache become no-ops.
	rdb := config.NewRedisClient()
	publicMW := []echo.MiddlewareFunc{
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}

	h := router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, st),
		Reservation:  handler.NewReservationHandler(engine, st),
		Sheet:        handler.NewSheetHandler(st),
		Registration: handler.NewRegistrationHandler(st),
		Student:      handler.NewStudentHandler(st),
		Attendance:   handler.NewAttendanceHandler(st),
		Payment:      handler.NewPaymentHandler(st),
	}
	router.Register(e, cfg, h, publicMW...)

	// Background consumer records seat events; it reconnects on its own if
	// the broker is down at startup.
	go func() {
		if err := queue.StartSeatEventConsumer(); err != nil {
			log.Printf("seat event consumer stopped: %v", err)
		}
	}()

	log.Printf("starting server on :%s (store=%s)", cfg.Port, cfg.StoreDriver)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// openStore builds the configured document store and returns it with a
// cleanup function for the underlying connection, if any.
func openStore(cfg config.Config) (store.Store, func()) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Println("using in-memory document store; data is lost on restart")
		return store.NewMemory(), func() {}
	default:
		db, err := store.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		s := store.NewMySQL(db)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.EnsureCollections(ctx, collections...); err != nil {
			log.Fatalf("failed to ensure collections: %v", err)
		}
		return s, func() { _ = db.Close() }
	}
}
