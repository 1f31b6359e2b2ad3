package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/clock"
	"github.com/iliyamo/hotel-room-reservation/internal/config"
	"github.com/iliyamo/hotel-room-reservation/internal/database"
	"github.com/iliyamo/hotel-room-reservation/internal/handler"
	"github.com/iliyamo/hotel-room-reservation/internal/middleware"
	"github.com/iliyamo/hotel-room-reservation/internal/queue"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
	"github.com/iliyamo/hotel-room-reservation/internal/router"
	"github.com/iliyamo/hotel-room-reservation/internal/service"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	store := repository.NewStore(db)
	roomRepo := repository.NewRoomRepo(store)
	roomTypeRepo := repository.NewRoomTypeRepo(store)
	allocationRepo := repository.NewAllocationRepo(store)
	bookingRepo := repository.NewBookingRepo(store)
	maintenanceRepo := repository.NewMaintenanceRepo(store)

	clk := clock.System{}
	notifier := queue.NewPublisher(cfg.AMQPURL)
	gateway := service.SimulatedGateway{}

	bookings := service.NewBookingService(store, roomRepo, allocationRepo, bookingRepo,
		roomTypeRepo, maintenanceRepo, gateway, notifier, clk, cfg.PendingTimeout)
	locks := service.NewLockManager(store, roomRepo, allocationRepo, bookingRepo,
		roomTypeRepo, maintenanceRepo, gateway, notifier, clk, cfg.LockTTL)
	inventory := service.NewInventoryService(store, roomRepo, allocationRepo, bookingRepo,
		roomTypeRepo, maintenanceRepo, clk)

	// Background reclamation: expired locks back to AVAILABLE, stale
	// PENDING bookings cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper := service.NewSweeper(roomRepo, bookings, clk, cfg.SweepInterval)
	go sweeper.Start(ctx)

	// Booking event log consumer; runs its own reconnect loop.
	go func() {
		if err := queue.StartBookingConsumer(cfg.AMQPURL); err != nil {
			log.Printf("booking-consumer: %v", err)
		}
	}()

	e := echo.New()

	// Redis-backed rate limiting and response caching degrade to no-ops
	// when Redis is unreachable.
	rdb := config.NewRedisClient()
	if rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	} else {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	router.RegisterRoutes(e)
	router.RegisterPublic(e, handler.NewPublicHandler(bookings))
	router.RegisterCustomer(e, handler.NewCustomerHandler(bookings), handler.NewLockHandler(locks), cfg.JWTSecret)
	router.RegisterStaff(e, handler.NewStaffHandler(inventory, locks), handler.NewDeskHandler(bookings), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
