package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/handler"
	"github.com/iliyamo/hotel-room-reservation/internal/middleware"
)

// RegisterStaff registers the staff and admin surface under /v1/staff.
// Front-desk operations accept STAFF or ADMIN; destructive overrides
// (forced allocation, forced unlock, room removal, forced cancellation)
// require ADMIN.
func RegisterStaff(e *echo.Echo, s *handler.StaffHandler, d *handler.DeskHandler, jwtSecret string) {
	g := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("STAFF", "ADMIN"),
	)

	// Inventory provisioning and the live floor view.
	g.POST("/room-types", s.CreateRoomType)
	g.POST("/rooms", s.ProvisionRooms)
	g.GET("/rooms", s.FloorView)
	g.GET("/rooms/:id/history", s.RoomHistory)
	g.GET("/rooms/:id/schedule", s.RoomSchedule)
	g.PUT("/rooms/:id/status", s.SetRoomStatus)

	// Maintenance calendar.
	g.POST("/rooms/:id/maintenance", s.ScheduleMaintenance)
	g.DELETE("/rooms/:id/maintenance/:block_id", s.CancelMaintenance)

	// Front desk.
	g.POST("/bookings/:id/check-in", d.CheckIn)
	g.POST("/bookings/:id/check-out", d.CheckOut)
	g.POST("/bookings/:id/no-show", d.NoShow)

	// Cache-vs-ledger reconciliation report.
	g.GET("/reconciliation", s.Reconcile)

	// Admin-only overrides.
	admin := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	admin.POST("/rooms/:id/allocate", s.ForceAllocate)
	admin.POST("/rooms/:id/deallocate", s.ForceDeallocate)
	admin.DELETE("/rooms/:id/lock", s.ForceUnlock)
	admin.DELETE("/rooms/:id", s.RemoveRoom)
	admin.POST("/bookings/:id/cancel", d.ForceCancel)
}
