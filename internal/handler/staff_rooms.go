package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/service"
)

// StaffHandler serves the staff and admin inventory surface: room type
// and room provisioning, status changes, maintenance scheduling, the
// manual allocation overrides, the floor view and the reconciliation
// report.
type StaffHandler struct {
	Inventory *service.InventoryService
	Locks     *service.LockManager
}

// NewStaffHandler constructs a StaffHandler.
func NewStaffHandler(inventory *service.InventoryService, locks *service.LockManager) *StaffHandler {
	if inventory == nil || locks == nil {
		panic("nil service passed to NewStaffHandler")
	}
	return &StaffHandler{Inventory: inventory, Locks: locks}
}

// CreateRoomType handles POST /v1/staff/room-types.
func (h *StaffHandler) CreateRoomType(c echo.Context) error {
	var body struct {
		Name              string `json:"name"`
		Description       string `json:"description"`
		Capacity          uint32 `json:"capacity"`
		BaseRateCents     uint32 `json:"base_rate_cents"`
		WeekendRateCents  uint32 `json:"weekend_rate_cents"`
		SeasonalRateCents uint32 `json:"seasonal_rate_cents"`
		SeasonStart       string `json:"season_start"`
		SeasonEnd         string `json:"season_end"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name == "" || body.Capacity == 0 || body.BaseRateCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, capacity and base_rate_cents are required"})
	}
	t := &model.RoomType{
		Name:              body.Name,
		Description:       body.Description,
		Capacity:          body.Capacity,
		BaseRateCents:     body.BaseRateCents,
		WeekendRateCents:  body.WeekendRateCents,
		SeasonalRateCents: body.SeasonalRateCents,
	}
	if t.WeekendRateCents == 0 {
		t.WeekendRateCents = t.BaseRateCents
	}
	if body.SeasonStart != "" && body.SeasonEnd != "" {
		start, err := parseStamp(body.SeasonStart)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid season_start"})
		}
		end, err := parseStamp(body.SeasonEnd)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid season_end"})
		}
		t.SeasonStart, t.SeasonEnd = &start, &end
	}
	if err := h.Inventory.CreateRoomType(c.Request().Context(), t); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"room_type": t})
}

// ProvisionRooms handles POST /v1/staff/rooms.  Bulk-creates rooms of a
// type on a floor with sequential numbers.
func (h *StaffHandler) ProvisionRooms(c echo.Context) error {
	var body struct {
		RoomTypeID  uint64 `json:"room_type_id"`
		Floor       string `json:"floor"`
		StartNumber int    `json:"start_number"`
		Count       int    `json:"count"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RoomTypeID == 0 || body.Floor == "" || body.Count <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_type_id, floor and count are required"})
	}
	rooms, err := h.Inventory.ProvisionRooms(c.Request().Context(), body.RoomTypeID, body.Floor, body.StartNumber, body.Count)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"created": len(rooms), "rooms": rooms})
}

// SetRoomStatus handles PUT /v1/staff/rooms/:id/status.  Direct changes
// to MAINTENANCE or OUT_OF_SERVICE are refused while an active
// allocation claims the room.
func (h *StaffHandler) SetRoomStatus(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	if err := h.Inventory.SetRoomStatus(c.Request().Context(), roomID, body.Status); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "status": body.Status})
}

// ScheduleMaintenance handles POST /v1/staff/rooms/:id/maintenance.
func (h *StaffHandler) ScheduleMaintenance(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		StartsOn string `json:"starts_on"`
		EndsOn   string `json:"ends_on"`
		Reason   string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, err := parseStamp(body.StartsOn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_on"})
	}
	end, err := parseStamp(body.EndsOn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_on"})
	}
	block, err := h.Inventory.ScheduleMaintenance(c.Request().Context(), roomID, start, end, body.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"maintenance": block})
}

// CancelMaintenance handles DELETE /v1/staff/rooms/:id/maintenance/:block_id.
func (h *StaffHandler) CancelMaintenance(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	blockID, err := pathID(c, "block_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Inventory.CancelMaintenance(c.Request().Context(), roomID, blockID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}

// ForceAllocate handles POST /v1/staff/rooms/:id/allocate.  Admin
// override binding a booking to a specific room; the allocation ledger
// still rejects overlapping claims.
func (h *StaffHandler) ForceAllocate(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		BookingID uint64 `json:"booking_id"`
	}
	if err := c.Bind(&body); err != nil || body.BookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id is required"})
	}
	if err := h.Inventory.ForceAllocate(c.Request().Context(), roomID, body.BookingID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "booking_id": body.BookingID})
}

// ForceDeallocate handles POST /v1/staff/rooms/:id/deallocate.  Admin
// override releasing the room's current occupant into history.
func (h *StaffHandler) ForceDeallocate(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Inventory.ForceDeallocate(c.Request().Context(), roomID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "deallocated": true})
}

// ForceUnlock handles DELETE /v1/staff/rooms/:id/lock.  Admin override
// releasing a reservation lock regardless of its holder.
func (h *StaffHandler) ForceUnlock(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Locks.Unlock(c.Request().Context(), roomID, 0, true); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": true})
}

// RemoveRoom handles DELETE /v1/staff/rooms/:id.
func (h *StaffHandler) RemoveRoom(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Inventory.RemoveRoom(c.Request().Context(), roomID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"removed": true})
}

// FloorView handles GET /v1/staff/rooms.  Returns every room with its
// floor-plan cache fields: the live occupancy picture.
func (h *StaffHandler) FloorView(c echo.Context) error {
	rooms, err := h.Inventory.FloorView(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// RoomHistory handles GET /v1/staff/rooms/:id/history.
func (h *StaffHandler) RoomHistory(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	history, err := h.Inventory.RoomHistory(c.Request().Context(), roomID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"history": history})
}

// RoomSchedule handles GET /v1/staff/rooms/:id/schedule.  Returns the
// room's forward calendar: ACTIVE ledger claims plus maintenance blocks.
func (h *StaffHandler) RoomSchedule(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	entries, blocks, err := h.Inventory.RoomSchedule(c.Request().Context(), roomID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"allocations": entries, "maintenance": blocks})
}

// Reconcile handles GET /v1/staff/reconciliation.  Reports every
// disagreement between the floor-plan cache and the allocation ledger;
// nothing is auto-corrected.
func (h *StaffHandler) Reconcile(c echo.Context) error {
	findings, err := h.Inventory.Reconcile(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"consistent": len(findings) == 0, "findings": findings})
}
