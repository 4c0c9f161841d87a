package handlers

import (
	"net/http"

	"homestock/internal/common"
	"homestock/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CabinetHandlers handles cabinet HTTP requests
type CabinetHandlers struct {
	cabinetService services.CabinetService
}

func NewCabinetHandlers(cabinetService services.CabinetService) *CabinetHandlers {
	return &CabinetHandlers{cabinetService: cabinetService}
}

// CabinetRequest is the create/update payload. RoomName is the display name
// for the room reference; the audit trail stores names.
type CabinetRequest struct {
	Name        string     `json:"name" validate:"required"`
	RoomID      *uuid.UUID `json:"room_id"`
	RoomName    *string    `json:"room_name"`
	OldRoomName *string    `json:"old_room_name"`
}

func (h *CabinetHandlers) CreateCabinet(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	var req CabinetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	cabinet, err := h.cabinetService.Create(ctx, householdID, &services.CabinetUpdate{
		Name:     req.Name,
		RoomID:   req.RoomID,
		RoomName: req.RoomName,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, cabinet)
}

func (h *CabinetHandlers) UpdateCabinet(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req CabinetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	cabinet, err := h.cabinetService.Update(ctx, householdID, id, &services.CabinetUpdate{
		Name:     req.Name,
		RoomID:   req.RoomID,
		RoomName: req.RoomName,
	}, req.OldRoomName)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cabinet)
}

func (h *CabinetHandlers) DeleteCabinet(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var roomName *string
	if v := c.QueryParam("room_name"); v != "" {
		roomName = &v
	}

	if err := h.cabinetService.Delete(ctx, householdID, id, roomName); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CabinetHandlers) GetCabinet(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cabinet, err := h.cabinetService.GetByID(ctx, householdID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cabinet)
}

// ListCabinetsRequest represents query parameters for listing cabinets
type ListCabinetsRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

func (h *CabinetHandlers) ListCabinets(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	var req ListCabinetsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	cabinets, err := h.cabinetService.List(ctx, householdID, req.Limit, req.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"cabinets": cabinets,
		"limit":    req.Limit,
		"offset":   req.Offset,
	})
}
