package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"homestock/internal/common"
	"homestock/internal/models"
	"homestock/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const photoURLExpiry = 15 * time.Minute

// ItemHandlers handles item and stock HTTP requests
type ItemHandlers struct {
	itemService  services.ItemService
	photoService services.PhotoService
}

func NewItemHandlers(itemService services.ItemService, photoService services.PhotoService) *ItemHandlers {
	return &ItemHandlers{itemService: itemService, photoService: photoService}
}

// CreateItemRequest represents the item creation payload
type CreateItemRequest struct {
	Name          string     `json:"name" validate:"required"`
	Description   *string    `json:"description"`
	Photo         *string    `json:"photo"`
	MinStockAlert int        `json:"min_stock_alert"`
	CategoryID    *uuid.UUID `json:"category_id"`
	CabinetID     *uuid.UUID `json:"cabinet_id"`
	Quantity      int        `json:"quantity"`
}

func (h *ItemHandlers) CreateItem(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	var req CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	item, err := h.itemService.Create(ctx, householdID, &services.ItemCreate{
		Name:          req.Name,
		Description:   req.Description,
		Photo:         req.Photo,
		MinStockAlert: req.MinStockAlert,
		CategoryID:    req.CategoryID,
		CabinetID:     req.CabinetID,
		Quantity:      req.Quantity,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

// UpdateItemRequest updates item metadata. The photo field is tri-state:
// omitted keeps the current photo, null clears it, a value replaces it.
// Raw JSON distinguishes "absent" from "null".
type UpdateItemRequest struct {
	Name          string          `json:"name" validate:"required"`
	Description   *string         `json:"description"`
	MinStockAlert int             `json:"min_stock_alert"`
	CategoryID    *uuid.UUID      `json:"category_id"`
	Photo         json.RawMessage `json:"photo"`
}

func (h *ItemHandlers) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	upd := &services.ItemUpdate{
		Name:          req.Name,
		Description:   req.Description,
		MinStockAlert: req.MinStockAlert,
		CategoryID:    req.CategoryID,
	}
	if len(req.Photo) > 0 {
		upd.PhotoProvided = true
		if string(req.Photo) != "null" {
			var photo string
			if err := json.Unmarshal(req.Photo, &photo); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid photo value")
			}
			if photo != "" {
				upd.Photo = &photo
			}
		}
	}

	var oldPhoto *string
	if upd.PhotoProvided {
		if current, err := h.itemService.GetByID(ctx, householdID, id); err == nil {
			oldPhoto = current.Photo
		}
	}

	item, err := h.itemService.Update(ctx, householdID, id, upd)
	if err != nil {
		return httpError(err)
	}
	h.deletePhotoObject(ctx, oldPhoto, item.Photo)
	return c.JSON(http.StatusOK, item)
}

// deletePhotoObject removes a replaced or cleared photo from object storage.
// Best effort: the item row is the source of truth, a stale object is only
// wasted space.
func (h *ItemHandlers) deletePhotoObject(ctx context.Context, old, current *string) {
	if h.photoService == nil || old == nil {
		return
	}
	if current != nil && *current == *old {
		return
	}
	if err := h.photoService.Delete(ctx, *old); err != nil {
		log.Printf("WARN: failed to delete photo object %s: %v", *old, err)
	}
}

func (h *ItemHandlers) DeleteItem(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var oldPhoto *string
	if current, err := h.itemService.GetByID(ctx, householdID, id); err == nil {
		oldPhoto = current.Photo
	}

	if err := h.itemService.Delete(ctx, householdID, id); err != nil {
		return httpError(err)
	}
	h.deletePhotoObject(ctx, oldPhoto, nil)
	return c.NoContent(http.StatusNoContent)
}

func (h *ItemHandlers) GetItem(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.itemService.GetByID(ctx, householdID, id)
	if err != nil {
		return httpError(err)
	}

	entries, err := h.itemService.StockEntries(ctx, householdID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"item":  item,
		"stock": entries,
	})
}

// SearchItemsRequest represents query parameters for item search
type SearchItemsRequest struct {
	Query      string `query:"q"`
	CabinetID  string `query:"cabinet_id"`
	CategoryID string `query:"category_id"`
	LowStock   bool   `query:"low_stock"`
	Limit      int    `query:"limit"`
	Offset     int    `query:"offset"`
}

func (h *ItemHandlers) SearchItems(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	var req SearchItemsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	filter := &models.ItemSearchFilter{
		Query:    req.Query,
		LowStock: req.LowStock,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if req.CabinetID != "" {
		cabinetID, err := common.ValidateUUID(req.CabinetID, "cabinet_id")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		filter.CabinetID = &cabinetID
	}
	if req.CategoryID != "" {
		categoryID, err := common.ValidateUUID(req.CategoryID, "category_id")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		filter.CategoryIDs = []uuid.UUID{categoryID}
	}

	items, err := h.itemService.Search(ctx, householdID, filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// AdjustStockRequest restocks or consumes at one location.
type AdjustStockRequest struct {
	CabinetID *uuid.UUID `json:"cabinet_id"`
	Delta     int        `json:"delta" validate:"required"`
}

func (h *ItemHandlers) AdjustStock(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	item, err := h.itemService.AdjustStock(ctx, householdID, id, req.CabinetID, req.Delta)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

// MoveStockRequest moves stock between two of the item's locations. A nil
// cabinet id denotes the unassigned location.
type MoveStockRequest struct {
	FromCabinetID *uuid.UUID `json:"from_cabinet_id"`
	ToCabinetID   *uuid.UUID `json:"to_cabinet_id"`
	Amount        int        `json:"amount" validate:"required,min=1"`
}

func (h *ItemHandlers) MoveStock(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req MoveStockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.itemService.MoveStock(ctx, householdID, id, req.FromCabinetID, req.ToCabinetID, req.Amount); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadPhoto stores a photo in object storage and returns the object key
// plus a short-lived URL. The key goes into the item via a normal update.
func (h *ItemHandlers) UploadPhoto(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}
	if h.photoService == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Photo storage not configured")
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing photo file")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable photo file")
	}
	defer src.Close()

	objectKey, err := h.photoService.Upload(ctx, householdID, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store photo")
	}

	url, err := h.photoService.PresignedURL(objectKey, photoURLExpiry)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sign photo URL")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"photo": objectKey,
		"url":   url,
	})
}
