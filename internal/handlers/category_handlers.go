package handlers

import (
	"net/http"

	"homestock/internal/common"
	"homestock/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CategoryHandlers handles category tree HTTP requests
type CategoryHandlers struct {
	categoryService services.CategoryService
}

func NewCategoryHandlers(categoryService services.CategoryService) *CategoryHandlers {
	return &CategoryHandlers{categoryService: categoryService}
}

// CreateCategoryRequest represents the category creation payload
type CreateCategoryRequest struct {
	Name     string     `json:"name" validate:"required"`
	ParentID *uuid.UUID `json:"parent_id"`
}

func (h *CategoryHandlers) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	category, err := h.categoryService.Create(ctx, householdID, req.Name, req.ParentID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategoryRequest renames a category, moves it, or both.
type UpdateCategoryRequest struct {
	Name        *string    `json:"name"`
	NewParentID *uuid.UUID `json:"new_parent_id"`
	Move        bool       `json:"move"`
}

func (h *CategoryHandlers) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Name == nil && !req.Move {
		return echo.NewHTTPError(http.StatusBadRequest, "Nothing to update")
	}

	if req.Move {
		if _, err := h.categoryService.Move(ctx, householdID, id, req.NewParentID); err != nil {
			return httpError(err)
		}
	}
	if req.Name != nil {
		if _, err := h.categoryService.Rename(ctx, householdID, id, *req.Name); err != nil {
			return httpError(err)
		}
	}

	category, err := h.categoryService.GetByID(ctx, householdID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory removes the category and its whole subtree. Items keep
// living with their category reference cleared.
func (h *CategoryHandlers) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.categoryService.Delete(ctx, householdID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CategoryHandlers) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	category, err := h.categoryService.GetByID(ctx, householdID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandlers) GetCategoryTree(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	tree, err := h.categoryService.GetTree(ctx, householdID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"categories": tree,
	})
}
