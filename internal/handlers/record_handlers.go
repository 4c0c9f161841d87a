package handlers

import (
	"net/http"
	"time"

	"homestock/internal/common"
	"homestock/internal/models"
	"homestock/internal/services"

	"github.com/labstack/echo/v4"
)

// RecordHandlers handles audit trail HTTP requests
type RecordHandlers struct {
	recordService services.RecordService
}

func NewRecordHandlers(recordService services.RecordService) *RecordHandlers {
	return &RecordHandlers{recordService: recordService}
}

// ListRecordsRequest represents query parameters for the audit trail
type ListRecordsRequest struct {
	ID          string `query:"id"`
	OperateType *int16 `query:"operate_type"`
	EntityType  *int16 `query:"entity_type"`
	RecordType  *int16 `query:"record_type"`
	StartDate   string `query:"start_date"`
	EndDate     string `query:"end_date"`
	Limit       int    `query:"limit"`
	Offset      int    `query:"offset"`
}

func (r *ListRecordsRequest) toFilters() (*models.RecordFilters, error) {
	filters := &models.RecordFilters{
		OperateType: r.OperateType,
		EntityType:  r.EntityType,
		RecordType:  r.RecordType,
		Limit:       r.Limit,
		Offset:      r.Offset,
	}
	if r.ID != "" {
		id, err := common.ValidateUUID(r.ID, "id")
		if err != nil {
			return nil, err
		}
		filters.ID = &id
	}
	if r.StartDate != "" {
		start, err := time.Parse(time.RFC3339, r.StartDate)
		if err != nil {
			return nil, common.ErrInvalidArgument
		}
		filters.StartDate = &start
	}
	if r.EndDate != "" {
		end, err := time.Parse(time.RFC3339, r.EndDate)
		if err != nil {
			return nil, common.ErrInvalidArgument
		}
		filters.EndDate = &end
	}
	return filters, nil
}

func (h *RecordHandlers) ListRecords(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	var req ListRecordsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}
	filters, err := req.toFilters()
	if err != nil {
		return httpError(err)
	}

	records, err := h.recordService.List(ctx, householdID, filters)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"records": records,
		"limit":   filters.Limit,
		"offset":  filters.Offset,
	})
}

// PruneRecords deletes the records the filters select. History is otherwise
// immutable; this is the household's retention lever.
func (h *RecordHandlers) PruneRecords(c echo.Context) error {
	ctx := c.Request().Context()
	householdID, ok := common.GetHouseholdIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Household not found")
	}

	var req ListRecordsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}
	filters, err := req.toFilters()
	if err != nil {
		return httpError(err)
	}

	deleted, err := h.recordService.Prune(ctx, householdID, filters)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"deleted": deleted,
	})
}
