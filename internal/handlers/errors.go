package handlers

import (
	"errors"
	"net/http"

	"homestock/internal/common"

	"github.com/labstack/echo/v4"
)

// httpError maps service errors onto HTTP statuses. Domain errors carry
// their own message; anything else is an opaque 500 so persistence details
// never leak to clients.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrInvalidDepth),
		errors.Is(err, common.ErrCycleDetected),
		errors.Is(err, common.ErrInsufficientStock):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal error")
	}
}
