package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func limitParam(c echo.Context) int {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return limit
}

// RecentActivity returns the latest audit entries.
func (h *Handler) RecentActivity(c echo.Context) error {
	rows, err := h.audit.Recent(c.Request().Context(), limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// SeriesActivity returns audit entries for one series, including
// entries of the series' events.
func (h *Handler) SeriesActivity(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rows, err := h.audit.ForSeries(c.Request().Context(), id, limitParam(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rows)
}
