package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Standings returns the ranked leaderboard for an event.
func (h *Handler) Standings(c echo.Context) error {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		return err
	}

	standings, err := h.engine.Standings(c.Request().Context(), eventID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, standings)
}
