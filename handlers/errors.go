package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rodeoware/ropingapi/apperr"
)

// httpError maps application error kinds onto HTTP status codes.
func httpError(err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case apperr.KindValidation:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case apperr.KindState, apperr.KindConflict:
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case apperr.KindEmptyInput:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// pathID parses a positive int64 path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// currentUserID resolves the authenticated username to a user id.
// Returns nil when the token's user no longer exists.
func (h *Handler) currentUserID(c echo.Context) *int64 {
	username, _ := c.Get("username").(string)
	if username == "" {
		return nil
	}
	var id int64
	err := h.db.NewSelect().
		TableExpr("users").
		ColumnExpr("id").
		Where("username = ?", username).
		Scan(c.Request().Context(), &id)
	if err != nil {
		return nil
	}
	return &id
}
