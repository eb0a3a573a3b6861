package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rodeoware/ropingapi/apperr"
	"github.com/rodeoware/ropingapi/models"
)

// ListPayoffRules returns an event's active rules ordered by position.
func (h *Handler) ListPayoffRules(c echo.Context) error {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		return err
	}

	var rows []models.PayoffRule
	err = h.db.NewSelect().
		Model(&rows).
		Where("event_id = ?", eventID).
		Where("is_active = ?", true).
		Order("position ASC").
		Scan(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if rows == nil {
		rows = []models.PayoffRule{}
	}
	return c.JSON(http.StatusOK, rows)
}

type payoffCreate struct {
	EventID    int64   `json:"eventID"`
	Position   int64   `json:"position"`
	Percentage float64 `json:"percentage"`
}

// CreatePayoffRule adds a payout rule, or reactivates and updates a
// previously deleted rule for the same position.
func (h *Handler) CreatePayoffRule(c echo.Context) error {
	var in payoffCreate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.Position < 1 {
		return httpError(apperr.Validation("position must be at least 1"))
	}
	if in.Percentage < 0 || in.Percentage > 1 {
		return httpError(apperr.Validation("percentage must be between 0 and 1"))
	}

	ctx := c.Request().Context()
	exists, err := h.db.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", in.EventID).
		Where("is_deleted = ?", false).
		Exists(ctx)
	if err != nil {
		return httpError(err)
	}
	if !exists {
		return httpError(apperr.NotFound("event %d not found", in.EventID))
	}

	rule := &models.PayoffRule{
		EventID:    in.EventID,
		Position:   in.Position,
		Percentage: in.Percentage,
		IsActive:   true,
	}
	if _, err := h.db.NewInsert().
		Model(rule).
		On("CONFLICT (event_id, position) DO UPDATE").
		Set("percentage = EXCLUDED.percentage").
		Set("is_active = ?", true).
		Exec(ctx); err != nil {
		return httpError(err)
	}

	h.audit.Record(ctx, "payoff.create", "event", in.EventID, h.currentUserID(c), "")
	return c.JSON(http.StatusCreated, rule)
}

// DeletePayoffRule deactivates a rule.
func (h *Handler) DeletePayoffRule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	res, err := h.db.NewUpdate().
		Model((*models.PayoffRule)(nil)).
		Set("is_active = ?", false).
		Where("id = ?", id).
		Where("is_active = ?", true).
		Exec(ctx)
	if err != nil {
		return httpError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return httpError(apperr.NotFound("payoff rule %d not found", id))
	}

	h.audit.Record(ctx, "payoff.delete", "payoff_rule", id, h.currentUserID(c), "")
	return c.NoContent(http.StatusNoContent)
}

// PayoutBreakdown returns the computed settlement for an event.
func (h *Handler) PayoutBreakdown(c echo.Context) error {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		return err
	}

	breakdown, err := h.engine.Payouts(c.Request().Context(), eventID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, breakdown)
}
