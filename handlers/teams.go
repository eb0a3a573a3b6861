package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rodeoware/ropingapi/apperr"
	"github.com/rodeoware/ropingapi/models"
)

// teamWithNames is a Team plus roster display names.
type teamWithNames struct {
	models.Team
	HeaderName string `bun:"header_name" json:"headerName"`
	HeelerName string `bun:"heeler_name" json:"heelerName"`
}

// ListTeams returns an event's active teams with roper names.
func (h *Handler) ListTeams(c echo.Context) error {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		return err
	}

	var rows []teamWithNames
	err = h.db.NewSelect().
		Model((*models.Team)(nil)).
		ColumnExpr("t.*").
		ColumnExpr("(rh.first_name || ' ' || rh.last_name) AS header_name").
		ColumnExpr("(rhe.first_name || ' ' || rhe.last_name) AS heeler_name").
		Join("JOIN ropers rh ON t.header_id = rh.id").
		Join("JOIN ropers rhe ON t.heeler_id = rhe.id").
		Where("t.event_id = ?", eventID).
		Where("t.status = ?", models.TeamStatusActive).
		Order("t.id ASC").
		Scan(c.Request().Context(), &rows)
	if err != nil {
		return httpError(err)
	}
	if rows == nil {
		rows = []teamWithNames{}
	}
	return c.JSON(http.StatusOK, rows)
}

type teamCreate struct {
	EventID  int64   `json:"eventID"`
	HeaderID int64   `json:"headerID"`
	HeelerID int64   `json:"heelerID"`
	Rating   float64 `json:"rating"`
}

// CreateTeam enters a header/heeler pair into an event. The event
// must not be locked and the pair must not already be entered.
func (h *Handler) CreateTeam(c echo.Context) error {
	var in teamCreate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.HeaderID == in.HeelerID {
		return httpError(apperr.Validation("header and heeler must be different ropers"))
	}

	ctx := c.Request().Context()

	var status string
	err := h.db.NewSelect().
		Model((*models.Event)(nil)).
		Column("status").
		Where("id = ?", in.EventID).
		Where("is_deleted = ?", false).
		Scan(ctx, &status)
	if err != nil {
		return httpError(apperr.NotFound("event %d not found", in.EventID))
	}
	if status == models.EventStatusLocked {
		return httpError(apperr.State("event %d is locked", in.EventID))
	}

	for _, roperID := range []int64{in.HeaderID, in.HeelerID} {
		exists, err := h.db.NewSelect().
			Model((*models.Roper)(nil)).
			Where("id = ?", roperID).
			Where("is_active = ?", true).
			Exists(ctx)
		if err != nil {
			return httpError(err)
		}
		if !exists {
			return httpError(apperr.NotFound("roper %d not found", roperID))
		}
	}

	dup, err := h.db.NewSelect().
		Model((*models.Team)(nil)).
		Where("event_id = ?", in.EventID).
		Where("header_id = ?", in.HeaderID).
		Where("heeler_id = ?", in.HeelerID).
		Exists(ctx)
	if err != nil {
		return httpError(err)
	}
	if dup {
		return httpError(apperr.Conflict("team already entered in event %d", in.EventID))
	}

	team := &models.Team{
		EventID:  in.EventID,
		HeaderID: in.HeaderID,
		HeelerID: in.HeelerID,
		Rating:   in.Rating,
		Status:   models.TeamStatusActive,
	}
	if _, err := h.db.NewInsert().Model(team).Exec(ctx); err != nil {
		return httpError(err)
	}

	h.audit.Record(ctx, "team.create", "team", team.ID, h.currentUserID(c), "")
	return c.JSON(http.StatusCreated, team)
}

type teamPatch struct {
	Rating *float64 `json:"rating"`
	Status *string  `json:"status"`
}

// UpdateTeam changes a team's rating or status.
func (h *Handler) UpdateTeam(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in teamPatch
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	q := h.db.NewUpdate().
		Model((*models.Team)(nil)).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id)

	if in.Rating != nil {
		q = q.Set("rating = ?", *in.Rating)
	}
	if in.Status != nil {
		if *in.Status != models.TeamStatusActive && *in.Status != models.TeamStatusInactive {
			return httpError(apperr.Validation("invalid team status %q", *in.Status))
		}
		q = q.Set("status = ?", *in.Status)
	}

	ctx := c.Request().Context()
	res, err := q.Exec(ctx)
	if err != nil {
		return httpError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return httpError(apperr.NotFound("team %d not found", id))
	}

	h.audit.Record(ctx, "team.update", "team", id, h.currentUserID(c), "")
	return c.NoContent(http.StatusNoContent)
}

// DeleteTeam withdraws a team from its event, keeping its run history.
func (h *Handler) DeleteTeam(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	res, err := h.db.NewUpdate().
		Model((*models.Team)(nil)).
		Set("status = ?", models.TeamStatusInactive).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Where("status = ?", models.TeamStatusActive).
		Exec(ctx)
	if err != nil {
		return httpError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return httpError(apperr.NotFound("team %d not found", id))
	}

	h.audit.Record(ctx, "team.delete", "team", id, h.currentUserID(c), "")
	return c.NoContent(http.StatusNoContent)
}

// DeleteEventTeams hard deletes every team of an event. Used when
// resetting an event before the draw exists.
func (h *Handler) DeleteEventTeams(c echo.Context) error {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var status string
	err = h.db.NewSelect().
		Model((*models.Event)(nil)).
		Column("status").
		Where("id = ?", eventID).
		Where("is_deleted = ?", false).
		Scan(ctx, &status)
	if err != nil {
		return httpError(apperr.NotFound("event %d not found", eventID))
	}
	if status == models.EventStatusLocked {
		return httpError(apperr.State("event %d is locked", eventID))
	}

	res, err := h.db.NewDelete().
		Model((*models.Team)(nil)).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return httpError(err)
	}
	n, _ := res.RowsAffected()

	h.audit.Record(ctx, "team.delete_all", "event", eventID, h.currentUserID(c), "")
	return c.JSON(http.StatusOK, map[string]int64{"deleted": n})
}
