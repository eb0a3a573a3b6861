package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rodeoware/ropingapi/core"
	"github.com/rodeoware/ropingapi/models"
)

// ListRuns returns an event's runs, optionally filtered by round.
func (h *Handler) ListRuns(c echo.Context) error {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		return err
	}

	var rows []models.Run
	q := h.db.NewSelect().
		Model(&rows).
		Where("event_id = ?", eventID).
		Order("round ASC", "position ASC")

	if rp := c.QueryParam("round"); rp != "" {
		round, err := strconv.ParseInt(rp, 10, 64)
		if err != nil || round < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid round")
		}
		q = q.Where("round = ?", round)
	}

	if err := q.Scan(c.Request().Context()); err != nil {
		return httpError(err)
	}
	if rows == nil {
		rows = []models.Run{}
	}
	return c.JSON(http.StatusOK, rows)
}

// runExpanded is a Run joined with roster names.
type runExpanded struct {
	models.Run
	HeaderName string `bun:"header_name" json:"headerName"`
	HeelerName string `bun:"heeler_name" json:"heelerName"`
}

// ListRunsExpanded returns runs with header and heeler names for
// announcer and scoreboard views.
func (h *Handler) ListRunsExpanded(c echo.Context) error {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		return err
	}

	q := h.db.NewSelect().
		Model((*models.Run)(nil)).
		ColumnExpr("r.*").
		ColumnExpr("(rh.first_name || ' ' || rh.last_name) AS header_name").
		ColumnExpr("(rhe.first_name || ' ' || rhe.last_name) AS heeler_name").
		Join("JOIN teams t ON r.team_id = t.id").
		Join("JOIN ropers rh ON t.header_id = rh.id").
		Join("JOIN ropers rhe ON t.heeler_id = rhe.id").
		Where("r.event_id = ?", eventID).
		Order("r.round ASC", "r.position ASC")

	if rp := c.QueryParam("round"); rp != "" {
		round, err := strconv.ParseInt(rp, 10, 64)
		if err != nil || round < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid round")
		}
		q = q.Where("r.round = ?", round)
	}

	var rows []runExpanded
	if err := q.Scan(c.Request().Context(), &rows); err != nil {
		return httpError(err)
	}
	if rows == nil {
		rows = []runExpanded{}
	}
	return c.JSON(http.StatusOK, rows)
}

type runSubmit struct {
	EventID  int64    `json:"eventID"`
	TeamID   int64    `json:"teamID"`
	Round    int64    `json:"round"`
	Position int64    `json:"position"`
	TimeSec  *float64 `json:"timeSec"`
	Penalty  float64  `json:"penalty"`
	NoTime   bool     `json:"noTime"`
	DQ       bool     `json:"dq"`
}

// SaveRun captures a run result and cascades the team's later rounds.
func (h *Handler) SaveRun(c echo.Context) error {
	var in runSubmit
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	id, err := h.engine.RecordRun(ctx, core.RunResult{
		EventID:    in.EventID,
		TeamID:     in.TeamID,
		Round:      in.Round,
		Position:   in.Position,
		TimeSec:    in.TimeSec,
		Penalty:    in.Penalty,
		NoTime:     in.NoTime,
		DQ:         in.DQ,
		CapturedBy: h.currentUserID(c),
	})
	if err != nil {
		return httpError(err)
	}

	h.audit.Record(ctx, "run.save", "run", id, h.currentUserID(c), "")
	return c.JSON(http.StatusOK, map[string]int64{"id": id})
}
