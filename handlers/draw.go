package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rodeoware/ropingapi/models"
)

// drawEntryExpanded is a DrawEntry joined with the team's roper ids.
type drawEntryExpanded struct {
	models.DrawEntry
	HeaderID int64 `bun:"header_id" json:"headerID"`
	HeelerID int64 `bun:"heeler_id" json:"heelerID"`
}

// GetDraw returns the running order of one round.
func (h *Handler) GetDraw(c echo.Context) error {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		return err
	}
	round, err := strconv.ParseInt(c.QueryParam("round"), 10, 64)
	if err != nil || round < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid round")
	}

	var rows []drawEntryExpanded
	err = h.db.NewSelect().
		Model((*models.DrawEntry)(nil)).
		ColumnExpr("d.*").
		ColumnExpr("t.header_id AS header_id").
		ColumnExpr("t.heeler_id AS heeler_id").
		Join("JOIN teams t ON d.team_id = t.id").
		Where("d.event_id = ?", eventID).
		Where("d.round = ?", round).
		Order("d.position ASC").
		Scan(c.Request().Context(), &rows)
	if err != nil {
		return httpError(err)
	}
	if rows == nil {
		rows = []drawEntryExpanded{}
	}
	return c.JSON(http.StatusOK, rows)
}

type drawGenerate struct {
	Round    int64 `json:"round"`
	// Both default to true when omitted.
	Reseed   *bool `json:"reseed"`
	SeedRuns *bool `json:"seedRuns"`
}

// GenerateDraw builds the running order for a single round.
func (h *Handler) GenerateDraw(c echo.Context) error {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		return err
	}
	var in drawGenerate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	reseed, seedRuns := true, true
	if in.Reseed != nil {
		reseed = *in.Reseed
	}
	if in.SeedRuns != nil {
		seedRuns = *in.SeedRuns
	}

	ctx := c.Request().Context()
	n, err := h.engine.GenerateRound(ctx, eventID, in.Round, reseed, seedRuns)
	if err != nil {
		return httpError(err)
	}

	h.audit.Record(ctx, "draw.generate", "event", eventID, h.currentUserID(c), "")
	return c.JSON(http.StatusOK, map[string]int64{"teams": n})
}

type drawBatchGenerate struct {
	Rounds  int64 `json:"rounds"`
	Shuffle bool  `json:"shuffle"`
}

// GenerateDrawBatch builds running orders for several rounds at once,
// spacing out back-to-back appearances of the same roper.
func (h *Handler) GenerateDrawBatch(c echo.Context) error {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		return err
	}
	var in drawBatchGenerate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	n, err := h.engine.GenerateBatch(ctx, eventID, in.Rounds, in.Shuffle)
	if err != nil {
		return httpError(err)
	}

	h.audit.Record(ctx, "draw.generate_batch", "event", eventID, h.currentUserID(c), "")
	return c.JSON(http.StatusOK, map[string]int64{"slots": n})
}
