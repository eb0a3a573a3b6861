package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/rodeoware/ropingapi/apperr"
	"github.com/rodeoware/ropingapi/models"
)

// eventSummary is an Event plus a live team count and the computed pot.
type eventSummary struct {
	models.Event
	TeamsCount int64   `bun:"teams_count" json:"teamsCount"`
	TotalPot   float64 `bun:"total_pot" json:"totalPot"`
}

// ListEvents returns live events, optionally filtered by series.
func (h *Handler) ListEvents(c echo.Context) error {
	q := h.db.NewSelect().
		Model((*models.Event)(nil)).
		ColumnExpr("e.*").
		ColumnExpr("(SELECT COUNT(*) FROM teams t WHERE t.event_id = e.id AND t.status = ?) AS teams_count", models.TeamStatusActive).
		ColumnExpr("COALESCE(e.prize_pool, 0) + COALESCE(e.entry_fee, 0) * (SELECT COUNT(*) FROM teams t WHERE t.event_id = e.id AND t.status = ?) AS total_pot", models.TeamStatusActive).
		Where("e.is_deleted = ?", false).
		Order("e.date ASC", "e.id ASC")

	if sid := c.QueryParam("seriesID"); sid != "" {
		id, err := strconv.ParseInt(sid, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid seriesID")
		}
		q = q.Where("e.series_id = ?", id)
	}

	var rows []eventSummary
	if err := q.Scan(c.Request().Context(), &rows); err != nil {
		return httpError(err)
	}
	if rows == nil {
		rows = []eventSummary{}
	}
	return c.JSON(http.StatusOK, rows)
}

type eventCreate struct {
	SeriesID         int64    `json:"seriesID"`
	Name             string   `json:"name"`
	Date             string   `json:"date"`
	Status           string   `json:"status"`
	Rounds           int64    `json:"rounds"`
	Location         *string  `json:"location"`
	EntryFee         *float64 `json:"entryFee"`
	PrizePool        *float64 `json:"prizePool"`
	MaxTeamRating    *float64 `json:"maxTeamRating"`
	PayoffAllocation *string  `json:"payoffAllocation"`
}

// CreateEvent inserts a new event under a live series. Legacy status
// names are normalized before validation.
func (h *Handler) CreateEvent(c echo.Context) error {
	var in eventCreate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return httpError(apperr.Validation("event name is required"))
	}
	if in.Rounds < 1 {
		return httpError(apperr.Validation("rounds must be at least 1"))
	}
	status := models.NormalizeEventStatus(in.Status)

	ctx := c.Request().Context()
	exists, err := h.db.NewSelect().
		Model((*models.Series)(nil)).
		Where("id = ?", in.SeriesID).
		Where("is_deleted = ?", false).
		Exists(ctx)
	if err != nil {
		return httpError(err)
	}
	if !exists {
		return httpError(apperr.NotFound("series %d not found", in.SeriesID))
	}

	event := &models.Event{
		SeriesID:         in.SeriesID,
		Name:             in.Name,
		Date:             in.Date,
		Status:           status,
		Rounds:           in.Rounds,
		Location:         in.Location,
		EntryFee:         in.EntryFee,
		PrizePool:        in.PrizePool,
		MaxTeamRating:    in.MaxTeamRating,
		PayoffAllocation: in.PayoffAllocation,
	}
	if _, err := h.db.NewInsert().Model(event).Exec(ctx); err != nil {
		return httpError(err)
	}

	h.audit.Record(ctx, "event.create", "event", event.ID, h.currentUserID(c), event.Name)
	return c.JSON(http.StatusCreated, event)
}

type eventPatch struct {
	Name             *string  `json:"name"`
	Date             *string  `json:"date"`
	Rounds           *int64   `json:"rounds"`
	Location         *string  `json:"location"`
	EntryFee         *float64 `json:"entryFee"`
	PrizePool        *float64 `json:"prizePool"`
	MaxTeamRating    *float64 `json:"maxTeamRating"`
	PayoffAllocation *string  `json:"payoffAllocation"`
}

// UpdateEvent applies a partial update to a live event.
func (h *Handler) UpdateEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in eventPatch
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	q := h.db.NewUpdate().
		Model((*models.Event)(nil)).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Where("is_deleted = ?", false)

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return httpError(apperr.Validation("event name cannot be empty"))
		}
		q = q.Set("name = ?", name)
	}
	if in.Date != nil {
		q = q.Set("date = ?", *in.Date)
	}
	if in.Rounds != nil {
		if *in.Rounds < 1 {
			return httpError(apperr.Validation("rounds must be at least 1"))
		}
		q = q.Set("rounds = ?", *in.Rounds)
	}
	if in.Location != nil {
		q = q.Set("location = ?", *in.Location)
	}
	if in.EntryFee != nil {
		q = q.Set("entry_fee = ?", *in.EntryFee)
	}
	if in.PrizePool != nil {
		q = q.Set("prize_pool = ?", *in.PrizePool)
	}
	if in.MaxTeamRating != nil {
		q = q.Set("max_team_rating = ?", *in.MaxTeamRating)
	}
	if in.PayoffAllocation != nil {
		q = q.Set("payoff_allocation = ?", *in.PayoffAllocation)
	}

	ctx := c.Request().Context()
	res, err := q.Exec(ctx)
	if err != nil {
		return httpError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return httpError(apperr.NotFound("event %d not found", id))
	}

	h.audit.Record(ctx, "event.update", "event", id, h.currentUserID(c), "")
	return c.NoContent(http.StatusNoContent)
}

type eventStatusUpdate struct {
	Status string `json:"status"`
}

// UpdateEventStatus sets an event's status. Legacy names are
// normalized first.
func (h *Handler) UpdateEventStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in eventStatusUpdate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	status := models.NormalizeEventStatus(in.Status)

	ctx := c.Request().Context()
	res, err := h.db.NewUpdate().
		Model((*models.Event)(nil)).
		Set("status = ?", status).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Where("is_deleted = ?", false).
		Exec(ctx)
	if err != nil {
		return httpError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return httpError(apperr.NotFound("event %d not found", id))
	}

	h.audit.Record(ctx, "event.status", "event", id, h.currentUserID(c), status)
	return c.NoContent(http.StatusNoContent)
}

// LockEvent freezes an event so its records become read-only for
// batch draw generation and roster changes.
func (h *Handler) LockEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	res, err := h.db.NewUpdate().
		Model((*models.Event)(nil)).
		Set("status = ?", models.EventStatusLocked).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Where("is_deleted = ?", false).
		Exec(ctx)
	if err != nil {
		return httpError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return httpError(apperr.NotFound("event %d not found", id))
	}

	h.audit.Record(ctx, "event.lock", "event", id, h.currentUserID(c), "")
	return c.NoContent(http.StatusNoContent)
}

// DuplicateEvent clones an event's settings into a fresh upcoming
// event. Locked events cannot be duplicated.
func (h *Handler) DuplicateEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	src := &models.Event{}
	err = h.db.NewSelect().
		Model(src).
		Where("id = ?", id).
		Where("is_deleted = ?", false).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return httpError(apperr.NotFound("event %d not found", id))
	}
	if err != nil {
		return httpError(err)
	}
	if src.Status == models.EventStatusLocked {
		return httpError(apperr.State("event %d is locked", id))
	}

	dup := &models.Event{
		SeriesID:         src.SeriesID,
		Name:             src.Name + " (Copy)",
		Date:             src.Date,
		Status:           models.EventStatusUpcoming,
		Rounds:           src.Rounds,
		Location:         src.Location,
		EntryFee:         src.EntryFee,
		PrizePool:        src.PrizePool,
		MaxTeamRating:    src.MaxTeamRating,
		PayoffAllocation: src.PayoffAllocation,
	}
	if _, err := h.db.NewInsert().Model(dup).Exec(ctx); err != nil {
		return httpError(err)
	}

	h.audit.Record(ctx, "event.duplicate", "event", dup.ID, h.currentUserID(c), src.Name)
	return c.JSON(http.StatusCreated, dup)
}

// DeleteEvent soft deletes an event.
func (h *Handler) DeleteEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	res, err := h.db.NewUpdate().
		Model((*models.Event)(nil)).
		Set("is_deleted = ?", true).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Where("is_deleted = ?", false).
		Exec(ctx)
	if err != nil {
		return httpError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return httpError(apperr.NotFound("event %d not found", id))
	}

	h.audit.Record(ctx, "event.delete", "event", id, h.currentUserID(c), "")
	return c.NoContent(http.StatusNoContent)
}

// dashboardStats rolls up headline figures for the landing page.
type dashboardStats struct {
	SeriesCount    int64   `json:"seriesCount"`
	EventCount     int64   `json:"eventCount"`
	RoperCount     int64   `json:"roperCount"`
	TeamCount      int64   `json:"teamCount"`
	TotalPot       float64 `json:"totalPot"`
	UpcomingEvents int64   `json:"upcomingEvents"`
	CompletedRuns  int64   `json:"completedRuns"`
	TotalRuns      int64   `json:"totalRuns"`
}

// DashboardStats returns global counts, pot total, events in the next
// 30 days and overall run progress.
func (h *Handler) DashboardStats(c echo.Context) error {
	ctx := c.Request().Context()
	var out dashboardStats

	count := func(q *bun.SelectQuery) (int64, error) {
		n, err := q.Count(ctx)
		return int64(n), err
	}

	var err error
	if out.SeriesCount, err = count(h.db.NewSelect().Model((*models.Series)(nil)).Where("is_deleted = ?", false)); err != nil {
		return httpError(err)
	}
	if out.EventCount, err = count(h.db.NewSelect().Model((*models.Event)(nil)).Where("is_deleted = ?", false)); err != nil {
		return httpError(err)
	}
	if out.RoperCount, err = count(h.db.NewSelect().Model((*models.Roper)(nil)).Where("is_active = ?", true)); err != nil {
		return httpError(err)
	}
	if out.TeamCount, err = count(h.db.NewSelect().Model((*models.Team)(nil)).Where("status = ?", models.TeamStatusActive)); err != nil {
		return httpError(err)
	}

	err = h.db.NewSelect().
		Model((*models.Event)(nil)).
		ColumnExpr("COALESCE(SUM(COALESCE(e.prize_pool, 0) + COALESCE(e.entry_fee, 0) * (SELECT COUNT(*) FROM teams t WHERE t.event_id = e.id AND t.status = ?)), 0)", models.TeamStatusActive).
		Where("e.is_deleted = ?", false).
		Where("e.status IN (?)", bun.In([]string{models.EventStatusActive, models.EventStatusCompleted, models.EventStatusLocked})).
		Scan(ctx, &out.TotalPot)
	if err != nil {
		return httpError(err)
	}

	now := time.Now().UTC()
	horizon := now.AddDate(0, 0, 30)
	if out.UpcomingEvents, err = count(h.db.NewSelect().
		Model((*models.Event)(nil)).
		Where("is_deleted = ?", false).
		Where("date >= ?", now.Format("2006-01-02")).
		Where("date <= ?", horizon.Format("2006-01-02"))); err != nil {
		return httpError(err)
	}

	if out.CompletedRuns, err = count(h.db.NewSelect().Model((*models.Run)(nil)).Where("status = ?", models.RunStatusCompleted)); err != nil {
		return httpError(err)
	}
	if out.TotalRuns, err = count(h.db.NewSelect().Model((*models.Run)(nil))); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, out)
}
