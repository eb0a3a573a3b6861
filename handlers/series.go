package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/rodeoware/ropingapi/apperr"
	"github.com/rodeoware/ropingapi/models"
)

// seriesSummary is a Series plus roll-up figures over its events.
type seriesSummary struct {
	models.Series
	EventCount      int64 `bun:"event_count" json:"eventCount"`
	CompletedEvents int64 `bun:"completed_events" json:"completedEvents"`
}

// ListSeries returns all live series with event counts and completion
// progress, newest first.
func (h *Handler) ListSeries(c echo.Context) error {
	var rows []seriesSummary
	err := h.db.NewSelect().
		Model((*models.Series)(nil)).
		ColumnExpr("s.*").
		ColumnExpr("(SELECT COUNT(*) FROM events e WHERE e.series_id = s.id AND e.is_deleted = ?) AS event_count", false).
		ColumnExpr("(SELECT COUNT(*) FROM events e WHERE e.series_id = s.id AND e.is_deleted = ? AND e.status = ?) AS completed_events", false, models.EventStatusCompleted).
		Where("s.is_deleted = ?", false).
		Order("s.id DESC").
		Scan(c.Request().Context(), &rows)
	if err != nil {
		return httpError(err)
	}
	if rows == nil {
		rows = []seriesSummary{}
	}
	return c.JSON(http.StatusOK, rows)
}

type seriesCreate struct {
	Name      string  `json:"name"`
	Season    string  `json:"season"`
	Status    string  `json:"status"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// CreateSeries inserts a new series.
func (h *Handler) CreateSeries(c echo.Context) error {
	var in seriesCreate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return httpError(apperr.Validation("series name is required"))
	}
	if in.Status == "" {
		in.Status = models.SeriesStatusUpcoming
	}
	if !models.ValidSeriesStatus(in.Status) {
		return httpError(apperr.Validation("invalid series status %q", in.Status))
	}

	series := &models.Series{
		Name:      in.Name,
		Season:    in.Season,
		Status:    in.Status,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
	}
	if _, err := h.db.NewInsert().Model(series).Exec(c.Request().Context()); err != nil {
		return httpError(err)
	}

	h.audit.Record(c.Request().Context(), "series.create", "series", series.ID, h.currentUserID(c), series.Name)
	return c.JSON(http.StatusCreated, series)
}

type seriesPatch struct {
	Name      *string `json:"name"`
	Season    *string `json:"season"`
	Status    *string `json:"status"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// UpdateSeries applies a partial update to a live series.
func (h *Handler) UpdateSeries(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in seriesPatch
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	q := h.db.NewUpdate().
		Model((*models.Series)(nil)).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Where("is_deleted = ?", false)

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return httpError(apperr.Validation("series name cannot be empty"))
		}
		q = q.Set("name = ?", name)
	}
	if in.Season != nil {
		q = q.Set("season = ?", *in.Season)
	}
	if in.Status != nil {
		if !models.ValidSeriesStatus(*in.Status) {
			return httpError(apperr.Validation("invalid series status %q", *in.Status))
		}
		q = q.Set("status = ?", *in.Status)
	}
	if in.StartDate != nil {
		q = q.Set("start_date = ?", *in.StartDate)
	}
	if in.EndDate != nil {
		q = q.Set("end_date = ?", *in.EndDate)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return httpError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return httpError(apperr.NotFound("series %d not found", id))
	}

	h.audit.Record(ctx, "series.update", "series", id, h.currentUserID(c), "")
	return c.NoContent(http.StatusNoContent)
}

// DeleteSeries soft deletes a series and its events in one
// transaction. Refused while the series has a locked event.
func (h *Handler) DeleteSeries(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	err = h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Series)(nil)).
			Where("id = ?", id).
			Where("is_deleted = ?", false).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("series %d not found", id)
		}

		locked, err := tx.NewSelect().
			Model((*models.Event)(nil)).
			Where("series_id = ?", id).
			Where("is_deleted = ?", false).
			Where("status = ?", models.EventStatusLocked).
			Exists(ctx)
		if err != nil {
			return err
		}
		if locked {
			return apperr.State("series %d has locked events", id)
		}

		if _, err := tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("is_deleted = ?", true).
			Set("updated_at = CURRENT_TIMESTAMP").
			Where("series_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, err = tx.NewUpdate().
			Model((*models.Series)(nil)).
			Set("is_deleted = ?", true).
			Set("updated_at = CURRENT_TIMESTAMP").
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		return httpError(err)
	}

	h.audit.Record(ctx, "series.delete", "series", id, h.currentUserID(c), "")
	return c.NoContent(http.StatusNoContent)
}
