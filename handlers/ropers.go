package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rodeoware/ropingapi/apperr"
	"github.com/rodeoware/ropingapi/models"
)

// ListRopers returns all active ropers ordered by last name.
func (h *Handler) ListRopers(c echo.Context) error {
	var rows []models.Roper
	err := h.db.NewSelect().
		Model(&rows).
		Where("is_active = ?", true).
		Order("last_name ASC", "first_name ASC").
		Scan(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if rows == nil {
		rows = []models.Roper{}
	}
	return c.JSON(http.StatusOK, rows)
}

type roperCreate struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Specialty string  `json:"specialty"`
	Rating    int64   `json:"rating"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Level     string  `json:"level"`
}

// CreateRoper registers a new competitor.
func (h *Handler) CreateRoper(c echo.Context) error {
	var in roperCreate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.FirstName == "" || in.LastName == "" {
		return httpError(apperr.Validation("first and last name are required"))
	}
	if !models.ValidSpecialty(in.Specialty) {
		return httpError(apperr.Validation("invalid specialty %q", in.Specialty))
	}
	if in.Rating < 0 {
		return httpError(apperr.Validation("rating cannot be negative"))
	}
	if in.Level == "" {
		in.Level = models.LevelAmateur
	}
	if !models.ValidLevel(in.Level) {
		return httpError(apperr.Validation("invalid level %q", in.Level))
	}

	roper := &models.Roper{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Specialty: in.Specialty,
		Rating:    in.Rating,
		Phone:     in.Phone,
		Email:     in.Email,
		Level:     in.Level,
		IsActive:  true,
	}
	ctx := c.Request().Context()
	if _, err := h.db.NewInsert().Model(roper).Exec(ctx); err != nil {
		return httpError(err)
	}

	h.audit.Record(ctx, "roper.create", "roper", roper.ID, h.currentUserID(c), roper.FirstName+" "+roper.LastName)
	return c.JSON(http.StatusCreated, roper)
}

type roperPatch struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Specialty *string `json:"specialty"`
	Rating    *int64  `json:"rating"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Level     *string `json:"level"`
}

// UpdateRoper applies a partial update to an active roper.
func (h *Handler) UpdateRoper(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in roperPatch
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	q := h.db.NewUpdate().
		Model((*models.Roper)(nil)).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Where("is_active = ?", true)

	if in.FirstName != nil {
		name := strings.TrimSpace(*in.FirstName)
		if name == "" {
			return httpError(apperr.Validation("first name cannot be empty"))
		}
		q = q.Set("first_name = ?", name)
	}
	if in.LastName != nil {
		name := strings.TrimSpace(*in.LastName)
		if name == "" {
			return httpError(apperr.Validation("last name cannot be empty"))
		}
		q = q.Set("last_name = ?", name)
	}
	if in.Specialty != nil {
		if !models.ValidSpecialty(*in.Specialty) {
			return httpError(apperr.Validation("invalid specialty %q", *in.Specialty))
		}
		q = q.Set("specialty = ?", *in.Specialty)
	}
	if in.Rating != nil {
		if *in.Rating < 0 {
			return httpError(apperr.Validation("rating cannot be negative"))
		}
		q = q.Set("rating = ?", *in.Rating)
	}
	if in.Phone != nil {
		q = q.Set("phone = ?", *in.Phone)
	}
	if in.Email != nil {
		q = q.Set("email = ?", *in.Email)
	}
	if in.Level != nil {
		if !models.ValidLevel(*in.Level) {
			return httpError(apperr.Validation("invalid level %q", *in.Level))
		}
		q = q.Set("level = ?", *in.Level)
	}

	ctx := c.Request().Context()
	res, err := q.Exec(ctx)
	if err != nil {
		return httpError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return httpError(apperr.NotFound("roper %d not found", id))
	}

	h.audit.Record(ctx, "roper.update", "roper", id, h.currentUserID(c), "")
	return c.NoContent(http.StatusNoContent)
}

// DeleteRoper deactivates a roper. Records stay for history.
func (h *Handler) DeleteRoper(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	res, err := h.db.NewUpdate().
		Model((*models.Roper)(nil)).
		Set("is_active = ?", false).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Where("is_active = ?", true).
		Exec(ctx)
	if err != nil {
		return httpError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return httpError(apperr.NotFound("roper %d not found", id))
	}

	h.audit.Record(ctx, "roper.delete", "roper", id, h.currentUserID(c), "")
	return c.NoContent(http.StatusNoContent)
}
