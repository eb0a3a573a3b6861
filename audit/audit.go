// Package audit records an append-only activity trail. Writes are
// best effort: a failed insert is logged and never fails the request
// that triggered it.
package audit

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/rodeoware/ropingapi/models"
)

// Recorder writes audit rows.
type Recorder struct {
	db  *bun.DB
	log *zap.Logger
}

// New creates a Recorder.
func New(db *bun.DB, log *zap.Logger) *Recorder {
	return &Recorder{db: db, log: log}
}

// Record inserts one audit row. Errors are swallowed after logging.
func (r *Recorder) Record(ctx context.Context, action, entityType string, entityID int64, userID *int64, metadata string) {
	row := &models.AuditLog{
		Action:     action,
		EntityType: entityType,
		UserID:     userID,
	}
	if entityID != 0 {
		row.EntityID = &entityID
	}
	if metadata != "" {
		row.Metadata = &metadata
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		r.log.Warn("audit write failed",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.Int64("entity_id", entityID),
			zap.Error(err))
	}
}

// Recent returns the latest entries, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.AuditLog
	err := r.db.NewSelect().
		Model(&rows).
		Order("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ForSeries returns the series' own entries plus those of its events,
// newest first.
func (r *Recorder) ForSeries(ctx context.Context, seriesID int64, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.AuditLog
	err := r.db.NewSelect().
		Model(&rows).
		Where("(entity_type = 'series' AND entity_id = ?) OR (entity_type = 'event' AND entity_id IN (SELECT id FROM events WHERE series_id = ?))", seriesID, seriesID).
		Order("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ForEntity returns entries for one entity, newest first.
func (r *Recorder) ForEntity(ctx context.Context, entityType string, entityID int64, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.AuditLog
	err := r.db.NewSelect().
		Model(&rows).
		Where("entity_type = ?", entityType).
		Where("entity_id = ?", entityID).
		Order("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
