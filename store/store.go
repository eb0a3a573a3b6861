// Package store implements core.Store on top of bun. Every multi-row
// mutation runs inside a single transaction so a failure partway
// through leaves nothing behind.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/rodeoware/ropingapi/apperr"
	"github.com/rodeoware/ropingapi/core"
	"github.com/rodeoware/ropingapi/models"
)

// Store is the bun-backed persistence layer for the draw engine.
type Store struct {
	db *bun.DB
}

// New creates a Store over the given database handle.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// EventStatus returns the status of a live (not soft-deleted) event.
func (s *Store) EventStatus(ctx context.Context, eventID int64) (string, error) {
	var status string
	err := s.db.NewSelect().
		Model((*models.Event)(nil)).
		Column("status").
		Where("id = ?", eventID).
		Where("is_deleted = ?", false).
		Scan(ctx, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.NotFound("event %d not found", eventID)
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// ActiveTeams returns the event's active teams ordered by id.
func (s *Store) ActiveTeams(ctx context.Context, eventID int64) ([]core.TeamRef, error) {
	var teams []models.Team
	err := s.db.NewSelect().
		Model(&teams).
		Column("id", "header_id", "heeler_id").
		Where("event_id = ?", eventID).
		Where("status = ?", models.TeamStatusActive).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	refs := make([]core.TeamRef, len(teams))
	for i, t := range teams {
		refs[i] = core.TeamRef{ID: t.ID, HeaderID: t.HeaderID, HeelerID: t.HeelerID}
	}
	return refs, nil
}

// EliminatedTeamIDs returns ids of teams with any no-time or DQ run
// in the event, in any round.
func (s *Store) EliminatedTeamIDs(ctx context.Context, eventID int64) (map[int64]bool, error) {
	var ids []int64
	err := s.db.NewSelect().
		Model((*models.Run)(nil)).
		ColumnExpr("DISTINCT team_id").
		Where("event_id = ?", eventID).
		Where("(no_time = ? OR dq = ?)", true, true).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// RoundHasCompletedRuns reports whether the round holds any completed run.
func (s *Store) RoundHasCompletedRuns(ctx context.Context, eventID, round int64) (bool, error) {
	return s.db.NewSelect().
		Model((*models.Run)(nil)).
		Where("event_id = ?", eventID).
		Where("round = ?", round).
		Where("status = ?", models.RunStatusCompleted).
		Exists(ctx)
}

// ReplaceRound atomically clears the round's draw and run rows and
// inserts the new order, seeding pending runs when requested.
func (s *Store) ReplaceRound(ctx context.Context, eventID, round int64, slots []core.DrawSlot, seedRuns bool) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Run)(nil)).
			Where("event_id = ?", eventID).
			Where("round = ?", round).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*models.DrawEntry)(nil)).
			Where("event_id = ?", eventID).
			Where("round = ?", round).
			Exec(ctx); err != nil {
			return err
		}

		entries := make([]models.DrawEntry, len(slots))
		for i, slot := range slots {
			entries[i] = models.DrawEntry{
				EventID:  eventID,
				Round:    round,
				Position: slot.Position,
				TeamID:   slot.TeamID,
			}
		}
		if _, err := tx.NewInsert().Model(&entries).Exec(ctx); err != nil {
			return err
		}

		if !seedRuns {
			return nil
		}
		runs := make([]models.Run, len(slots))
		for i, slot := range slots {
			runs[i] = models.Run{
				EventID:  eventID,
				TeamID:   slot.TeamID,
				Round:    round,
				Position: slot.Position,
				Status:   models.RunStatusPending,
			}
		}
		_, err := tx.NewInsert().Model(&runs).Exec(ctx)
		return err
	})
}

// UpsertRounds applies a batch of round draws in one transaction.
// Draw rows are keyed by (event, round, position) and run rows by
// (event, round, team); existing run rows keep their status so a
// re-drawn batch does not resurrect or wipe captured results.
func (s *Store) UpsertRounds(ctx context.Context, eventID int64, rounds []core.RoundDraw) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, rd := range rounds {
			entries := make([]models.DrawEntry, len(rd.Slots))
			runs := make([]models.Run, len(rd.Slots))
			for i, slot := range rd.Slots {
				entries[i] = models.DrawEntry{
					EventID:  eventID,
					Round:    rd.Round,
					Position: slot.Position,
					TeamID:   slot.TeamID,
				}
				runs[i] = models.Run{
					EventID:  eventID,
					TeamID:   slot.TeamID,
					Round:    rd.Round,
					Position: slot.Position,
					Status:   models.RunStatusPending,
				}
			}

			if _, err := tx.NewInsert().
				Model(&entries).
				On("CONFLICT (event_id, round, position) DO UPDATE").
				Set("team_id = EXCLUDED.team_id").
				Set("updated_at = CURRENT_TIMESTAMP").
				Exec(ctx); err != nil {
				return err
			}
			if _, err := tx.NewInsert().
				Model(&runs).
				On("CONFLICT (event_id, team_id, round) DO UPDATE").
				Set("position = EXCLUDED.position").
				Set("updated_at = CURRENT_TIMESTAMP").
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveRun upserts the captured result and applies the cascade to the
// team's later rounds in the same transaction. Returns the run id.
func (s *Store) SaveRun(ctx context.Context, run core.RunUpsert, cascade core.Cascade) (int64, error) {
	row := &models.Run{
		EventID:    run.EventID,
		TeamID:     run.TeamID,
		Round:      run.Round,
		Position:   run.Position,
		TimeSec:    run.TimeSec,
		Penalty:    run.Penalty,
		TotalSec:   run.TotalSec,
		NoTime:     run.NoTime,
		DQ:         run.DQ,
		Status:     models.RunStatusCompleted,
		CapturedBy: run.CapturedBy,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(row).
			On("CONFLICT (event_id, team_id, round) DO UPDATE").
			Set("position = EXCLUDED.position").
			Set("time_sec = EXCLUDED.time_sec").
			Set("penalty = EXCLUDED.penalty").
			Set("total_sec = EXCLUDED.total_sec").
			Set("no_time = EXCLUDED.no_time").
			Set("dq = EXCLUDED.dq").
			Set("status = EXCLUDED.status").
			Set("updated_at = CURRENT_TIMESTAMP").
			Returning("id").
			Exec(ctx); err != nil {
			return err
		}

		q := tx.NewUpdate().
			Model((*models.Run)(nil)).
			Set("status = ?", cascade.ToStatus).
			Set("updated_at = CURRENT_TIMESTAMP").
			Where("event_id = ?", run.EventID).
			Where("team_id = ?", run.TeamID).
			Where("round > ?", cascade.AfterRound)
		if cascade.OnlyFromStatus != "" {
			q = q.Where("status = ?", cascade.OnlyFromStatus)
		}
		_, err := q.Exec(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

// Runs returns every run row for the event.
func (s *Store) Runs(ctx context.Context, eventID int64) ([]core.RunRecord, error) {
	var rows []models.Run
	err := s.db.NewSelect().
		Model(&rows).
		Where("event_id = ?", eventID).
		Order("round ASC", "position ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]core.RunRecord, len(rows))
	for i, r := range rows {
		records[i] = core.RunRecord{
			TeamID:   r.TeamID,
			Round:    r.Round,
			Status:   r.Status,
			TotalSec: r.TotalSec,
			NoTime:   r.NoTime,
			DQ:       r.DQ,
		}
	}
	return records, nil
}

// teamLabelRow is a flat scan target for the roster-name join.
type teamLabelRow struct {
	TeamID     int64  `bun:"team_id"`
	HeaderName string `bun:"header_name"`
	HeelerName string `bun:"heeler_name"`
}

// TeamLabels returns roster display names keyed by team id.
func (s *Store) TeamLabels(ctx context.Context, eventID int64) (map[int64]core.TeamLabel, error) {
	var rows []teamLabelRow
	err := s.db.NewRaw(`
		SELECT t.id AS team_id,
		       (rh.first_name || ' ' || rh.last_name) AS header_name,
		       (rhe.first_name || ' ' || rhe.last_name) AS heeler_name
		FROM teams t
		JOIN ropers rh ON t.header_id = rh.id
		JOIN ropers rhe ON t.heeler_id = rhe.id
		WHERE t.event_id = ?`, eventID).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	labels := make(map[int64]core.TeamLabel, len(rows))
	for _, r := range rows {
		labels[r.TeamID] = core.TeamLabel{HeaderName: r.HeaderName, HeelerName: r.HeelerName}
	}
	return labels, nil
}

// PayoffRules returns the event's active rules ordered by position.
func (s *Store) PayoffRules(ctx context.Context, eventID int64) ([]core.Rule, error) {
	var rows []models.PayoffRule
	err := s.db.NewSelect().
		Model(&rows).
		Where("event_id = ?", eventID).
		Where("is_active = ?", true).
		Order("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	rules := make([]core.Rule, len(rows))
	for i, r := range rows {
		rules[i] = core.Rule{Position: r.Position, Percentage: r.Percentage}
	}
	return rules, nil
}

// EventFinancials returns entry fee and prize pool for a live event.
func (s *Store) EventFinancials(ctx context.Context, eventID int64) (core.Financials, error) {
	event := &models.Event{}
	err := s.db.NewSelect().
		Model(event).
		Column("entry_fee", "prize_pool").
		Where("id = ?", eventID).
		Where("is_deleted = ?", false).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Financials{}, apperr.NotFound("event %d not found", eventID)
	}
	if err != nil {
		return core.Financials{}, err
	}
	return core.Financials{EntryFee: event.EntryFee, PrizePool: event.PrizePool}, nil
}

// CountActiveTeams counts the event's active teams.
func (s *Store) CountActiveTeams(ctx context.Context, eventID int64) (int64, error) {
	n, err := s.db.NewSelect().
		Model((*models.Team)(nil)).
		Where("event_id = ?", eventID).
		Where("status = ?", models.TeamStatusActive).
		Count(ctx)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}
