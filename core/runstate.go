package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/rodeoware/ropingapi/apperr"
	"github.com/rodeoware/ropingapi/models"
)

// RecordRun upserts a captured result keyed by (event, round, team),
// forcing the row to completed, and cascades the status change to the
// team's later rounds in the same transaction:
//
//   - a flagged result (no-time or DQ) marks every later round skipped;
//   - a valid result restores later rounds to pending, but only rows
//     still in skipped. Completed rounds are never touched.
//
// Returns the run row id.
func (e *Engine) RecordRun(ctx context.Context, res RunResult) (int64, error) {
	if res.Round < 1 {
		return 0, apperr.Validation("round must be >= 1, got %d", res.Round)
	}
	if res.Position < 1 {
		return 0, apperr.Validation("position must be >= 1, got %d", res.Position)
	}
	if res.Penalty < 0 {
		return 0, apperr.Validation("penalty must be >= 0, got %v", res.Penalty)
	}

	up := RunUpsert{RunResult: res}
	if !res.NoTime && !res.DQ && res.TimeSec != nil {
		total := *res.TimeSec + res.Penalty
		up.TotalSec = &total
	}

	cascade := Cascade{
		AfterRound: res.Round,
		ToStatus:   models.RunStatusPending,
		// Restoring a wrongly flagged team only touches rounds still
		// skipped; completed results stand.
		OnlyFromStatus: models.RunStatusSkipped,
	}
	if res.NoTime || res.DQ {
		cascade = Cascade{AfterRound: res.Round, ToStatus: models.RunStatusSkipped}
	}

	id, err := e.store.SaveRun(ctx, up, cascade)
	if err != nil {
		return 0, err
	}

	e.log.Debug("run recorded",
		zap.Int64("event_id", res.EventID),
		zap.Int64("team_id", res.TeamID),
		zap.Int64("round", res.Round),
		zap.Bool("no_time", res.NoTime),
		zap.Bool("dq", res.DQ))
	return id, nil
}
