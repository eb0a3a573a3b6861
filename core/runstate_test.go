package core

import (
	"context"
	"testing"

	"github.com/rodeoware/ropingapi/apperr"
	"github.com/rodeoware/ropingapi/models"
)

func TestRecordRunComputesTotal(t *testing.T) {
	store := &fakeStore{runID: 41}
	eng := newTestEngine(store, 1)

	id, err := eng.RecordRun(context.Background(), RunResult{
		EventID:  7,
		TeamID:   3,
		Round:    2,
		Position: 5,
		TimeSec:  f64(7.5),
		Penalty:  5,
	})
	if err != nil {
		t.Fatalf("record run: %v", err)
	}
	if id != 41 {
		t.Fatalf("run id = %d, want 41", id)
	}
	if store.savedRun.TotalSec == nil || *store.savedRun.TotalSec != 12.5 {
		t.Fatalf("total = %v, want 12.5", store.savedRun.TotalSec)
	}
}

func TestRecordRunValidTimeRestoresSkippedRounds(t *testing.T) {
	store := &fakeStore{}
	eng := newTestEngine(store, 1)

	_, err := eng.RecordRun(context.Background(), RunResult{
		EventID: 7, TeamID: 3, Round: 2, Position: 1, TimeSec: f64(9),
	})
	if err != nil {
		t.Fatalf("record run: %v", err)
	}
	c := store.cascade
	if c.AfterRound != 2 || c.ToStatus != models.RunStatusPending {
		t.Fatalf("cascade = %+v, want restore to pending after round 2", c)
	}
	if c.OnlyFromStatus != models.RunStatusSkipped {
		t.Fatalf("restore must only touch skipped rounds, got from=%q", c.OnlyFromStatus)
	}
}

func TestRecordRunFlaggedSkipsLaterRounds(t *testing.T) {
	for _, tc := range []struct {
		name string
		res  RunResult
	}{
		{"dq", RunResult{EventID: 7, TeamID: 3, Round: 1, Position: 1, TimeSec: f64(6), DQ: true}},
		{"no time", RunResult{EventID: 7, TeamID: 3, Round: 1, Position: 1, NoTime: true}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			eng := newTestEngine(store, 1)

			if _, err := eng.RecordRun(context.Background(), tc.res); err != nil {
				t.Fatalf("record run: %v", err)
			}
			if store.savedRun.TotalSec != nil {
				t.Fatalf("flagged run total = %v, want nil", store.savedRun.TotalSec)
			}
			c := store.cascade
			if c.AfterRound != 1 || c.ToStatus != models.RunStatusSkipped {
				t.Fatalf("cascade = %+v, want skip after round 1", c)
			}
			if c.OnlyFromStatus != "" {
				t.Fatalf("skip cascade must touch every later round, got from=%q", c.OnlyFromStatus)
			}
		})
	}
}

func TestRecordRunAbsentTimeHasNoTotal(t *testing.T) {
	store := &fakeStore{}
	eng := newTestEngine(store, 1)

	_, err := eng.RecordRun(context.Background(), RunResult{
		EventID: 7, TeamID: 3, Round: 1, Position: 1, Penalty: 5,
	})
	if err != nil {
		t.Fatalf("record run: %v", err)
	}
	if store.savedRun.TotalSec != nil {
		t.Fatalf("total without time = %v, want nil", store.savedRun.TotalSec)
	}
}

func TestRecordRunValidation(t *testing.T) {
	eng := newTestEngine(&fakeStore{}, 1)

	for _, tc := range []struct {
		name string
		res  RunResult
	}{
		{"round zero", RunResult{EventID: 7, TeamID: 3, Round: 0, Position: 1}},
		{"position zero", RunResult{EventID: 7, TeamID: 3, Round: 1, Position: 0}},
		{"negative penalty", RunResult{EventID: 7, TeamID: 3, Round: 1, Position: 1, Penalty: -1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := eng.RecordRun(context.Background(), tc.res)
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Fatalf("error = %v, want validation error", err)
			}
		})
	}
}
