package core

import (
	"context"
	"math/rand"
)

// fakeStore is an in-memory Store recording the mutations the engine
// requests, so tests can assert on exactly what would be written.
type fakeStore struct {
	status     string
	statusErr  error
	teams      []TeamRef
	eliminated map[int64]bool
	started    map[int64]bool

	replacedRound    int64
	replacedSlots    []DrawSlot
	replacedSeedRuns bool
	replaceCalls     int

	upserted []RoundDraw

	savedRun *RunUpsert
	cascade  *Cascade
	runID    int64

	runs   []RunRecord
	labels map[int64]TeamLabel
	rules  []Rule
	fin    Financials
	count  int64
}

func (f *fakeStore) EventStatus(ctx context.Context, eventID int64) (string, error) {
	return f.status, f.statusErr
}

func (f *fakeStore) ActiveTeams(ctx context.Context, eventID int64) ([]TeamRef, error) {
	return append([]TeamRef(nil), f.teams...), nil
}

func (f *fakeStore) EliminatedTeamIDs(ctx context.Context, eventID int64) (map[int64]bool, error) {
	if f.eliminated == nil {
		return map[int64]bool{}, nil
	}
	return f.eliminated, nil
}

func (f *fakeStore) RoundHasCompletedRuns(ctx context.Context, eventID, round int64) (bool, error) {
	return f.started[round], nil
}

func (f *fakeStore) ReplaceRound(ctx context.Context, eventID, round int64, slots []DrawSlot, seedRuns bool) error {
	f.replaceCalls++
	f.replacedRound = round
	f.replacedSlots = slots
	f.replacedSeedRuns = seedRuns
	return nil
}

func (f *fakeStore) UpsertRounds(ctx context.Context, eventID int64, rounds []RoundDraw) error {
	f.upserted = rounds
	return nil
}

func (f *fakeStore) SaveRun(ctx context.Context, run RunUpsert, cascade Cascade) (int64, error) {
	f.savedRun = &run
	f.cascade = &cascade
	return f.runID, nil
}

func (f *fakeStore) Runs(ctx context.Context, eventID int64) ([]RunRecord, error) {
	return f.runs, nil
}

func (f *fakeStore) TeamLabels(ctx context.Context, eventID int64) (map[int64]TeamLabel, error) {
	if f.labels == nil {
		return map[int64]TeamLabel{}, nil
	}
	return f.labels, nil
}

func (f *fakeStore) PayoffRules(ctx context.Context, eventID int64) ([]Rule, error) {
	return f.rules, nil
}

func (f *fakeStore) EventFinancials(ctx context.Context, eventID int64) (Financials, error) {
	return f.fin, nil
}

func (f *fakeStore) CountActiveTeams(ctx context.Context, eventID int64) (int64, error) {
	return f.count, nil
}

func newTestEngine(store Store, seed int64, opts ...Option) *Engine {
	opts = append([]Option{WithRand(rand.New(rand.NewSource(seed)))}, opts...)
	return NewEngine(store, opts...)
}

func f64(v float64) *float64 { return &v }
