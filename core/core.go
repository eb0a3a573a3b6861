// Package core implements the tournament draw, run-state and
// settlement engine. It owns eligibility, run-order generation, the
// run lifecycle cascade, standings ranking and payout math, and
// consumes persistence only through the Store interface so the same
// logic runs against PostgreSQL in production and SQLite in tests.
package core

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// TeamRef identifies a team and its two roster members.
type TeamRef struct {
	ID       int64
	HeaderID int64
	HeelerID int64
}

// DrawSlot assigns a team to a 1-based position.
type DrawSlot struct {
	Position int64
	TeamID   int64
}

// RoundDraw is the full run order for one round.
type RoundDraw struct {
	Round int64
	Slots []DrawSlot
}

// RunResult is a captured result as submitted by the caller.
type RunResult struct {
	EventID    int64
	TeamID     int64
	Round      int64
	Position   int64
	TimeSec    *float64
	Penalty    float64
	NoTime     bool
	DQ         bool
	CapturedBy *int64
}

// RunUpsert is a RunResult with the derived total attached.
type RunUpsert struct {
	RunResult
	TotalSec *float64
}

// Cascade instructs the store how to propagate a status change to the
// team's runs in rounds after AfterRound. When OnlyFromStatus is
// non-empty only rows currently in that status are touched.
type Cascade struct {
	AfterRound     int64
	ToStatus       string
	OnlyFromStatus string
}

// RunRecord is the read shape consumed by the standings aggregator.
type RunRecord struct {
	TeamID   int64
	Round    int64
	Status   string
	TotalSec *float64
	NoTime   bool
	DQ       bool
}

// TeamLabel carries display names for a team's roster members.
type TeamLabel struct {
	HeaderName string
	HeelerName string
}

// Financials are the event fields feeding the payout calculator.
type Financials struct {
	EntryFee  *float64
	PrizePool *float64
}

// Rule is an active payoff rule for one finishing position.
type Rule struct {
	Position   int64
	Percentage float64
}

// Store is the narrow persistence surface the engine depends on.
// Multi-row mutations (ReplaceRound, UpsertRounds, SaveRun with its
// cascade) must be atomic: either all rows change or none do.
type Store interface {
	// EventStatus returns the status of a live event, or a not-found
	// error when the event does not exist or is soft-deleted.
	EventStatus(ctx context.Context, eventID int64) (string, error)
	// ActiveTeams returns the event's active teams ordered by id.
	ActiveTeams(ctx context.Context, eventID int64) ([]TeamRef, error)
	// EliminatedTeamIDs returns teams with any no-time or DQ run in
	// the event, regardless of round.
	EliminatedTeamIDs(ctx context.Context, eventID int64) (map[int64]bool, error)
	// RoundHasCompletedRuns reports whether any run in the round has
	// status completed.
	RoundHasCompletedRuns(ctx context.Context, eventID, round int64) (bool, error)
	// ReplaceRound deletes the round's draw and run rows and inserts
	// the given slots, seeding pending runs when seedRuns is set.
	ReplaceRound(ctx context.Context, eventID, round int64, slots []DrawSlot, seedRuns bool) error
	// UpsertRounds applies a batch of round draws with insert-or-update
	// semantics for draw and run rows.
	UpsertRounds(ctx context.Context, eventID int64, rounds []RoundDraw) error
	// SaveRun upserts the run row keyed by (event, round, team) and
	// applies the cascade in the same transaction.
	SaveRun(ctx context.Context, run RunUpsert, cascade Cascade) (int64, error)
	// Runs returns every run row for the event.
	Runs(ctx context.Context, eventID int64) ([]RunRecord, error)
	// TeamLabels returns roster display names per team id.
	TeamLabels(ctx context.Context, eventID int64) (map[int64]TeamLabel, error)
	// PayoffRules returns the event's active rules ordered by position.
	PayoffRules(ctx context.Context, eventID int64) ([]Rule, error)
	// EventFinancials returns entry fee and prize pool for a live event.
	EventFinancials(ctx context.Context, eventID int64) (Financials, error)
	// CountActiveTeams counts the event's active teams.
	CountActiveTeams(ctx context.Context, eventID int64) (int64, error)
}

// Engine wires the store to the draw, run-state, standings and payout
// operations. The random source is injected so draws are reproducible.
type Engine struct {
	store         Store
	rng           *rand.Rand
	log           *zap.Logger
	deductionRate float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used for shuffling draws.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithLogger sets the engine logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithDeductionRate sets the fraction of the pot withheld before
// payout allocation.
func WithDeductionRate(rate float64) Option {
	return func(e *Engine) { e.deductionRate = rate }
}

// NewEngine creates an Engine backed by store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
