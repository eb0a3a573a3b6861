package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/rodeoware/ropingapi/apperr"
	"github.com/rodeoware/ropingapi/models"
)

// Spacing heuristic constants. The window bounds how far back the
// batch generator scans for a shared roper, and a candidate scoring
// at or above the early-accept threshold is taken without scanning
// the rest of the pool. Changing these changes generated orders.
const (
	spacingWindow    = 10
	earlyAcceptScore = 10
	noConflictScore  = 100
)

// GenerateRound computes the run order for a single round and writes
// it atomically, replacing any previous draw for that round. When
// seedRuns is set a pending run row is created per position. Returns
// the eligible team count.
func (e *Engine) GenerateRound(ctx context.Context, eventID, round int64, reseed, seedRuns bool) (int64, error) {
	if round < 1 {
		return 0, apperr.Validation("round must be >= 1, got %d", round)
	}

	status, err := e.store.EventStatus(ctx, eventID)
	if err != nil {
		return 0, err
	}
	// Unlike batch generation, a single round may be regenerated on a
	// locked event: next rounds are drawn while the event runs.
	if status == models.EventStatusCompleted || status == "finalized" || status == "archived" {
		return 0, apperr.State("event %d is %s; rounds can no longer change", eventID, status)
	}

	started, err := e.store.RoundHasCompletedRuns(ctx, eventID, round)
	if err != nil {
		return 0, err
	}
	if started {
		return 0, apperr.State("round %d already has captured times and cannot be regenerated", round)
	}

	teams, err := e.eligibleTeams(ctx, eventID)
	if err != nil {
		return 0, err
	}

	if reseed {
		e.rng.Shuffle(len(teams), func(i, j int) {
			teams[i], teams[j] = teams[j], teams[i]
		})
	}

	slots := toSlots(teams)
	if err := e.store.ReplaceRound(ctx, eventID, round, slots, seedRuns); err != nil {
		return 0, err
	}

	e.log.Debug("round draw generated",
		zap.Int64("event_id", eventID),
		zap.Int64("round", round),
		zap.Int("teams", len(teams)),
		zap.Bool("reseed", reseed),
		zap.Bool("seed_runs", seedRuns))
	return int64(len(teams)), nil
}

// GenerateBatch draws rounds 1..rounds in one transaction against a
// single eligibility snapshot taken up front. With shuffle set, each
// round gets a fresh random permutation re-sequenced by the spacing
// heuristic. Returns the total number of assignments written.
func (e *Engine) GenerateBatch(ctx context.Context, eventID, rounds int64, shuffle bool) (int64, error) {
	if rounds < 1 {
		return 0, apperr.Validation("rounds must be >= 1, got %d", rounds)
	}

	status, err := e.store.EventStatus(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if status == models.EventStatusLocked {
		return 0, apperr.State("event %d is locked; no changes allowed", eventID)
	}

	// One snapshot for the whole batch: a fresh batch has no results
	// yet, so re-filtering per round would be a no-op anyway.
	teams, err := e.eligibleTeams(ctx, eventID)
	if err != nil {
		return 0, err
	}

	draws := make([]RoundDraw, 0, rounds)
	for r := int64(1); r <= rounds; r++ {
		if shuffle {
			e.rng.Shuffle(len(teams), func(i, j int) {
				teams[i], teams[j] = teams[j], teams[i]
			})
			teams = spaceOut(teams)
		}
		draws = append(draws, RoundDraw{Round: r, Slots: toSlots(teams)})
	}

	if err := e.store.UpsertRounds(ctx, eventID, draws); err != nil {
		return 0, err
	}

	e.log.Debug("batch draw generated",
		zap.Int64("event_id", eventID),
		zap.Int64("rounds", rounds),
		zap.Int("teams", len(teams)),
		zap.Bool("shuffle", shuffle))
	return int64(len(teams)) * rounds, nil
}

// eligibleTeams returns active teams minus eliminated ones, in id
// order so generation is deterministic before any shuffle.
func (e *Engine) eligibleTeams(ctx context.Context, eventID int64) ([]TeamRef, error) {
	active, err := e.store.ActiveTeams(ctx, eventID)
	if err != nil {
		return nil, err
	}
	eliminated, err := e.store.EliminatedTeamIDs(ctx, eventID)
	if err != nil {
		return nil, err
	}

	teams := active[:0:0]
	for _, t := range active {
		if !eliminated[t.ID] {
			teams = append(teams, t)
		}
	}
	if len(teams) == 0 {
		return nil, apperr.EmptyInput("no eligible teams in event %d", eventID)
	}
	return teams, nil
}

func toSlots(teams []TeamRef) []DrawSlot {
	slots := make([]DrawSlot, len(teams))
	for i, t := range teams {
		slots[i] = DrawSlot{Position: int64(i) + 1, TeamID: t.ID}
	}
	return slots
}

// spaceOut greedily re-sequences a shuffled team list to push teams
// sharing a roster member apart. It repeatedly picks the remaining
// candidate whose distance back to its most recent conflict is
// largest, accepting the first candidate that scores at or above the
// early-accept threshold. Greedy and non-backtracking: it improves
// spacing but does not guarantee a conflict-free order exists in the
// output even when one does.
func spaceOut(teams []TeamRef) []TeamRef {
	ordered := make([]TeamRef, 0, len(teams))
	pool := append([]TeamRef(nil), teams...)

	for len(pool) > 0 {
		bestIdx := 0
		bestScore := -1
		for i, cand := range pool {
			score := spacingScore(ordered, cand)
			if score > bestScore {
				bestScore = score
				bestIdx = i
				if score >= earlyAcceptScore {
					break
				}
			}
		}
		ordered = append(ordered, pool[bestIdx])
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)
	}
	return ordered
}

// spacingScore is the distance from the end of ordered back to the
// nearest team sharing a roper with cand, scanning at most
// spacingWindow slots. No conflict within the window scores
// noConflictScore.
func spacingScore(ordered []TeamRef, cand TeamRef) int {
	spacing := 0
	for i := len(ordered) - 1; i >= 0 && spacing < spacingWindow; i-- {
		spacing++
		if sharesRoper(ordered[i], cand) {
			return spacing
		}
	}
	return noConflictScore
}

func sharesRoper(a, b TeamRef) bool {
	return a.HeaderID == b.HeaderID || a.HeaderID == b.HeelerID ||
		a.HeelerID == b.HeaderID || a.HeelerID == b.HeelerID
}
