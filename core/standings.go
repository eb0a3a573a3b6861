package core

import (
	"context"
	"sort"

	"github.com/rodeoware/ropingapi/models"
)

// Standing is one ranked row of the event table.
type Standing struct {
	Rank          int64    `json:"rank"`
	TeamID        int64    `json:"teamID"`
	HeaderName    string   `json:"headerName"`
	HeelerName    string   `json:"heelerName"`
	TotalTime     *float64 `json:"totalTime"`
	CompletedRuns int64    `json:"completedRuns"`
	NTCount       int64    `json:"ntCount"`
	DQCount       int64    `json:"dqCount"`
	AvgTime       *float64 `json:"avgTime"`
	BestTime      *float64 `json:"bestTime"`
}

// Standings aggregates every captured run for the event into a ranked
// table, recomputed from the rows on each call. Teams appear once per
// team that has at least one run row. Order: valid completed-run
// count descending, then total time ascending (absent last), then
// best time ascending (absent last), then team id. Ranks are strictly
// increasing; ties cannot survive the team-id tie-break.
func (e *Engine) Standings(ctx context.Context, eventID int64) ([]Standing, error) {
	runs, err := e.store.Runs(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return []Standing{}, nil
	}

	labels, err := e.store.TeamLabels(ctx, eventID)
	if err != nil {
		return nil, err
	}

	byTeam := map[int64]*Standing{}
	timedRuns := map[int64]int64{}
	order := []int64{}
	for _, r := range runs {
		s, ok := byTeam[r.TeamID]
		if !ok {
			s = &Standing{TeamID: r.TeamID}
			if l, ok := labels[r.TeamID]; ok {
				s.HeaderName = l.HeaderName
				s.HeelerName = l.HeelerName
			}
			byTeam[r.TeamID] = s
			order = append(order, r.TeamID)
		}
		if r.NoTime {
			s.NTCount++
		}
		if r.DQ {
			s.DQCount++
		}
		if r.Status == models.RunStatusCompleted && !r.NoTime && !r.DQ {
			// The run counts toward the ranking even when no time was
			// recorded; only the time aggregates need a total.
			s.CompletedRuns++
			if r.TotalSec != nil {
				timedRuns[r.TeamID]++
				addTo(&s.TotalTime, *r.TotalSec)
				if s.BestTime == nil || *r.TotalSec < *s.BestTime {
					v := *r.TotalSec
					s.BestTime = &v
				}
			}
		}
	}

	rows := make([]Standing, 0, len(order))
	for _, id := range order {
		s := byTeam[id]
		if n := timedRuns[id]; n > 0 && s.TotalTime != nil {
			avg := *s.TotalTime / float64(n)
			s.AvgTime = &avg
		}
		rows = append(rows, *s)
	}

	sort.Slice(rows, func(i, j int) bool {
		return standingLess(rows[i], rows[j])
	})
	for i := range rows {
		rows[i].Rank = int64(i) + 1
	}
	return rows, nil
}

func standingLess(a, b Standing) bool {
	if a.CompletedRuns != b.CompletedRuns {
		return a.CompletedRuns > b.CompletedRuns
	}
	if c := cmpNilLast(a.TotalTime, b.TotalTime); c != 0 {
		return c < 0
	}
	if c := cmpNilLast(a.BestTime, b.BestTime); c != 0 {
		return c < 0
	}
	return a.TeamID < b.TeamID
}

// cmpNilLast orders present values ascending and sorts nil after all
// present values.
func cmpNilLast(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

func addTo(dst **float64, v float64) {
	if *dst == nil {
		*dst = &v
		return
	}
	**dst += v
}
