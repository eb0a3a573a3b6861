package core

import "context"

// PayoutAllocation is one rule applied to the net pot.
type PayoutAllocation struct {
	Position   int64   `json:"position"`
	Percentage float64 `json:"percentage"`
	Amount     float64 `json:"amount"`
}

// PayoutBreakdown is the monetary split for an event.
type PayoutBreakdown struct {
	TotalPot   float64            `json:"totalPot"`
	Deductions float64            `json:"deductions"`
	NetPot     float64            `json:"netPot"`
	Payouts    []PayoutAllocation `json:"payouts"`
}

// Payouts computes the event's pot and one allocation per active
// payoff rule. Absent entry fee or prize pool count as zero. Rule
// percentages are not required to sum to 1.0; partial or over
// allocation is allowed.
func (e *Engine) Payouts(ctx context.Context, eventID int64) (PayoutBreakdown, error) {
	fin, err := e.store.EventFinancials(ctx, eventID)
	if err != nil {
		return PayoutBreakdown{}, err
	}
	teams, err := e.store.CountActiveTeams(ctx, eventID)
	if err != nil {
		return PayoutBreakdown{}, err
	}
	rules, err := e.store.PayoffRules(ctx, eventID)
	if err != nil {
		return PayoutBreakdown{}, err
	}

	entryFee := 0.0
	if fin.EntryFee != nil {
		entryFee = *fin.EntryFee
	}
	prizePool := 0.0
	if fin.PrizePool != nil {
		prizePool = *fin.PrizePool
	}

	totalPot := prizePool + entryFee*float64(teams)
	deductions := totalPot * e.deductionRate
	netPot := totalPot - deductions

	payouts := make([]PayoutAllocation, len(rules))
	for i, r := range rules {
		payouts[i] = PayoutAllocation{
			Position:   r.Position,
			Percentage: r.Percentage,
			Amount:     netPot * r.Percentage,
		}
	}

	return PayoutBreakdown{
		TotalPot:   totalPot,
		Deductions: deductions,
		NetPot:     netPot,
		Payouts:    payouts,
	}, nil
}
