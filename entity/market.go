package entity

import (
	"math"
	"time"
)

var (
	_ Record = (*MatchPrediction)(nil)
	_ Record = (*BettingOdds)(nil)
)

type MatchPrediction struct {
	MatchID        ID       `json:"match_id"`
	HomeWin        *float64 `json:"home_win"`
	Draw           *float64 `json:"draw"`
	AwayWin        *float64 `json:"away_win"`
	Model          *string  `json:"model"`
	PredictedAtRaw *string  `json:"predicted_at"`

	PredictedAt *time.Time `json:"-"`
}

func (p *MatchPrediction) Kind() Kind { return KindMatchPrediction }

func (p *MatchPrediction) Key() Key { return Key{p.MatchID.String()} }

func (p *MatchPrediction) References() []Reference {
	return refs(Reference{Kind: KindMatch, ID: p.MatchID, Field: "match_id"})
}

func (p *MatchPrediction) Columns() map[string]any {
	return map[string]any{
		"match_id":     p.MatchID.String(),
		"home_win":     value(p.HomeWin),
		"draw":         value(p.Draw),
		"away_win":     value(p.AwayWin),
		"model":        value(p.Model),
		"predicted_at": timeValue(p.PredictedAt),
	}
}

// ProbabilitySum returns the sum of the three outcome probabilities. ok is
// false unless all three are present.
func (p *MatchPrediction) ProbabilitySum() (sum float64, ok bool) {
	if p.HomeWin == nil || p.Draw == nil || p.AwayWin == nil {
		return 0, false
	}
	return *p.HomeWin + *p.Draw + *p.AwayWin, true
}

// SumDeviates reports whether the outcome probabilities sum to something
// further than tolerance from 1. The sum is not enforced on ingest.
func (p *MatchPrediction) SumDeviates(tolerance float64) bool {
	sum, ok := p.ProbabilitySum()
	return ok && math.Abs(sum-1) > tolerance
}

type BettingOdds struct {
	MatchID      ID       `json:"match_id"`
	TimestampRaw *string  `json:"timestamp"`
	Bookmaker    *string  `json:"bookmaker"`
	HomeOdds     *float64 `json:"home_odds"`
	DrawOdds     *float64 `json:"draw_odds"`
	AwayOdds     *float64 `json:"away_odds"`

	Timestamp time.Time `json:"-"`
}

func (o *BettingOdds) Kind() Kind { return KindBettingOdds }

// Key uses the normalized timestamp so that equivalent wire forms collide.
func (o *BettingOdds) Key() Key {
	return Key{o.MatchID.String(), o.Timestamp.UTC().Format(time.RFC3339Nano)}
}

func (o *BettingOdds) References() []Reference {
	return refs(Reference{Kind: KindMatch, ID: o.MatchID, Field: "match_id"})
}

func (o *BettingOdds) Columns() map[string]any {
	return map[string]any{
		"match_id":  o.MatchID.String(),
		"timestamp": o.Timestamp.UTC(),
		"bookmaker": value(o.Bookmaker),
		"home_odds": value(o.HomeOdds),
		"draw_odds": value(o.DrawOdds),
		"away_odds": value(o.AwayOdds),
	}
}
