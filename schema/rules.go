package schema

import (
	"github.com/hugolhafner/go-ingest/entity"
	"github.com/hugolhafner/go-ingest/validate"
)

type checks[T any] []validate.Check[T]

func teamRules() validate.Rules[entity.Team] {
	return validate.Rules[entity.Team]{
		Required: checks[entity.Team]{
			func(t *entity.Team) error { return validate.NonEmpty("id", t.ID) },
			func(t *entity.Team) error { return validate.NonEmptyString("name", t.Name) },
		},
		Bounds: checks[entity.Team]{
			func(t *entity.Team) error { return validate.Between("founded", t.Founded, 1800, 2100) },
		},
	}
}

func competitionRules() validate.Rules[entity.Competition] {
	return validate.Rules[entity.Competition]{
		Required: checks[entity.Competition]{
			func(c *entity.Competition) error { return validate.NonEmpty("id", c.ID) },
			func(c *entity.Competition) error { return validate.NonEmptyString("name", c.Name) },
		},
	}
}

func matchRules() validate.Rules[entity.Match] {
	return validate.Rules[entity.Match]{
		Required: checks[entity.Match]{
			func(m *entity.Match) error { return validate.NonEmpty("id", m.ID) },
			func(m *entity.Match) error { return validate.NonEmpty("competition_id", m.CompetitionID) },
			func(m *entity.Match) error { return validate.NonEmpty("home_team_id", m.HomeTeamID) },
			func(m *entity.Match) error { return validate.NonEmpty("away_team_id", m.AwayTeamID) },
		},
		Normalize: checks[entity.Match]{
			func(m *entity.Match) error { return validate.Timestamp("match_date", m.MatchDateRaw, &m.MatchDate) },
		},
		Bounds: checks[entity.Match]{
			func(m *entity.Match) error { return validate.OneOf("status", m.Status, entity.MatchStatuses()...) },
			func(m *entity.Match) error { return validate.AtLeast("matchday", m.Matchday, 1) },
			func(m *entity.Match) error { return validate.NonNegative("home_score", m.HomeScore) },
			func(m *entity.Match) error { return validate.NonNegative("away_score", m.AwayScore) },
		},
		Consistency: checks[entity.Match]{
			func(m *entity.Match) error {
				return validate.Distinct("away_team_id", m.AwayTeamID, "home_team_id", m.HomeTeamID)
			},
		},
	}
}

func topScorerRules() validate.Rules[entity.TopScorer] {
	return validate.Rules[entity.TopScorer]{
		Required: checks[entity.TopScorer]{
			func(s *entity.TopScorer) error { return validate.NonEmpty("player_id", s.PlayerID) },
			func(s *entity.TopScorer) error { return validate.NonEmpty("competition_id", s.CompetitionID) },
			func(s *entity.TopScorer) error { return validate.NonEmptyString("season", s.Season) },
			func(s *entity.TopScorer) error { return validate.NonEmpty("team_id", s.TeamID) },
			func(s *entity.TopScorer) error { return validate.Present("goals", s.Goals) },
		},
		Bounds: checks[entity.TopScorer]{
			func(s *entity.TopScorer) error { return validate.NonNegative("goals", s.Goals) },
			func(s *entity.TopScorer) error { return validate.NonNegative("assists", s.Assists) },
			func(s *entity.TopScorer) error { return validate.NonNegative("penalties", s.Penalties) },
			func(s *entity.TopScorer) error { return validate.NonNegative("played_matches", s.PlayedMatches) },
		},
		Consistency: checks[entity.TopScorer]{
			func(s *entity.TopScorer) error { return validate.NotGreater("penalties", s.Penalties, "goals", s.Goals) },
		},
	}
}

func playerStatRules() validate.Rules[entity.PlayerStat] {
	return validate.Rules[entity.PlayerStat]{
		Required: checks[entity.PlayerStat]{
			func(s *entity.PlayerStat) error { return validate.NonEmpty("player_id", s.PlayerID) },
			func(s *entity.PlayerStat) error { return validate.NonEmpty("match_id", s.MatchID) },
			func(s *entity.PlayerStat) error { return validate.NonEmpty("team_id", s.TeamID) },
		},
		Bounds: checks[entity.PlayerStat]{
			func(s *entity.PlayerStat) error { return validate.Between("minutes_played", s.MinutesPlayed, 0, 130) },
			func(s *entity.PlayerStat) error { return validate.NonNegative("goals", s.Goals) },
			func(s *entity.PlayerStat) error { return validate.NonNegative("assists", s.Assists) },
			func(s *entity.PlayerStat) error { return validate.NonNegative("shots", s.Shots) },
			func(s *entity.PlayerStat) error { return validate.NonNegative("shots_on_target", s.ShotsOnTarget) },
			func(s *entity.PlayerStat) error { return validate.NonNegative("passes", s.Passes) },
			func(s *entity.PlayerStat) error { return validate.Percentage("pass_accuracy", s.PassAccuracy) },
			func(s *entity.PlayerStat) error { return validate.NonNegative("tackles", s.Tackles) },
			func(s *entity.PlayerStat) error { return validate.NonNegative("interceptions", s.Interceptions) },
			func(s *entity.PlayerStat) error { return validate.Between("yellow_cards", s.YellowCards, 0, 2) },
			func(s *entity.PlayerStat) error { return validate.Between("red_cards", s.RedCards, 0, 1) },
		},
		Consistency: checks[entity.PlayerStat]{
			func(s *entity.PlayerStat) error {
				return validate.NotGreater("shots_on_target", s.ShotsOnTarget, "shots", s.Shots)
			},
		},
	}
}

// matchPredictionRules bounds each probability on its own. The sum is left
// unenforced; see entity.MatchPrediction.SumDeviates.
func matchPredictionRules() validate.Rules[entity.MatchPrediction] {
	return validate.Rules[entity.MatchPrediction]{
		Required: checks[entity.MatchPrediction]{
			func(p *entity.MatchPrediction) error { return validate.NonEmpty("match_id", p.MatchID) },
			func(p *entity.MatchPrediction) error { return validate.Present("home_win", p.HomeWin) },
			func(p *entity.MatchPrediction) error { return validate.Present("draw", p.Draw) },
			func(p *entity.MatchPrediction) error { return validate.Present("away_win", p.AwayWin) },
		},
		Normalize: checks[entity.MatchPrediction]{
			func(p *entity.MatchPrediction) error {
				return validate.OptionalTimestamp("predicted_at", p.PredictedAtRaw, &p.PredictedAt)
			},
		},
		Bounds: checks[entity.MatchPrediction]{
			func(p *entity.MatchPrediction) error { return validate.Probability("home_win", p.HomeWin) },
			func(p *entity.MatchPrediction) error { return validate.Probability("draw", p.Draw) },
			func(p *entity.MatchPrediction) error { return validate.Probability("away_win", p.AwayWin) },
		},
	}
}

func teamFormationRules() validate.Rules[entity.TeamFormation] {
	return validate.Rules[entity.TeamFormation]{
		Required: checks[entity.TeamFormation]{
			func(f *entity.TeamFormation) error { return validate.NonEmpty("match_id", f.MatchID) },
			func(f *entity.TeamFormation) error { return validate.NonEmpty("team_id", f.TeamID) },
			func(f *entity.TeamFormation) error { return validate.NonEmptyString("formation", f.Formation) },
		},
	}
}

func bettingOddsRules() validate.Rules[entity.BettingOdds] {
	return validate.Rules[entity.BettingOdds]{
		Required: checks[entity.BettingOdds]{
			func(o *entity.BettingOdds) error { return validate.NonEmpty("match_id", o.MatchID) },
		},
		Normalize: checks[entity.BettingOdds]{
			func(o *entity.BettingOdds) error { return validate.Timestamp("timestamp", o.TimestampRaw, &o.Timestamp) },
		},
		Bounds: checks[entity.BettingOdds]{
			func(o *entity.BettingOdds) error { return validate.AtLeast("home_odds", o.HomeOdds, 1) },
			func(o *entity.BettingOdds) error { return validate.AtLeast("draw_odds", o.DrawOdds, 1) },
			func(o *entity.BettingOdds) error { return validate.AtLeast("away_odds", o.AwayOdds, 1) },
		},
	}
}
