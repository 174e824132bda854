package entity

var (
	_ Record = (*TopScorer)(nil)
	_ Record = (*PlayerStat)(nil)
	_ Record = (*TeamFormation)(nil)
)

type TopScorer struct {
	PlayerID      ID      `json:"player_id"`
	CompetitionID ID      `json:"competition_id"`
	Season        *string `json:"season"`
	TeamID        ID      `json:"team_id"`
	PlayerName    *string `json:"player_name"`
	Goals         *int    `json:"goals"`
	Assists       *int    `json:"assists"`
	Penalties     *int    `json:"penalties"`
	PlayedMatches *int    `json:"played_matches"`
}

func (s *TopScorer) Kind() Kind { return KindTopScorer }

func (s *TopScorer) Key() Key {
	season := ""
	if s.Season != nil {
		season = *s.Season
	}
	return Key{s.PlayerID.String(), s.CompetitionID.String(), season}
}

func (s *TopScorer) References() []Reference {
	return refs(
		Reference{Kind: KindTeam, ID: s.TeamID, Field: "team_id"},
		Reference{Kind: KindCompetition, ID: s.CompetitionID, Field: "competition_id"},
	)
}

func (s *TopScorer) Columns() map[string]any {
	return map[string]any{
		"player_id":      s.PlayerID.String(),
		"competition_id": s.CompetitionID.String(),
		"season":         value(s.Season),
		"team_id":        s.TeamID.String(),
		"player_name":    value(s.PlayerName),
		"goals":          value(s.Goals),
		"assists":        value(s.Assists),
		"penalties":      value(s.Penalties),
		"played_matches": value(s.PlayedMatches),
	}
}

type PlayerStat struct {
	PlayerID      ID       `json:"player_id"`
	MatchID       ID       `json:"match_id"`
	TeamID        ID       `json:"team_id"`
	MinutesPlayed *int     `json:"minutes_played"`
	Goals         *int     `json:"goals"`
	Assists       *int     `json:"assists"`
	Shots         *int     `json:"shots"`
	ShotsOnTarget *int     `json:"shots_on_target"`
	Passes        *int     `json:"passes"`
	PassAccuracy  *float64 `json:"pass_accuracy"`
	Tackles       *int     `json:"tackles"`
	Interceptions *int     `json:"interceptions"`
	YellowCards   *int     `json:"yellow_cards"`
	RedCards      *int     `json:"red_cards"`
}

func (s *PlayerStat) Kind() Kind { return KindPlayerStat }

func (s *PlayerStat) Key() Key { return Key{s.PlayerID.String(), s.MatchID.String()} }

func (s *PlayerStat) References() []Reference {
	return refs(
		Reference{Kind: KindTeam, ID: s.TeamID, Field: "team_id"},
		Reference{Kind: KindMatch, ID: s.MatchID, Field: "match_id"},
	)
}

func (s *PlayerStat) Columns() map[string]any {
	return map[string]any{
		"player_id":       s.PlayerID.String(),
		"match_id":        s.MatchID.String(),
		"team_id":         s.TeamID.String(),
		"minutes_played":  value(s.MinutesPlayed),
		"goals":           value(s.Goals),
		"assists":         value(s.Assists),
		"shots":           value(s.Shots),
		"shots_on_target": value(s.ShotsOnTarget),
		"passes":          value(s.Passes),
		"pass_accuracy":   value(s.PassAccuracy),
		"tackles":         value(s.Tackles),
		"interceptions":   value(s.Interceptions),
		"yellow_cards":    value(s.YellowCards),
		"red_cards":       value(s.RedCards),
	}
}

type TeamFormation struct {
	MatchID   ID      `json:"match_id"`
	TeamID    ID      `json:"team_id"`
	Formation *string `json:"formation"`
	Coach     *string `json:"coach"`
}

func (f *TeamFormation) Kind() Kind { return KindTeamFormation }

func (f *TeamFormation) Key() Key { return Key{f.MatchID.String(), f.TeamID.String()} }

func (f *TeamFormation) References() []Reference {
	return refs(
		Reference{Kind: KindMatch, ID: f.MatchID, Field: "match_id"},
		Reference{Kind: KindTeam, ID: f.TeamID, Field: "team_id"},
	)
}

func (f *TeamFormation) Columns() map[string]any {
	return map[string]any{
		"match_id":  f.MatchID.String(),
		"team_id":   f.TeamID.String(),
		"formation": value(f.Formation),
		"coach":     value(f.Coach),
	}
}
