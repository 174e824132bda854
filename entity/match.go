package entity

import (
	"time"
)

var _ Record = (*Match)(nil)

// Match statuses as published by the upstream feed.
const (
	StatusScheduled = "SCHEDULED"
	StatusTimed     = "TIMED"
	StatusLive      = "LIVE"
	StatusInPlay    = "IN_PLAY"
	StatusPaused    = "PAUSED"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
	StatusSuspended = "SUSPENDED"
	StatusCancelled = "CANCELLED"
)

func MatchStatuses() []string {
	return []string{
		StatusScheduled, StatusTimed, StatusLive, StatusInPlay, StatusPaused,
		StatusFinished, StatusPostponed, StatusSuspended, StatusCancelled,
	}
}

type Match struct {
	ID            ID      `json:"id"`
	CompetitionID ID      `json:"competition_id"`
	Season        *string `json:"season"`
	HomeTeamID    ID      `json:"home_team_id"`
	AwayTeamID    ID      `json:"away_team_id"`
	MatchDateRaw  *string `json:"match_date"`
	Status        *string `json:"status"`
	Matchday      *int    `json:"matchday"`
	HomeScore     *int    `json:"home_score"`
	AwayScore     *int    `json:"away_score"`

	// MatchDate is MatchDateRaw normalized to UTC during validation.
	MatchDate time.Time `json:"-"`
}

func (m *Match) Kind() Kind { return KindMatch }

func (m *Match) Key() Key { return Key{m.ID.String()} }

func (m *Match) References() []Reference {
	return refs(
		Reference{Kind: KindTeam, ID: m.HomeTeamID, Field: "home_team_id"},
		Reference{Kind: KindTeam, ID: m.AwayTeamID, Field: "away_team_id"},
		Reference{Kind: KindCompetition, ID: m.CompetitionID, Field: "competition_id"},
	)
}

func (m *Match) Columns() map[string]any {
	return map[string]any{
		"id":             m.ID.String(),
		"competition_id": m.CompetitionID.String(),
		"season":         value(m.Season),
		"home_team_id":   m.HomeTeamID.String(),
		"away_team_id":   m.AwayTeamID.String(),
		"match_date":     m.MatchDate.UTC(),
		"status":         value(m.Status),
		"matchday":       value(m.Matchday),
		"home_score":     value(m.HomeScore),
		"away_score":     value(m.AwayScore),
	}
}
