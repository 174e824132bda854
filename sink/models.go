package sink

import (
	"time"

	"github.com/hugolhafner/go-ingest/entity"
)

// Models returns every table the sink migrates.
func Models() []any {
	return []any{
		&Team{},
		&Competition{},
		&Match{},
		&TopScorer{},
		&PlayerStat{},
		&MatchPrediction{},
		&TeamFormation{},
		&BettingOdds{},
		&Rejection{},
	}
}

type Team struct {
	ID        string  `gorm:"column:id;primaryKey;type:varchar(64)"`
	Name      string  `gorm:"column:name;type:varchar(128);not null"`
	ShortName *string `gorm:"column:short_name;type:varchar(64)"`
	Founded   *int    `gorm:"column:founded"`
	Venue     *string `gorm:"column:venue;type:varchar(128)"`
	Website   *string `gorm:"column:website;type:varchar(256)"`
}

func (Team) TableName() string { return entity.KindTeam.Table() }

type Competition struct {
	ID      string  `gorm:"column:id;primaryKey;type:varchar(64)"`
	Name    string  `gorm:"column:name;type:varchar(128);not null"`
	Country *string `gorm:"column:country;type:varchar(64)"`
	Season  *string `gorm:"column:season;type:varchar(16)"`
}

func (Competition) TableName() string { return entity.KindCompetition.Table() }

type Match struct {
	ID            string    `gorm:"column:id;primaryKey;type:varchar(64)"`
	CompetitionID string    `gorm:"column:competition_id;type:varchar(64);not null;index"`
	Season        *string   `gorm:"column:season;type:varchar(16)"`
	HomeTeamID    string    `gorm:"column:home_team_id;type:varchar(64);not null;index"`
	AwayTeamID    string    `gorm:"column:away_team_id;type:varchar(64);not null;index"`
	MatchDate     time.Time `gorm:"column:match_date;not null"`
	Status        *string   `gorm:"column:status;type:varchar(16)"`
	Matchday      *int      `gorm:"column:matchday"`
	HomeScore     *int      `gorm:"column:home_score"`
	AwayScore     *int      `gorm:"column:away_score"`

	Competition *Competition `gorm:"foreignKey:CompetitionID;references:ID;constraint:OnDelete:RESTRICT"`
	HomeTeam    *Team        `gorm:"foreignKey:HomeTeamID;references:ID;constraint:OnDelete:RESTRICT"`
	AwayTeam    *Team        `gorm:"foreignKey:AwayTeamID;references:ID;constraint:OnDelete:RESTRICT"`
}

func (Match) TableName() string { return entity.KindMatch.Table() }

type TopScorer struct {
	PlayerID      string  `gorm:"column:player_id;primaryKey;type:varchar(64)"`
	CompetitionID string  `gorm:"column:competition_id;primaryKey;type:varchar(64)"`
	Season        string  `gorm:"column:season;primaryKey;type:varchar(16)"`
	TeamID        string  `gorm:"column:team_id;type:varchar(64);not null;index"`
	PlayerName    *string `gorm:"column:player_name;type:varchar(128)"`
	Goals         int     `gorm:"column:goals;not null"`
	Assists       *int    `gorm:"column:assists"`
	Penalties     *int    `gorm:"column:penalties"`
	PlayedMatches *int    `gorm:"column:played_matches"`

	Competition *Competition `gorm:"foreignKey:CompetitionID;references:ID;constraint:OnDelete:RESTRICT"`
	Team        *Team        `gorm:"foreignKey:TeamID;references:ID;constraint:OnDelete:RESTRICT"`
}

func (TopScorer) TableName() string { return entity.KindTopScorer.Table() }

type PlayerStat struct {
	PlayerID      string   `gorm:"column:player_id;primaryKey;type:varchar(64)"`
	MatchID       string   `gorm:"column:match_id;primaryKey;type:varchar(64)"`
	TeamID        string   `gorm:"column:team_id;type:varchar(64);not null;index"`
	MinutesPlayed *int     `gorm:"column:minutes_played"`
	Goals         *int     `gorm:"column:goals"`
	Assists       *int     `gorm:"column:assists"`
	Shots         *int     `gorm:"column:shots"`
	ShotsOnTarget *int     `gorm:"column:shots_on_target"`
	Passes        *int     `gorm:"column:passes"`
	PassAccuracy  *float64 `gorm:"column:pass_accuracy"`
	Tackles       *int     `gorm:"column:tackles"`
	Interceptions *int     `gorm:"column:interceptions"`
	YellowCards   *int     `gorm:"column:yellow_cards"`
	RedCards      *int     `gorm:"column:red_cards"`

	Match *Match `gorm:"foreignKey:MatchID;references:ID;constraint:OnDelete:CASCADE"`
	Team  *Team  `gorm:"foreignKey:TeamID;references:ID;constraint:OnDelete:RESTRICT"`
}

func (PlayerStat) TableName() string { return entity.KindPlayerStat.Table() }

type MatchPrediction struct {
	MatchID     string     `gorm:"column:match_id;primaryKey;type:varchar(64)"`
	HomeWin     float64    `gorm:"column:home_win;not null"`
	Draw        float64    `gorm:"column:draw;not null"`
	AwayWin     float64    `gorm:"column:away_win;not null"`
	Model       *string    `gorm:"column:model;type:varchar(64)"`
	PredictedAt *time.Time `gorm:"column:predicted_at"`

	Match *Match `gorm:"foreignKey:MatchID;references:ID;constraint:OnDelete:CASCADE"`
}

func (MatchPrediction) TableName() string { return entity.KindMatchPrediction.Table() }

type TeamFormation struct {
	MatchID   string  `gorm:"column:match_id;primaryKey;type:varchar(64)"`
	TeamID    string  `gorm:"column:team_id;primaryKey;type:varchar(64)"`
	Formation string  `gorm:"column:formation;type:varchar(16);not null"`
	Coach     *string `gorm:"column:coach;type:varchar(128)"`

	Match *Match `gorm:"foreignKey:MatchID;references:ID;constraint:OnDelete:CASCADE"`
	Team  *Team  `gorm:"foreignKey:TeamID;references:ID;constraint:OnDelete:RESTRICT"`
}

func (TeamFormation) TableName() string { return entity.KindTeamFormation.Table() }

type BettingOdds struct {
	MatchID   string    `gorm:"column:match_id;primaryKey;type:varchar(64)"`
	Timestamp time.Time `gorm:"column:timestamp;primaryKey"`
	Bookmaker *string   `gorm:"column:bookmaker;type:varchar(64)"`
	HomeOdds  *float64  `gorm:"column:home_odds"`
	DrawOdds  *float64  `gorm:"column:draw_odds"`
	AwayOdds  *float64  `gorm:"column:away_odds"`

	Match *Match `gorm:"foreignKey:MatchID;references:ID;constraint:OnDelete:CASCADE"`
}

func (BettingOdds) TableName() string { return entity.KindBettingOdds.Table() }
