package entity

// Kind identifies an entity type. Its value doubles as the source topic and
// sink table name.
type Kind string

const (
	KindTeam            Kind = "teams"
	KindCompetition     Kind = "competitions"
	KindMatch           Kind = "matches"
	KindTopScorer       Kind = "top_scorers"
	KindPlayerStat      Kind = "player_stats"
	KindMatchPrediction Kind = "match_predictions"
	KindTeamFormation   Kind = "team_formations"
	KindBettingOdds     Kind = "betting_odds"
)

// Kinds returns every known kind, reference kinds first.
func Kinds() []Kind {
	return []Kind{
		KindTeam,
		KindCompetition,
		KindMatch,
		KindTopScorer,
		KindPlayerStat,
		KindMatchPrediction,
		KindTeamFormation,
		KindBettingOdds,
	}
}

func (k Kind) String() string {
	return string(k)
}

func (k Kind) Table() string {
	return string(k)
}

// IsReference reports whether other entities point at this kind by key.
// Matches are referenced too but are facts themselves.
func (k Kind) IsReference() bool {
	return k == KindTeam || k == KindCompetition
}

// KeyColumns returns the primary key columns of the kind's table.
func (k Kind) KeyColumns() []string {
	switch k {
	case KindTopScorer:
		return []string{"player_id", "competition_id", "season"}
	case KindPlayerStat:
		return []string{"player_id", "match_id"}
	case KindMatchPrediction:
		return []string{"match_id"}
	case KindTeamFormation:
		return []string{"match_id", "team_id"}
	case KindBettingOdds:
		return []string{"match_id", "timestamp"}
	default:
		return []string{"id"}
	}
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Table describes how records of a kind are upserted.
type Table struct {
	Name string
	Key  []string
	// Defaults are substituted for absent values on insert and never
	// overwrite a stored value on update.
	Defaults map[string]any
}

// TableFor returns the upsert description of k's table. A team update that
// omits the venue keeps the stored venue.
func TableFor(k Kind) Table {
	t := Table{Name: k.Table(), Key: k.KeyColumns()}
	if k == KindTeam {
		t = t.WithDefault("venue", nil)
	}
	return t
}

// WithDefault returns a copy of t with a default for column.
func (t Table) WithDefault(column string, value any) Table {
	defaults := make(map[string]any, len(t.Defaults)+1)
	for c, v := range t.Defaults {
		defaults[c] = v
	}
	defaults[column] = value
	t.Defaults = defaults
	return t
}
