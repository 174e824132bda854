package entity

var (
	_ Record = (*Team)(nil)
	_ Record = (*Competition)(nil)
)

type Team struct {
	ID        ID      `json:"id"`
	Name      *string `json:"name"`
	ShortName *string `json:"short_name"`
	Founded   *int    `json:"founded"`
	Venue     *string `json:"venue"`
	Website   *string `json:"website"`
}

func (t *Team) Kind() Kind { return KindTeam }

func (t *Team) Key() Key { return Key{t.ID.String()} }

func (t *Team) References() []Reference { return nil }

func (t *Team) Columns() map[string]any {
	return map[string]any{
		"id":         t.ID.String(),
		"name":       value(t.Name),
		"short_name": value(t.ShortName),
		"founded":    value(t.Founded),
		"venue":      value(t.Venue),
		"website":    value(t.Website),
	}
}

type Competition struct {
	ID      ID      `json:"id"`
	Name    *string `json:"name"`
	Country *string `json:"country"`
	Season  *string `json:"season"`
}

func (c *Competition) Kind() Kind { return KindCompetition }

func (c *Competition) Key() Key { return Key{c.ID.String()} }

func (c *Competition) References() []Reference { return nil }

func (c *Competition) Columns() map[string]any {
	return map[string]any{
		"id":      c.ID.String(),
		"name":    value(c.Name),
		"country": value(c.Country),
		"season":  value(c.Season),
	}
}
