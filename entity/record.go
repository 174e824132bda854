package entity

import (
	"time"
)

// Record is implemented by the typed record of every topic.
type Record interface {
	Kind() Kind
	Key() Key
	// References returns the foreign keys carried by the record. Absent
	// optional references are omitted.
	References() []Reference
	// Columns returns the sink row. Absent optional values are nil.
	Columns() map[string]any
}

func value[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func refs(candidates ...Reference) []Reference {
	out := make([]Reference, 0, len(candidates))
	for _, r := range candidates {
		if !r.ID.IsZero() {
			out = append(out, r)
		}
	}
	return out
}
