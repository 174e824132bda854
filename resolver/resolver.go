package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hugolhafner/go-ingest/entity"
	"github.com/hugolhafner/go-ingest/logger"
)

// Lookup reports which of the given ids exist in a kind's table.
type Lookup interface {
	Existing(ctx context.Context, kind entity.Kind, ids []entity.ID) (map[entity.ID]struct{}, error)
}

// OrphanError lists the references of a record that are absent from the sink.
type OrphanError struct {
	Kind    entity.Kind
	Key     entity.Key
	Missing []entity.Reference
}

func (e *OrphanError) Error() string {
	missing := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		missing[i] = r.String()
	}
	return fmt.Sprintf("orphaned %s %s: missing %s", e.Kind, e.Key, strings.Join(missing, ", "))
}

func AsOrphanError(err error) (*OrphanError, bool) {
	var oe *OrphanError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// Outcome is the resolution of one record. Err is nil or an *OrphanError.
type Outcome struct {
	Record entity.Record
	Err    error
}

type Resolver struct {
	lookup Lookup
	logger logger.Logger
}

func New(lookup Lookup, l logger.Logger) *Resolver {
	if l == nil {
		l = logger.NewNoopLogger()
	}
	return &Resolver{lookup: lookup, logger: l.With("component", "resolver")}
}

// Resolve checks the references of a single record.
func (r *Resolver) Resolve(ctx context.Context, rec entity.Record) (Outcome, error) {
	outcomes, err := r.ResolveBatch(ctx, []entity.Record{rec})
	if err != nil {
		return Outcome{}, err
	}
	return outcomes[0], nil
}

// ResolveBatch checks every record against one snapshot of the sink: ids are
// looked up with one query per referenced kind before any record is judged.
// Outcomes are returned in input order. A lookup failure fails the batch.
func (r *Resolver) ResolveBatch(ctx context.Context, recs []entity.Record) ([]Outcome, error) {
	wanted := make(map[entity.Kind]map[entity.ID]struct{})
	for _, rec := range recs {
		for _, ref := range rec.References() {
			if wanted[ref.Kind] == nil {
				wanted[ref.Kind] = make(map[entity.ID]struct{})
			}
			wanted[ref.Kind][ref.ID] = struct{}{}
		}
	}

	existing := make(map[entity.Kind]map[entity.ID]struct{}, len(wanted))
	for kind, set := range wanted {
		ids := make([]entity.ID, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		found, err := r.lookup.Existing(ctx, kind, ids)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", kind, err)
		}
		existing[kind] = found

		r.logger.Debug("Resolved references", "kind", kind.String(), "requested", len(ids), "found", len(found))
	}

	outcomes := make([]Outcome, len(recs))
	for i, rec := range recs {
		outcomes[i] = Outcome{Record: rec}

		var missing []entity.Reference
		for _, ref := range rec.References() {
			if _, ok := existing[ref.Kind][ref.ID]; !ok {
				missing = append(missing, ref)
			}
		}
		if len(missing) > 0 {
			outcomes[i].Err = &OrphanError{Kind: rec.Kind(), Key: rec.Key(), Missing: missing}
		}
	}

	return outcomes, nil
}
