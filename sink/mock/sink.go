// Package mocksink is an in-memory relational sink with failure injection.
package mocksink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hugolhafner/go-ingest/entity"
	"github.com/hugolhafner/go-ingest/sink"
)

type position struct {
	topic     string
	partition int32
	offset    int64
}

// Sink applies the same upsert plan as sink.DB to in-memory tables. A
// failed write leaves the tables untouched.
type Sink struct {
	mu sync.Mutex

	tables     map[string]map[string]map[string]any
	failures   map[string][]error
	attempts   map[string]int
	lookups    map[entity.Kind]int
	lookupErr  error
	rejectErr  error
	rejections []sink.Rejection
	rejected   map[position]struct{}
}

func New() *Sink {
	return &Sink{
		tables:   make(map[string]map[string]map[string]any),
		failures: make(map[string][]error),
		attempts: make(map[string]int),
		lookups:  make(map[entity.Kind]int),
		rejected: make(map[position]struct{}),
	}
}

// FailNext makes the next len(errs) writes to table fail with errs in order.
func (s *Sink) FailNext(table string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[table] = append(s.failures[table], errs...)
}

func (s *Sink) SetLookupError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookupErr = err
}

func (s *Sink) SetRejectionError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectErr = err
}

func (s *Sink) Upsert(_ context.Context, table entity.Table, recs []entity.Record) (int, error) {
	stmts := sink.Plan(table, recs)
	if len(stmts) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[table.Name]++

	rows := 0
	for _, st := range stmts {
		rows += len(st.Rows)
	}

	if queued := s.failures[table.Name]; len(queued) > 0 {
		err := queued[0]
		s.failures[table.Name] = queued[1:]
		return 0, &sink.WriteError{Table: table.Name, Rows: rows, Cause: err}
	}

	t, ok := s.tables[table.Name]
	if !ok {
		t = make(map[string]map[string]any)
		s.tables[table.Name] = t
	}

	for _, st := range stmts {
		for _, row := range st.Rows {
			k := keyOf(row, table.Key)
			stored, ok := t[k]
			if !ok {
				t[k] = copyRow(row)
				continue
			}
			for _, col := range st.Update {
				stored[col] = row[col]
			}
		}
	}

	return rows, nil
}

// Seed writes recs into their tables, bypassing injected failures.
func (s *Sink) Seed(recs ...entity.Record) {
	byKind := make(map[entity.Kind][]entity.Record)
	var order []entity.Kind
	for _, r := range recs {
		if _, ok := byKind[r.Kind()]; !ok {
			order = append(order, r.Kind())
		}
		byKind[r.Kind()] = append(byKind[r.Kind()], r)
	}

	for _, k := range order {
		table := entity.TableFor(k)

		s.mu.Lock()
		pending := s.failures[table.Name]
		delete(s.failures, table.Name)
		attempts := s.attempts[table.Name]
		s.mu.Unlock()

		_, _ = s.Upsert(context.Background(), table, byKind[k])

		s.mu.Lock()
		s.failures[table.Name] = pending
		s.attempts[table.Name] = attempts
		s.mu.Unlock()
	}
}

func (s *Sink) Existing(_ context.Context, kind entity.Kind, ids []entity.ID) (map[entity.ID]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookups[kind]++
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}

	out := make(map[entity.ID]struct{}, len(ids))
	t := s.tables[kind.Table()]
	for _, id := range ids {
		if _, ok := t[entity.Key{id.String()}.Ident()]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (s *Sink) SaveRejections(_ context.Context, rows []sink.Rejection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejectErr != nil {
		return &sink.WriteError{Table: sink.Rejection{}.TableName(), Rows: len(rows), Cause: s.rejectErr}
	}

	for _, r := range rows {
		p := position{topic: r.Topic, partition: r.Partition, offset: r.Offset}
		if _, ok := s.rejected[p]; ok {
			continue
		}
		s.rejected[p] = struct{}{}
		s.rejections = append(s.rejections, r)
	}
	return nil
}

// Row returns a copy of the row stored under key.
func (s *Sink) Row(table string, key ...string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tables[table][entity.Key(key).Ident()]
	if !ok {
		return nil, false
	}
	return copyRow(row), true
}

func (s *Sink) Count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table])
}

// Snapshot returns a deep copy of every table, keyed by table then
// entity.Key.Ident of the row key.
func (s *Sink) Snapshot() map[string]map[string]map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]map[string]map[string]any, len(s.tables))
	for name, t := range s.tables {
		rows := make(map[string]map[string]any, len(t))
		for k, row := range t {
			rows[k] = copyRow(row)
		}
		out[name] = rows
	}
	return out
}

// Attempts returns how many writes to table were attempted, failed ones included.
func (s *Sink) Attempts(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[table]
}

func (s *Sink) Lookups(kind entity.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups[kind]
}

func (s *Sink) Rejections() []sink.Rejection {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]sink.Rejection, len(s.rejections))
	copy(out, s.rejections)
	return out
}

func keyOf(row map[string]any, key []string) string {
	parts := make([]string, len(key))
	for i, col := range key {
		switch v := row[col].(type) {
		case string:
			parts[i] = v
		case time.Time:
			parts[i] = v.UTC().Format(time.RFC3339Nano)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return entity.Key(parts).Ident()
}

func copyRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
