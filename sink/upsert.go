package sink

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hugolhafner/go-ingest/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WriteError reports a rolled back (table, batch) transaction. It is always
// retryable.
type WriteError struct {
	Table string
	Rows  int
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s (%d rows): %v", e.Table, e.Rows, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

func AsWriteError(err error) (*WriteError, bool) {
	var we *WriteError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// Statement is one INSERT ... ON CONFLICT statement. Every row shares the
// same update column set.
type Statement struct {
	Update []string
	Rows   []map[string]any
}

// Plan turns a batch into upsert statements. The last record for a key wins.
// Absent values of columns with a table default take the default on insert
// and are left out of the update set, so a stored value survives. Rows are
// grouped by update set, which yields a single statement unless such
// defaults apply to only part of the batch.
func Plan(table entity.Table, recs []entity.Record) []Statement {
	index := make(map[string]int, len(recs))
	rows := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		k := rec.Key().Ident()
		if i, ok := index[k]; ok {
			rows[i] = rec.Columns()
			continue
		}
		index[k] = len(rows)
		rows = append(rows, rec.Columns())
	}

	isKey := make(map[string]bool, len(table.Key))
	for _, c := range table.Key {
		isKey[c] = true
	}

	var stmts []Statement
	bySet := make(map[string]int)
	for _, row := range rows {
		update := make([]string, 0, len(row))
		for col, v := range row {
			if isKey[col] {
				continue
			}
			if def, ok := table.Defaults[col]; ok && v == nil {
				row[col] = def
				continue
			}
			update = append(update, col)
		}
		sort.Strings(update)

		set := strings.Join(update, ",")
		i, ok := bySet[set]
		if !ok {
			i = len(stmts)
			bySet[set] = i
			stmts = append(stmts, Statement{Update: update})
		}
		stmts[i].Rows = append(stmts[i].Rows, row)
	}

	return stmts
}

func (s Statement) conflict(key []string) clause.OnConflict {
	cols := make([]clause.Column, len(key))
	for i, c := range key {
		cols[i] = clause.Column{Name: c}
	}

	if len(s.Update) == 0 {
		return clause.OnConflict{Columns: cols, DoNothing: true}
	}
	return clause.OnConflict{Columns: cols, DoUpdates: clause.AssignmentColumns(s.Update)}
}

// Upsert writes a batch into table inside one transaction bounded by the
// write timeout. Either every row persists or none does. It returns the
// number of distinct rows written.
func (d *DB) Upsert(ctx context.Context, table entity.Table, recs []entity.Record) (int, error) {
	stmts := Plan(table, recs)
	if len(stmts) == 0 {
		return 0, nil
	}

	rows := 0
	for _, s := range stmts {
		rows += len(s.Rows)
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := d.db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			for _, s := range stmts {
				if err := tx.Table(table.Name).Clauses(s.conflict(table.Key)).Create(s.Rows).Error; err != nil {
					return err
				}
			}
			return nil
		},
	)
	if err != nil {
		return 0, &WriteError{Table: table.Name, Rows: rows, Cause: err}
	}

	d.logger.Debug(
		"Upserted batch",
		"table", table.Name,
		"rows", rows,
		"statements", len(stmts),
		"elapsed", time.Since(start),
	)
	return rows, nil
}

const lookupChunk = 1000

// Existing returns the subset of ids present in kind's table.
func (d *DB) Existing(ctx context.Context, kind entity.Kind, ids []entity.ID) (map[entity.ID]struct{}, error) {
	out := make(map[entity.ID]struct{}, len(ids))

	for start := 0; start < len(ids); start += lookupChunk {
		chunk := ids[start:min(start+lookupChunk, len(ids))]
		values := make([]string, len(chunk))
		for i, id := range chunk {
			values[i] = id.String()
		}

		var found []string
		if err := d.db.WithContext(ctx).
			Table(kind.Table()).
			Where("id IN ?", values).
			Pluck("id", &found).Error; err != nil {
			return nil, fmt.Errorf("lookup %s: %w", kind, err)
		}

		for _, id := range found {
			out[entity.ID(id)] = struct{}{}
		}
	}

	return out, nil
}
