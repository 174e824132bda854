//go:build unit

package sink_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hugolhafner/go-ingest/entity"
	"github.com/hugolhafner/go-ingest/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func ptr[T any](v T) *T { return &v }

func openTestDB(t *testing.T, opts ...sink.Option) *sink.DB {
	t.Helper()

	gdb, err := gorm.Open(
		sqlite.Open(":memory:"),
		&gorm.Config{Logger: gormlogger.Discard},
	)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := sink.New(gdb, append([]sink.Option{sink.WithWriteTimeout(5 * time.Second)}, opts...)...)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func team(id, name string, venue *string) *entity.Team {
	return &entity.Team{ID: entity.ID(id), Name: ptr(name), Venue: venue}
}

func count(t *testing.T, db *sink.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Gorm().Table(table).Count(&n).Error)
	return n
}

func venueOf(t *testing.T, db *sink.DB, id string) *string {
	t.Helper()
	var row sink.Team
	require.NoError(t, db.Gorm().Where("id = ?", id).First(&row).Error)
	return row.Venue
}

func TestPlan_LastRecordForKeyWins(t *testing.T) {
	t.Parallel()

	table := entity.Table{Name: "teams", Key: []string{"id"}}
	stmts := sink.Plan(
		table, []entity.Record{
			team("1", "first", ptr("A")),
			team("2", "other", ptr("B")),
			team("1", "second", ptr("C")),
		},
	)

	require.Len(t, stmts, 1)
	require.Len(t, stmts[0].Rows, 2)
	assert.Equal(t, "second", stmts[0].Rows[0]["name"])
	assert.Equal(t, "C", stmts[0].Rows[0]["venue"])
	assert.NotContains(t, stmts[0].Update, "id")
}

func TestPlan_SeparatorInKeyPartsKeepsRowsDistinct(t *testing.T) {
	t.Parallel()

	scorer := func(player, competition string) *entity.TopScorer {
		return &entity.TopScorer{
			PlayerID: entity.ID(player), CompetitionID: entity.ID(competition), Season: ptr("2023"), Goals: ptr(1),
		}
	}
	a, b := scorer("a/b", "c"), scorer("a", "b/c")
	require.Equal(t, a.Key().String(), b.Key().String())

	stmts := sink.Plan(entity.TableFor(entity.KindTopScorer), []entity.Record{a, b})

	require.Len(t, stmts, 1)
	require.Len(t, stmts[0].Rows, 2)
	assert.Equal(t, "a/b", stmts[0].Rows[0]["player_id"])
	assert.Equal(t, "a", stmts[0].Rows[1]["player_id"])
}

func TestPlan_DefaultsSplitUpdateSets(t *testing.T) {
	t.Parallel()

	table := entity.TableFor(entity.KindTeam).WithDefault("venue", "TBD")
	stmts := sink.Plan(
		table, []entity.Record{
			team("1", "with venue", ptr("Anfield")),
			team("2", "without venue", nil),
		},
	)

	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0].Update, "venue")
	assert.NotContains(t, stmts[1].Update, "venue")
	assert.Equal(t, "TBD", stmts[1].Rows[0]["venue"])
}

func TestPlan_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, sink.Plan(entity.TableFor(entity.KindTeam), nil))
}

func TestUpsert_Idempotent(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	table := entity.TableFor(entity.KindTeam)

	batch := []entity.Record{team("57", "Arsenal", ptr("Emirates")), team("65", "City", nil)}

	n, err := db.Upsert(ctx, table, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = db.Upsert(ctx, table, batch)
	require.NoError(t, err)

	assert.Equal(t, int64(2), count(t, db, "teams"))
	assert.Equal(t, "Emirates", *venueOf(t, db, "57"))
}

func TestUpsert_UpdatesExistingRow(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	table := entity.TableFor(entity.KindTeam)

	_, err := db.Upsert(ctx, table, []entity.Record{team("57", "Arsenal", ptr("Highbury"))})
	require.NoError(t, err)
	_, err = db.Upsert(ctx, table, []entity.Record{team("57", "Arsenal FC", ptr("Emirates"))})
	require.NoError(t, err)

	var row sink.Team
	require.NoError(t, db.Gorm().Where("id = ?", "57").First(&row).Error)
	assert.Equal(t, "Arsenal FC", row.Name)
	assert.Equal(t, "Emirates", *row.Venue)
}

func TestUpsert_AbsentVenueKeepsStoredValue(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()
	table := entity.TableFor(entity.KindTeam).WithDefault("venue", "TBD")

	_, err := db.Upsert(ctx, table, []entity.Record{team("57", "Arsenal", nil)})
	require.NoError(t, err)
	assert.Equal(t, "TBD", *venueOf(t, db, "57"))

	_, err = db.Upsert(ctx, table, []entity.Record{team("57", "Arsenal", ptr("Emirates"))})
	require.NoError(t, err)
	_, err = db.Upsert(ctx, table, []entity.Record{team("57", "Arsenal", nil)})
	require.NoError(t, err)

	assert.Equal(t, "Emirates", *venueOf(t, db, "57"))
}

func TestUpsert_RollsBackWholeBatch(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	var creates atomic.Int32
	boom := errors.New("connection reset")
	require.NoError(
		t, db.Gorm().Callback().Create().After("gorm:create").Register(
			"test:fail_second_statement", func(tx *gorm.DB) {
				if tx.Statement.Table == "teams" && creates.Add(1) == 2 {
					_ = tx.AddError(boom)
				}
			},
		),
	)

	table := entity.TableFor(entity.KindTeam).WithDefault("venue", "TBD")
	_, err := db.Upsert(ctx, table, []entity.Record{team("57", "Arsenal", ptr("Emirates")), team("65", "City", nil)})
	require.Error(t, err)

	we, ok := sink.AsWriteError(err)
	require.True(t, ok)
	assert.Equal(t, "teams", we.Table)
	assert.Equal(t, 2, we.Rows)
	assert.ErrorIs(t, err, boom)

	assert.Zero(t, count(t, db, "teams"))
}

func TestUpsert_CompositeKey(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	stat := func(goals int) *entity.PlayerStat {
		return &entity.PlayerStat{PlayerID: "9", MatchID: "100", TeamID: "57", Goals: ptr(goals)}
	}

	_, err := db.Upsert(ctx, entity.TableFor(entity.KindPlayerStat), []entity.Record{stat(1)})
	require.NoError(t, err)
	_, err = db.Upsert(ctx, entity.TableFor(entity.KindPlayerStat), []entity.Record{stat(2)})
	require.NoError(t, err)

	var rows []sink.PlayerStat
	require.NoError(t, db.Gorm().Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, *rows[0].Goals)
}

func TestExisting(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Upsert(
		ctx, entity.TableFor(entity.KindTeam), []entity.Record{team("57", "Arsenal", nil), team("65", "City", nil)},
	)
	require.NoError(t, err)

	found, err := db.Existing(ctx, entity.KindTeam, []entity.ID{"57", "65", "999"})
	require.NoError(t, err)
	assert.Equal(t, map[entity.ID]struct{}{"57": {}, "65": {}}, found)

	found, err = db.Existing(ctx, entity.KindTeam, nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSaveRejections_SkipsRedelivered(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	rej := sink.Rejection{
		BatchID:   "b-1",
		Topic:     "matches",
		Partition: 0,
		Offset:    42,
		Phase:     "validate",
		Field:     "match_date",
		Reason:    "match_date: unparseable timestamp",
		Payload:   []byte(`{"id":1}`),
	}

	require.NoError(t, db.SaveRejections(ctx, []sink.Rejection{rej}))
	rej.BatchID = "b-2"
	require.NoError(t, db.SaveRejections(ctx, []sink.Rejection{rej}))
	require.NoError(t, db.SaveRejections(ctx, nil))

	rows, err := db.Rejections(ctx, "matches")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b-1", rows[0].BatchID)
	assert.Equal(t, "match_date", rows[0].Field)
}

func TestUpsert_TimeoutRollsBack(t *testing.T) {
	t.Parallel()
	db := openTestDB(t, sink.WithWriteTimeout(50*time.Millisecond))

	require.NoError(
		t, db.Gorm().Callback().Create().Before("gorm:create").Register(
			"test:slow_statement", func(tx *gorm.DB) {
				ctx := tx.Statement.Context
				select {
				case <-ctx.Done():
					_ = tx.AddError(ctx.Err())
				case <-time.After(time.Second):
				}
			},
		),
	)

	_, err := db.Upsert(context.Background(), entity.TableFor(entity.KindTeam), []entity.Record{team("57", "Arsenal", nil)})
	require.Error(t, err)

	we, ok := sink.AsWriteError(err)
	require.True(t, ok)
	assert.Equal(t, "teams", we.Table)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, count(t, db, "teams"))
}
