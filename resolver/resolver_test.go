//go:build unit

package resolver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hugolhafner/go-ingest/entity"
	"github.com/hugolhafner/go-ingest/resolver"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	rows  map[entity.Kind][]entity.ID
	calls map[entity.Kind]int
	err   error
}

func (f *fakeLookup) Existing(_ context.Context, kind entity.Kind, ids []entity.ID) (map[entity.ID]struct{}, error) {
	if f.calls == nil {
		f.calls = make(map[entity.Kind]int)
	}
	f.calls[kind]++
	if f.err != nil {
		return nil, f.err
	}

	out := make(map[entity.ID]struct{})
	for _, id := range ids {
		for _, have := range f.rows[kind] {
			if have == id {
				out[id] = struct{}{}
			}
		}
	}
	return out, nil
}

func match(id, home, away, comp entity.ID) *entity.Match {
	return &entity.Match{ID: id, HomeTeamID: home, AwayTeamID: away, CompetitionID: comp}
}

func TestResolveBatch(t *testing.T) {
	t.Parallel()
	lookup := &fakeLookup{
		rows: map[entity.Kind][]entity.ID{
			entity.KindTeam:        {"57", "61"},
			entity.KindCompetition: {"2021"},
		},
	}
	r := resolver.New(lookup, nil)

	outcomes, err := r.ResolveBatch(
		context.Background(), []entity.Record{
			match("1", "57", "61", "2021"),
			match("2", "57", "99", "2021"),
			match("3", "98", "99", "2002"),
		},
	)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	require.NoError(t, outcomes[0].Err)

	oe, ok := resolver.AsOrphanError(outcomes[1].Err)
	require.True(t, ok)
	require.Equal(t, []entity.Reference{{Kind: entity.KindTeam, ID: "99", Field: "away_team_id"}}, oe.Missing)

	oe, ok = resolver.AsOrphanError(outcomes[2].Err)
	require.True(t, ok)
	require.Len(t, oe.Missing, 3)
	require.Contains(t, oe.Error(), "competitions.id=2002 (competition_id)")

	require.Equal(t, 1, lookup.calls[entity.KindTeam], "one query per referenced kind")
	require.Equal(t, 1, lookup.calls[entity.KindCompetition])
}

func TestResolveBatch_ReferenceFreeRecordsSkipLookup(t *testing.T) {
	t.Parallel()
	lookup := &fakeLookup{}
	r := resolver.New(lookup, nil)

	outcomes, err := r.ResolveBatch(context.Background(), []entity.Record{&entity.Team{ID: "57"}})
	require.NoError(t, err)
	require.NoError(t, outcomes[0].Err)
	require.Empty(t, lookup.calls)
}

func TestResolveBatch_LookupFailure(t *testing.T) {
	t.Parallel()
	r := resolver.New(&fakeLookup{err: errors.New("connection refused")}, nil)

	_, err := r.ResolveBatch(context.Background(), []entity.Record{match("1", "57", "61", "2021")})
	require.ErrorContains(t, err, "connection refused")
}

func TestResolve_Single(t *testing.T) {
	t.Parallel()
	r := resolver.New(&fakeLookup{rows: map[entity.Kind][]entity.ID{entity.KindMatch: {"1"}}}, nil)

	out, err := r.Resolve(context.Background(), &entity.BettingOdds{MatchID: "1"})
	require.NoError(t, err)
	require.NoError(t, out.Err)

	out, err = r.Resolve(context.Background(), &entity.BettingOdds{MatchID: "2"})
	require.NoError(t, err)
	_, ok := resolver.AsOrphanError(out.Err)
	require.True(t, ok)
}
