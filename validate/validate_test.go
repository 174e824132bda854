//go:build unit

package validate_test

import (
	"errors"
	"testing"
	"time"

	"github.com/hugolhafner/go-ingest/validate"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  *string
	Count *int
	Prob  *float64
	When  *string
	At    time.Time
}

func sampleRules() validate.Rules[sample] {
	return validate.Rules[sample]{
		Required: []validate.Check[sample]{
			func(s *sample) error { return validate.NonEmptyString("name", s.Name) },
		},
		Normalize: []validate.Check[sample]{
			func(s *sample) error { return validate.Timestamp("when", s.When, &s.At) },
		},
		Bounds: []validate.Check[sample]{
			func(s *sample) error { return validate.NonNegative("count", s.Count) },
			func(s *sample) error { return validate.Probability("prob", s.Prob) },
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestRules_FirstFailureWins(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input sample
		field string
		rule  string
	}{
		{
			name:  "required before bounds",
			input: sample{Count: ptr(-1), When: ptr("bad")},
			field: "name",
			rule:  validate.RuleRequired,
		},
		{
			name:  "format before bounds",
			input: sample{Name: ptr("x"), Count: ptr(-1), When: ptr("not-a-date")},
			field: "when",
			rule:  validate.RuleFormat,
		},
		{
			name:  "bounds in declared order",
			input: sample{Name: ptr("x"), Count: ptr(-1), Prob: ptr(1.5), When: ptr("2024-01-01T00:00:00Z")},
			field: "count",
			rule:  validate.RuleBounds,
		},
		{
			name:  "probability above one",
			input: sample{Name: ptr("x"), Prob: ptr(1.01), When: ptr("2024-01-01T00:00:00Z")},
			field: "prob",
			rule:  validate.RuleBounds,
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()
				in := tt.input
				err := sampleRules().Validate(&in)

				fe, ok := validate.AsFieldError(err)
				require.True(t, ok, "expected FieldError, got %v", err)
				require.Equal(t, tt.field, fe.Field)
				require.Equal(t, tt.rule, fe.Rule)
			},
		)
	}
}

func TestRules_NormalizesOnSuccess(t *testing.T) {
	t.Parallel()
	in := sample{Name: ptr("x"), When: ptr("2024-08-17T16:00:00+02:00")}

	require.NoError(t, sampleRules().Validate(&in))
	require.Equal(t, time.Date(2024, 8, 17, 14, 0, 0, 0, time.UTC), in.At)
	require.Equal(t, time.UTC, in.At.Location())
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected time.Time
		ok       bool
	}{
		{"2024-08-17T14:00:00Z", time.Date(2024, 8, 17, 14, 0, 0, 0, time.UTC), true},
		{"2024-08-17T14:00:00.5Z", time.Date(2024, 8, 17, 14, 0, 0, 5e8, time.UTC), true},
		{"2024-08-17T14:00:00", time.Date(2024, 8, 17, 14, 0, 0, 0, time.UTC), true},
		{"2024-08-17 14:00:00", time.Date(2024, 8, 17, 14, 0, 0, 0, time.UTC), true},
		{"not-a-date", time.Time{}, false},
		{"2024-13-01T00:00:00Z", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(
			tt.input, func(t *testing.T) {
				t.Parallel()
				got, err := validate.ParseTimestamp("match_date", tt.input)
				if !tt.ok {
					fe, ok := validate.AsFieldError(err)
					require.True(t, ok)
					require.Equal(t, "match_date", fe.Field)
					return
				}
				require.NoError(t, err)
				require.True(t, tt.expected.Equal(got))
			},
		)
	}
}

func TestChecks(t *testing.T) {
	t.Parallel()
	require.NoError(t, validate.Between("x", (*float64)(nil), 0, 1))
	require.NoError(t, validate.Percentage("pass_accuracy", ptr(100.0)))
	require.Error(t, validate.Percentage("pass_accuracy", ptr(100.1)))
	require.NoError(t, validate.OneOf("status", ptr("FINISHED"), "SCHEDULED", "FINISHED"))
	require.Error(t, validate.OneOf("status", ptr("DONE"), "SCHEDULED", "FINISHED"))
	require.Error(t, validate.Distinct("away_team_id", "57", "home_team_id", "57"))
	require.NoError(t, validate.NotGreater("shots_on_target", ptr(3), "shots", ptr(5)))
	require.Error(t, validate.NotGreater("shots_on_target", ptr(6), "shots", ptr(5)))
	require.Error(t, validate.NonEmpty("id", ""))
	require.Error(t, validate.Present[int]("goals", nil))

	var dst *time.Time
	require.NoError(t, validate.OptionalTimestamp("predicted_at", nil, &dst))
	require.Nil(t, dst)
}

func TestFieldError(t *testing.T) {
	t.Parallel()
	err := error(&validate.FieldError{Field: "draw", Rule: validate.RuleBounds, Message: "1.2 is outside [0, 1]"})
	require.Equal(t, "draw: 1.2 is outside [0, 1] (bounds)", err.Error())

	_, ok := validate.AsFieldError(errors.New("plain"))
	require.False(t, ok)
}
