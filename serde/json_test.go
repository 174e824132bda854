//go:build unit

package serde_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/hugolhafner/go-ingest/serde"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	Name    string `json:"name"`
	Founded *int   `json:"founded"`
}

func TestJsonSerde_Serialise(t *testing.T) {
	t.Parallel()
	founded := 1892

	s := serde.JSON[fixture]()
	out, err := s.Serialise("teams", fixture{Name: "Liverpool", Founded: &founded})
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Liverpool","founded":1892}`, string(out))
}

func TestJsonSerde_Deserialise(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		input     string
		expectErr bool
		expected  fixture
	}{
		{
			name:     "full object",
			input:    `{"name":"Arsenal","founded":1886}`,
			expected: fixture{Name: "Arsenal", Founded: intPtr(1886)},
		},
		{
			name:     "missing optional field",
			input:    `{"name":"Arsenal"}`,
			expected: fixture{Name: "Arsenal"},
		},
		{
			name:      "malformed",
			input:     `{"name":`,
			expectErr: true,
		},
		{
			name:      "empty",
			input:     "  ",
			expectErr: true,
		},
		{
			name:      "null",
			input:     `null`,
			expectErr: true,
		},
		{
			name:      "array",
			input:     `[{"name":"Arsenal"}]`,
			expectErr: true,
		},
		{
			name:      "trailing data",
			input:     `{"name":"Arsenal"} {"name":"Chelsea"}`,
			expectErr: true,
		},
		{
			name:      "wrong type",
			input:     `{"name":"Arsenal","founded":"old"}`,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()
				out, err := serde.JSON[fixture]().Deserialise("teams", []byte(tt.input))
				if tt.expectErr {
					require.Error(t, err)
					return
				}
				require.NoError(t, err)
				require.Equal(t, tt.expected, out)
			},
		)
	}
}

func TestJsonSerde_TypeErrorCarriesField(t *testing.T) {
	t.Parallel()
	_, err := serde.JSON[fixture]().Deserialise("teams", []byte(`{"founded":"old"}`))

	var typeErr *json.UnmarshalTypeError
	require.True(t, errors.As(err, &typeErr))
	require.Equal(t, "founded", typeErr.Field)
}

func TestJsonSerde_EnvelopeErrors(t *testing.T) {
	t.Parallel()
	_, err := serde.JSON[fixture]().Deserialise("teams", nil)
	require.ErrorIs(t, err, serde.ErrEmptyPayload)

	_, err = serde.JSON[fixture]().Deserialise("teams", []byte(`"Arsenal"`))
	require.ErrorIs(t, err, serde.ErrNotAnObject)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	f, err := serde.ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, serde.FormatJSON, f)

	f, err = serde.ParseFormat("protostruct")
	require.NoError(t, err)
	require.Equal(t, serde.FormatProtoStruct, f)

	_, err = serde.ParseFormat("avro")
	require.Error(t, err)
}

func intPtr(v int) *int {
	return &v
}
