//go:build unit

package serde_test

import (
	"testing"

	"github.com/hugolhafner/go-ingest/serde"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestProtobufSerde_RoundTrip(t *testing.T) {
	t.Parallel()
	s := serde.Protobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })

	data, err := s.Serialise("topic", wrapperspb.String("hello world"))
	require.NoError(t, err)

	out, err := s.Deserialise("topic", data)
	require.NoError(t, err)
	require.True(t, proto.Equal(wrapperspb.String("hello world"), out))
}

func TestProtobufSerde_InvalidBytes(t *testing.T) {
	t.Parallel()
	s := serde.Protobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })

	_, err := s.Deserialise("topic", []byte{0xff, 0xfe, 0x00})
	require.Error(t, err)
}

func TestProtoStructSerde_Deserialise(t *testing.T) {
	t.Parallel()
	st, err := structpb.NewStruct(map[string]any{"name": "Everton", "founded": 1878})
	require.NoError(t, err)
	data, err := proto.Marshal(st)
	require.NoError(t, err)

	out, err := serde.ProtoStruct[fixture]().Deserialise("teams", data)
	require.NoError(t, err)
	require.Equal(t, "Everton", out.Name)
	require.Equal(t, 1878, *out.Founded)
}

func TestProtoStructSerde_RoundTrip(t *testing.T) {
	t.Parallel()
	s := serde.For[fixture](serde.FormatProtoStruct)

	data, err := s.Serialise("teams", fixture{Name: "Fulham", Founded: intPtr(1879)})
	require.NoError(t, err)

	out, err := s.Deserialise("teams", data)
	require.NoError(t, err)
	require.Equal(t, fixture{Name: "Fulham", Founded: intPtr(1879)}, out)
}

func TestProtoStructSerde_InvalidEnvelope(t *testing.T) {
	t.Parallel()
	_, err := serde.ProtoStruct[fixture]().Deserialise("teams", []byte{0xff, 0xff, 0xff})
	require.Error(t, err)
}
