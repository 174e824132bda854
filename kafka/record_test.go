//go:build unit

package kafka_test

import (
	"testing"

	"github.com/hugolhafner/go-ingest/kafka"
	"github.com/stretchr/testify/require"
)

func TestConsumerRecord_CopyDoesNotAlias(t *testing.T) {
	t.Parallel()
	orig := kafka.ConsumerRecord{
		Topic:   "teams",
		Value:   []byte(`{"id":57}`),
		Headers: []kafka.Header{{Key: "traceparent", Value: []byte("00-abc")}},
	}

	c := orig.Copy()
	orig.Value[0] = 'X'
	orig.Headers[0].Value[0] = 'X'

	require.Equal(t, `{"id":57}`, string(c.Value))
	v, ok := kafka.HeaderValue(c.Headers, "traceparent")
	require.True(t, ok)
	require.Equal(t, "00-abc", string(v))
}

func TestConsumerRecord_Position(t *testing.T) {
	t.Parallel()
	r := kafka.ConsumerRecord{Topic: "matches", Partition: 3, Offset: 42}
	require.Equal(t, "matches-3@42", r.Position())
}
