package mockkafka

import (
	"bytes"
	"testing"

	"github.com/hugolhafner/go-ingest/kafka"
	"github.com/stretchr/testify/require"
)

// AssertProducedCountForTopic verifies that exactly n records were produced to a topic.
func (c *Client) AssertProducedCountForTopic(tb testing.TB, topic string, expected int) {
	tb.Helper()

	actual := len(c.ProducedRecordsForTopic(topic))
	require.Equal(tb, expected, actual, "expected %d records produced to topic %q, got %d", expected, topic, actual)
}

// AssertCommittedOffset verifies that a specific offset was committed.
func (c *Client) AssertCommittedOffset(tb testing.TB, tp kafka.TopicPartition, expectedOffset int64) {
	tb.Helper()

	actual, ok := c.CommittedOffset(tp)
	require.True(
		tb, ok,
		"expected offset %d to be committed for %s-%d, but none found",
		expectedOffset, tp.Topic, tp.Partition,
	)

	require.Equal(
		tb, expectedOffset, actual.Offset, "expected offset %d to be committed for %s-%d, got %d", expectedOffset,
		tp.Topic, tp.Partition, actual.Offset,
	)
}

// AssertNotCommitted verifies that nothing was committed for the topic-partition.
func (c *Client) AssertNotCommitted(tb testing.TB, tp kafka.TopicPartition) {
	tb.Helper()

	offset, ok := c.CommittedOffset(tp)
	require.False(tb, ok, "expected no commit for %s-%d, got offset %d", tp.Topic, tp.Partition, offset.Offset)
}

// AssertHeader verifies that a produced record has a specific header.
func (c *Client) AssertHeader(tb testing.TB, topic string, value []byte, headerKey string, headerValue []byte) {
	tb.Helper()

	records := c.ProducedRecordsForTopic(topic)
	for _, r := range records {
		if bytes.Equal(r.Value, value) {
			actual, ok := kafka.HeaderValue(r.Headers, headerKey)
			require.True(tb, ok, "record with value=%q missing header %q", string(value), headerKey)
			require.Equal(
				tb, string(headerValue), string(actual), "record with value=%q has unexpected header %q",
				string(value), headerKey,
			)
			return
		}
	}

	tb.Errorf("no record with value=%q found in topic %q", string(value), topic)
}

// AssertNoMarkedRecords verifies that no records are currently marked.
func (c *Client) AssertNoMarkedRecords(tb testing.TB) {
	tb.Helper()

	records := c.MarkedRecords()
	require.Empty(tb, records, "expected no marked records, got %d", len(records))
}
