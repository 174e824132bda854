package mockkafka

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hugolhafner/go-ingest/kafka"
)

var _ kafka.Client = (*Client)(nil)

// ProducedRecord represents a record that was sent via the mock producer.
type ProducedRecord struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers []kafka.Header
}

// Client is an in-memory consumer and producer. Every partition holding
// records is treated as assigned to this client.
type Client struct {
	mu sync.RWMutex

	recordQueues   map[kafka.TopicPartition][]kafka.ConsumerRecord
	queuePositions map[kafka.TopicPartition]int

	producedRecords  []ProducedRecord
	committedOffsets map[kafka.TopicPartition]kafka.Offset

	// Mark/commit tracking
	markedRecords []kafka.ConsumerRecord
	markedOffsets map[kafka.TopicPartition]kafka.Offset

	maxPollRecords int
	pollDelay      time.Duration
	polls          int
	commits        int

	sendErr   func(topic string, key, value []byte) error
	pollErr   func() error
	commitErr func() error
	pingErr   error

	closed bool
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		recordQueues:     make(map[kafka.TopicPartition][]kafka.ConsumerRecord),
		queuePositions:   make(map[kafka.TopicPartition]int),
		producedRecords:  make([]ProducedRecord, 0),
		committedOffsets: make(map[kafka.TopicPartition]kafka.Offset),
		markedRecords:    make([]kafka.ConsumerRecord, 0),
		markedOffsets:    make(map[kafka.TopicPartition]kafka.Offset),
		maxPollRecords:   10,
		pollDelay:        0,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Poll retrieves records round-robin across partitions, up to maxPollRecords
// (default 10) records per call.
func (c *Client) Poll(ctx context.Context) ([]kafka.ConsumerRecord, error) {
	if c.pollDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollDelay):
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.polls++

	if c.closed {
		return nil, context.Canceled
	}

	if c.pollErr != nil {
		if err := c.pollErr(); err != nil {
			return nil, err
		}
	}

	partitions := c.sortedPartitions()

	var records []kafka.ConsumerRecord
	for len(records) < c.maxPollRecords {
		progressMade := false

		for _, tp := range partitions {
			queue := c.recordQueues[tp]
			pos := c.queuePositions[tp]
			if pos >= len(queue) {
				continue
			}

			records = append(records, queue[pos])
			c.queuePositions[tp]++
			progressMade = true

			if len(records) >= c.maxPollRecords {
				break
			}
		}

		if !progressMade {
			break
		}
	}

	return records, nil
}

func (c *Client) sortedPartitions() []kafka.TopicPartition {
	partitions := make([]kafka.TopicPartition, 0, len(c.recordQueues))
	for tp := range c.recordQueues {
		partitions = append(partitions, tp)
	}
	sort.Slice(
		partitions, func(i, j int) bool {
			if partitions[i].Topic != partitions[j].Topic {
				return partitions[i].Topic < partitions[j].Topic
			}
			return partitions[i].Partition < partitions[j].Partition
		},
	)
	return partitions
}

// MarkRecords marks records as processed. The offsets will be committed
// when Commit is called.
func (c *Client) MarkRecords(records ...kafka.ConsumerRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, record := range records {
		c.markedRecords = append(c.markedRecords, record)

		// next offset to fetch = current + 1
		tp := record.TopicPartition()
		nextOffset := kafka.Offset{
			Offset:      record.Offset + 1,
			LeaderEpoch: record.LeaderEpoch,
		}

		if current, exists := c.markedOffsets[tp]; !exists || nextOffset.Offset > current.Offset {
			c.markedOffsets[tp] = nextOffset
		}
	}
}

// Commit commits the offsets of all marked records.
// After a successful commit, the marked records are cleared.
func (c *Client) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	c.commits++

	if c.commitErr != nil {
		if err := c.commitErr(); err != nil {
			return err
		}
	}

	for tp, offset := range c.markedOffsets {
		c.committedOffsets[tp] = offset
	}

	c.markedRecords = make([]kafka.ConsumerRecord, 0)
	c.markedOffsets = make(map[kafka.TopicPartition]kafka.Offset)

	return nil
}

// Send produces a record to the specified topic.
// The record is stored internally and can be verified using ProducedRecords().
func (c *Client) Send(ctx context.Context, topic string, key, value []byte, headers []kafka.Header) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sendErr != nil {
		if err := c.sendErr(topic, key, value); err != nil {
			return err
		}
	}

	// produced records never alias caller buffers
	rec := kafka.ConsumerRecord{Topic: topic, Key: key, Value: value, Headers: headers}.Copy()
	c.producedRecords = append(
		c.producedRecords, ProducedRecord{
			Topic:   topic,
			Key:     rec.Key,
			Value:   rec.Value,
			Headers: rec.Headers,
		},
	)

	return nil
}

// Flush is a no-op for the mock client since Send is synchronous.
func (c *Client) Flush(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (c *Client) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.pingErr
}

// Close marks the client as closed. Subsequent polls fail.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
}

// AddRecords appends records to a topic-partition queue, filling in topic,
// partition and sequential offsets.
func (c *Client) AddRecords(topic string, partition int32, records ...kafka.ConsumerRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tp := kafka.TopicPartition{Topic: topic, Partition: partition}
	existing := len(c.recordQueues[tp])

	for i := range records {
		records[i].Topic = topic
		records[i].Partition = partition
		records[i].Offset = int64(existing + i)
	}

	c.recordQueues[tp] = append(c.recordQueues[tp], records...)
}

// RewindToCommitted moves every read position back to the committed offset,
// simulating a restart where uncommitted records are redelivered.
func (c *Client) RewindToCommitted() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for tp := range c.recordQueues {
		c.queuePositions[tp] = int(c.committedOffsets[tp].Offset)
	}
	c.markedRecords = make([]kafka.ConsumerRecord, 0)
	c.markedOffsets = make(map[kafka.TopicPartition]kafka.Offset)
	c.closed = false
}

// RewindToStart moves every read position to the first record, simulating a full replay.
func (c *Client) RewindToStart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queuePositions = make(map[kafka.TopicPartition]int)
	c.closed = false
}

func (c *Client) SetPollError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.pollErr = nil
	} else {
		c.pollErr = func() error { return err }
	}
}

func (c *Client) SetCommitError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.commitErr = nil
	} else {
		c.commitErr = func() error { return err }
	}
}

func (c *Client) SetSendError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.sendErr = nil
	} else {
		c.sendErr = func(string, []byte, []byte) error { return err }
	}
}

// ProducedRecords returns a copy of all records that have been sent via Send.
func (c *Client) ProducedRecords() []ProducedRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]ProducedRecord, len(c.producedRecords))
	copy(result, c.producedRecords)
	return result
}

// ProducedRecordsForTopic returns all records produced to a specific topic.
func (c *Client) ProducedRecordsForTopic(topic string) []ProducedRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []ProducedRecord
	for _, r := range c.producedRecords {
		if r.Topic == topic {
			result = append(result, r)
		}
	}
	return result
}

// CommittedOffset returns the committed offset for a specific topic-partition.
func (c *Client) CommittedOffset(tp kafka.TopicPartition) (kafka.Offset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	offset, ok := c.committedOffsets[tp]
	return offset, ok
}

// MarkedRecords returns a copy of all records that have been marked but not yet committed.
func (c *Client) MarkedRecords() []kafka.ConsumerRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]kafka.ConsumerRecord, len(c.markedRecords))
	copy(result, c.markedRecords)
	return result
}

// Remaining returns the number of queued records not yet returned by Poll.
func (c *Client) Remaining() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for tp, q := range c.recordQueues {
		n += len(q) - c.queuePositions[tp]
	}
	return n
}

// PollCount returns how many times Poll was called.
func (c *Client) PollCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.polls
}

// CommitCount returns how many times Commit was called.
func (c *Client) CommitCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.commits
}

// IsClosed returns whether Close has been called.
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.closed
}
