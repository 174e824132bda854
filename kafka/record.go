package kafka

import (
	"bytes"
	"strconv"
	"time"
)

// Header is a single record header. Keys may repeat.
type Header struct {
	Key   string
	Value []byte
}

// HeaderValue returns the value of the first header named key.
func HeaderValue(headers []Header, key string) ([]byte, bool) {
	for _, h := range headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return nil, false
}

// ConsumerRecord is one raw inbound event. The payload is decoded by the
// schema bound to Topic.
type ConsumerRecord struct {
	Key         []byte
	Value       []byte
	Headers     []Header
	Topic       string
	Partition   int32
	Offset      int64
	LeaderEpoch int32
	Timestamp   time.Time
}

func (r ConsumerRecord) TopicPartition() TopicPartition {
	return TopicPartition{Topic: r.Topic, Partition: r.Partition}
}

// Copy returns a record that shares no memory with r, safe to keep after
// the client reuses its buffers.
func (r ConsumerRecord) Copy() ConsumerRecord {
	c := r
	c.Key = bytes.Clone(r.Key)
	c.Value = bytes.Clone(r.Value)
	c.Headers = make([]Header, len(r.Headers))
	for i, h := range r.Headers {
		c.Headers[i] = Header{Key: h.Key, Value: bytes.Clone(h.Value)}
	}
	return c
}

// Position formats the record's place in the log as topic-partition@offset.
func (r ConsumerRecord) Position() string {
	return r.TopicPartition().String() + "@" + strconv.FormatInt(r.Offset, 10)
}

type TopicPartition struct {
	Topic     string
	Partition int32
}

func (tp TopicPartition) String() string {
	return tp.Topic + "-" + strconv.FormatInt(int64(tp.Partition), 10)
}

// Offset is the next offset to consume, with the epoch of the record
// it follows.
type Offset struct {
	LeaderEpoch int32
	Offset      int64
}
