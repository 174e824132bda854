package kafka

import (
	"context"
)

// Consumer is the inbound side of a single topic subscription
type Consumer interface {
	// Poll returns at most one micro-batch window of records
	Poll(ctx context.Context) ([]ConsumerRecord, error)
	// MarkRecords flags records as durably processed; nothing is committed until Commit
	MarkRecords(records ...ConsumerRecord)
	// Commit synchronously advances the group position to the marked offsets
	Commit(ctx context.Context) error
	Close()
}

type Producer interface {
	Send(ctx context.Context, topic string, key, value []byte, headers []Header) error
	Flush(ctx context.Context) error
	Close()
}

type Client interface {
	Producer
	Consumer

	Ping(ctx context.Context) error
}
