package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hugolhafner/go-ingest/logger"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
)

var _ Client = (*KgoClient)(nil)

var ErrUnknownTopics = errors.New("topics missing on cluster")

type KgoClientConfig struct {
	BootstrapServers  []string
	GroupID           string
	Topics            []string
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration
	MaxPollRecords    int
	PollTimeout       time.Duration

	Logger logger.Logger
}

func defaultConfig() KgoClientConfig {
	return KgoClientConfig{
		BootstrapServers:  []string{"localhost:9092"},
		SessionTimeout:    45 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		PollTimeout:       3 * time.Second,
		MaxPollRecords:    500,
		Logger:            logger.NewNoopLogger(),
	}
}

type KgoOption func(*KgoClientConfig)

func WithBootstrapServers(servers []string) KgoOption {
	return func(cfg *KgoClientConfig) {
		cfg.BootstrapServers = servers
	}
}

func WithGroupID(id string) KgoOption {
	return func(cfg *KgoClientConfig) {
		cfg.GroupID = id
	}
}

// WithTopics subscribes the client; without topics the client only produces
func WithTopics(topics ...string) KgoOption {
	return func(cfg *KgoClientConfig) {
		cfg.Topics = topics
	}
}

// WithMaxPollRecords bounds the micro-batch window returned by Poll
func WithMaxPollRecords(n int) KgoOption {
	return func(cfg *KgoClientConfig) {
		if n > 0 {
			cfg.MaxPollRecords = n
		}
	}
}

func WithPollTimeout(d time.Duration) KgoOption {
	return func(cfg *KgoClientConfig) {
		if d > 0 {
			cfg.PollTimeout = d
		}
	}
}

func WithSessionTimeout(d time.Duration) KgoOption {
	return func(cfg *KgoClientConfig) {
		if d > 0 {
			cfg.SessionTimeout = d
		}
	}
}

func WithLogger(l logger.Logger) KgoOption {
	return func(cfg *KgoClientConfig) {
		cfg.Logger = l.
			With("client", "kgo")
	}
}

// KgoClient is a franz-go backed client. Offsets are never auto committed:
// the position only moves when Commit is called with records previously marked.
type KgoClient struct {
	client *kgo.Client
	config KgoClientConfig

	mu     sync.Mutex
	marked map[string]map[int32]kgo.EpochOffset

	logger logger.Logger
}

func NewKgoClient(opts ...KgoOption) (*KgoClient, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	kc := &KgoClient{
		config: cfg,
		marked: make(map[string]map[int32]kgo.EpochOffset),
		logger: cfg.Logger,
	}

	kgoOpts := []kgo.Opt{
		kgo.SeedBrokers(cfg.BootstrapServers...),
		kgo.WithLogger(newKgoLogger(kc.logger)),
	}

	if len(cfg.Topics) > 0 {
		if cfg.GroupID == "" {
			return nil, errors.New("group id required when consuming")
		}

		kgoOpts = append(
			kgoOpts,
			kgo.ConsumerGroup(cfg.GroupID),
			kgo.ConsumeTopics(cfg.Topics...),
			kgo.DisableAutoCommit(),
			kgo.OnPartitionsRevoked(kc.onRevoked),
			kgo.OnPartitionsLost(kc.onLost),
			kgo.SessionTimeout(cfg.SessionTimeout),
			kgo.HeartbeatInterval(cfg.HeartbeatInterval),
		)
	}

	client, err := kgo.NewClient(kgoOpts...)
	if err != nil {
		return nil, fmt.Errorf("create kgo client: %w", err)
	}

	kc.client = client

	return kc, nil
}

// onRevoked flushes marks for partitions leaving this member so the next owner
// starts after everything already written to the sink
func (k *KgoClient) onRevoked(ctx context.Context, _ *kgo.Client, revoked map[string][]int32) {
	k.logger.Info("Partitions revoked", "partitions", revoked)

	toCommit := k.takeMarked(revoked)
	if len(toCommit) == 0 {
		return
	}

	if err := k.commit(ctx, toCommit); err != nil {
		k.logger.Error("Failed to commit offsets on revoke", "error", err)
	}
}

func (k *KgoClient) onLost(_ context.Context, _ *kgo.Client, lost map[string][]int32) {
	k.logger.Warn("Partitions lost", "partitions", lost)
	k.takeMarked(lost)
}

func (k *KgoClient) takeMarked(partitions map[string][]int32) map[string]map[int32]kgo.EpochOffset {
	k.mu.Lock()
	defer k.mu.Unlock()

	out := make(map[string]map[int32]kgo.EpochOffset)
	for topic, ps := range partitions {
		for _, p := range ps {
			off, ok := k.marked[topic][p]
			if !ok {
				continue
			}
			if out[topic] == nil {
				out[topic] = make(map[int32]kgo.EpochOffset)
			}
			out[topic][p] = off
			delete(k.marked[topic], p)
		}
	}

	return out
}

func (k *KgoClient) Poll(ctx context.Context) ([]ConsumerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, k.config.PollTimeout)
	defer cancel()

	fetches := k.client.PollRecords(ctx, k.config.MaxPollRecords)
	if fetches.IsClientClosed() {
		return nil, errors.New("poll: client closed")
	}

	if errs := fetches.Errors(); len(errs) > 0 {
		for _, err := range errs {
			if !errors.Is(err.Err, context.DeadlineExceeded) && !errors.Is(err.Err, context.Canceled) {
				return nil, fmt.Errorf("poll %s[%d]: %w", err.Topic, err.Partition, err.Err)
			}
		}
	}

	return convertRecords(fetches.Records()), nil
}

func (k *KgoClient) MarkRecords(records ...ConsumerRecord) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, r := range records {
		byPartition, ok := k.marked[r.Topic]
		if !ok {
			byPartition = make(map[int32]kgo.EpochOffset)
			k.marked[r.Topic] = byPartition
		}

		next := kgo.EpochOffset{Epoch: r.LeaderEpoch, Offset: r.Offset + 1}
		if cur, ok := byPartition[r.Partition]; !ok || next.Offset > cur.Offset {
			byPartition[r.Partition] = next
		}
	}
}

// Commit synchronously commits every marked offset. Marks survive a failed
// commit and are retried by the next call.
func (k *KgoClient) Commit(ctx context.Context) error {
	k.mu.Lock()
	toCommit := make(map[string]map[int32]kgo.EpochOffset, len(k.marked))
	for topic, ps := range k.marked {
		if len(ps) == 0 {
			continue
		}
		toCommit[topic] = make(map[int32]kgo.EpochOffset, len(ps))
		for p, off := range ps {
			toCommit[topic][p] = off
		}
	}
	k.mu.Unlock()

	if len(toCommit) == 0 {
		return nil
	}

	if err := k.commit(ctx, toCommit); err != nil {
		return err
	}

	k.mu.Lock()
	for topic, ps := range toCommit {
		for p, off := range ps {
			if cur, ok := k.marked[topic][p]; ok && cur.Offset == off.Offset {
				delete(k.marked[topic], p)
			}
		}
	}
	k.mu.Unlock()

	return nil
}

func (k *KgoClient) commit(ctx context.Context, offsets map[string]map[int32]kgo.EpochOffset) error {
	var commitErr error
	k.client.CommitOffsetsSync(
		ctx, offsets,
		func(_ *kgo.Client, _ *kmsg.OffsetCommitRequest, resp *kmsg.OffsetCommitResponse, err error) {
			if err != nil {
				commitErr = err
				return
			}

			for _, t := range resp.Topics {
				for _, p := range t.Partitions {
					if err := kerr.ErrorForCode(p.ErrorCode); err != nil {
						commitErr = fmt.Errorf("%s[%d]: %w", t.Topic, p.Partition, err)
						return
					}
				}
			}
		},
	)

	if commitErr != nil {
		return fmt.Errorf("commit offsets: %w", commitErr)
	}

	return nil
}

// VerifyTopics asks the cluster for metadata on every topic and fails if any is unknown
func (k *KgoClient) VerifyTopics(ctx context.Context, topics []string) error {
	req := kmsg.NewPtrMetadataRequest()
	for _, topic := range topics {
		rt := kmsg.NewMetadataRequestTopic()
		rt.Topic = kmsg.StringPtr(topic)
		req.Topics = append(req.Topics, rt)
	}

	resp, err := req.RequestWith(ctx, k.client)
	if err != nil {
		return fmt.Errorf("metadata request: %w", err)
	}

	var missing []string
	for _, t := range resp.Topics {
		if err := kerr.ErrorForCode(t.ErrorCode); err != nil {
			name := ""
			if t.Topic != nil {
				name = *t.Topic
			}
			missing = append(missing, fmt.Sprintf("%s (%v)", name, err))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrUnknownTopics, missing)
	}

	return nil
}

func (k *KgoClient) Send(ctx context.Context, topic string, key, value []byte, headers []Header) error {
	record := &kgo.Record{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Headers: convertToKgoHeaders(headers),
	}

	k.logger.Debug("Sending record", "topic", topic, "key", string(key))

	results := k.client.ProduceSync(ctx, record)
	return results.FirstErr()
}

func (k *KgoClient) Flush(ctx context.Context) error {
	return k.client.Flush(ctx)
}

func (k *KgoClient) Ping(ctx context.Context) error {
	return k.client.Ping(ctx)
}

func (k *KgoClient) Close() {
	k.client.Close()
}

func convertRecords(records []*kgo.Record) []ConsumerRecord {
	converted := make([]ConsumerRecord, len(records))
	for i, r := range records {
		converted[i] = ConsumerRecord{
			Topic:       r.Topic,
			Partition:   r.Partition,
			Offset:      r.Offset,
			Key:         r.Key,
			Value:       r.Value,
			Headers:     convertFromKgoHeaders(r.Headers),
			Timestamp:   r.Timestamp,
			LeaderEpoch: r.LeaderEpoch,
		}
	}

	return converted
}

func convertFromKgoHeaders(headers []kgo.RecordHeader) []Header {
	converted := make([]Header, len(headers))
	for i, h := range headers {
		converted[i] = Header{Key: h.Key, Value: h.Value}
	}
	return converted
}

func convertToKgoHeaders(headers []Header) []kgo.RecordHeader {
	kgoHeaders := make([]kgo.RecordHeader, len(headers))
	for i, h := range headers {
		kgoHeaders[i] = kgo.RecordHeader{Key: h.Key, Value: h.Value}
	}
	return kgoHeaders
}
