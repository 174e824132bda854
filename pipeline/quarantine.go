package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hugolhafner/go-ingest/kafka"
	ingestotel "github.com/hugolhafner/go-ingest/otel"
	"github.com/hugolhafner/go-ingest/sink"
	"gorm.io/datatypes"
)

// Quarantine keeps rejected records for inspection. It runs before the
// offset commit; a failure retries the batch.
type Quarantine interface {
	Name() string
	Quarantine(ctx context.Context, batchID string, rejections []Rejection) error
}

// NoQuarantine only logs rejections.
type NoQuarantine struct{}

func (NoQuarantine) Name() string { return "none" }

func (NoQuarantine) Quarantine(context.Context, string, []Rejection) error { return nil }

// TopicQuarantine forwards rejected records to a dead letter topic with the
// original position and the error attached as headers.
type TopicQuarantine struct {
	producer  kafka.Producer
	topic     string
	telemetry *ingestotel.Telemetry
}

func NewTopicQuarantine(producer kafka.Producer, topic string, tel *ingestotel.Telemetry) *TopicQuarantine {
	if tel == nil {
		tel = ingestotel.Noop()
	}
	return &TopicQuarantine{producer: producer, topic: topic, telemetry: tel}
}

func (q *TopicQuarantine) Name() string { return "topic" }

func (q *TopicQuarantine) Quarantine(ctx context.Context, batchID string, rejections []Rejection) error {
	if len(rejections) == 0 {
		return nil
	}

	for _, rej := range rejections {
		rec := rej.Record.Copy()
		headers := append(rec.Headers, dlqHeaders(batchID, rej)...)
		headers = q.telemetry.InjectHeaders(ctx, headers)

		if err := q.producer.Send(ctx, q.topic, rec.Key, rec.Value, headers); err != nil {
			return fmt.Errorf("quarantine %s to %s: %w", rec.Position(), q.topic, err)
		}
	}

	return q.producer.Flush(ctx)
}

func dlqHeaders(batchID string, rej Rejection) []kafka.Header {
	rec := rej.Record
	headers := []kafka.Header{
		{Key: "x-original-topic", Value: []byte(rec.Topic)},
		{Key: "x-original-partition", Value: []byte(strconv.FormatInt(int64(rec.Partition), 10))},
		{Key: "x-original-offset", Value: []byte(strconv.FormatInt(rec.Offset, 10))},
		{Key: "x-error-timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		{Key: "x-error-attempt", Value: []byte("1")},
		{Key: "x-error-phase", Value: []byte(rej.Phase.String())},
		{Key: "x-batch-id", Value: []byte(batchID)},
	}

	if rej.Err != nil {
		headers = append(headers, kafka.Header{Key: "x-error-message", Value: []byte(rej.Err.Error())})
	}
	if rej.Field != "" {
		headers = append(headers, kafka.Header{Key: "x-error-field", Value: []byte(rej.Field)})
	}
	if len(rej.Missing) > 0 {
		missing := make([]string, len(rej.Missing))
		for i, m := range rej.Missing {
			missing[i] = m.String()
		}
		headers = append(headers, kafka.Header{Key: "x-error-missing", Value: []byte(strings.Join(missing, ", "))})
	}

	return headers
}

// RejectionStore persists quarantined records. *sink.DB implements it.
type RejectionStore interface {
	SaveRejections(ctx context.Context, rows []sink.Rejection) error
}

// TableQuarantine stores rejected records in the rejections table.
type TableQuarantine struct {
	store RejectionStore
}

func NewTableQuarantine(store RejectionStore) *TableQuarantine {
	return &TableQuarantine{store: store}
}

func (q *TableQuarantine) Name() string { return "table" }

func (q *TableQuarantine) Quarantine(ctx context.Context, batchID string, rejections []Rejection) error {
	if len(rejections) == 0 {
		return nil
	}

	rows := make([]sink.Rejection, 0, len(rejections))
	for _, rej := range rejections {
		row := sink.Rejection{
			BatchID:   batchID,
			Topic:     rej.Record.Topic,
			Partition: rej.Record.Partition,
			Offset:    rej.Record.Offset,
			Phase:     rej.Phase.String(),
			Field:     rej.Field,
			Payload:   append([]byte(nil), rej.Record.Value...),
		}
		if rej.Err != nil {
			row.Reason = rej.Err.Error()
		}

		if len(rej.Missing) > 0 {
			missing := make([]string, len(rej.Missing))
			for i, m := range rej.Missing {
				missing[i] = m.String()
			}
			raw, err := json.Marshal(missing)
			if err != nil {
				return fmt.Errorf("encode missing references: %w", err)
			}
			row.Missing = datatypes.JSON(raw)
		}

		rows = append(rows, row)
	}

	return q.store.SaveRejections(ctx, rows)
}
