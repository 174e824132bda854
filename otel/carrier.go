package otel

import (
	"context"

	"github.com/hugolhafner/go-ingest/kafka"
	"go.opentelemetry.io/otel/propagation"
)

var _ propagation.TextMapCarrier = KafkaHeadersCarrier{}

// KafkaHeadersCarrier adapts record headers to a propagation.TextMapCarrier.
type KafkaHeadersCarrier struct {
	Headers *[]kafka.Header
}

func NewKafkaHeadersCarrier(headers *[]kafka.Header) KafkaHeadersCarrier {
	return KafkaHeadersCarrier{Headers: headers}
}

func (c KafkaHeadersCarrier) Get(key string) string {
	if v, ok := kafka.HeaderValue(*c.Headers, key); ok {
		return string(v)
	}
	return ""
}

// Set overwrites every header with the key, or appends one.
func (c KafkaHeadersCarrier) Set(key, value string) {
	found := false
	for i, h := range *c.Headers {
		if h.Key == key {
			(*c.Headers)[i].Value = []byte(value)
			found = true
		}
	}

	if !found {
		*c.Headers = append(*c.Headers, kafka.Header{Key: key, Value: []byte(value)})
	}
}

func (c KafkaHeadersCarrier) Keys() []string {
	keys := make([]string, len(*c.Headers))
	for i, h := range *c.Headers {
		keys[i] = h.Key
	}
	return keys
}

// ExtractRecord returns ctx enriched with any trace context the producer
// attached to the record.
func (t *Telemetry) ExtractRecord(ctx context.Context, record kafka.ConsumerRecord) context.Context {
	headers := record.Headers
	return t.Propagator.Extract(ctx, NewKafkaHeadersCarrier(&headers))
}

// InjectHeaders writes the trace context of ctx into headers.
func (t *Telemetry) InjectHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	t.Propagator.Inject(ctx, NewKafkaHeadersCarrier(&headers))
	return headers
}
