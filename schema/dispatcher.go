package schema

import (
	"errors"
	"fmt"

	"github.com/hugolhafner/go-ingest/entity"
	"github.com/hugolhafner/go-ingest/kafka"
)

// Dispatcher binds each subscribed topic to its handler. Every topic is
// resolved when the dispatcher is built, so an unknown topic fails startup
// instead of individual records.
type Dispatcher struct {
	handlers map[string]Handler
	topics   []string
}

func NewDispatcher(r *Registry, topics []string) (*Dispatcher, error) {
	if len(topics) == 0 {
		return nil, errors.New("no topics to dispatch")
	}

	d := &Dispatcher{handlers: make(map[string]Handler, len(topics))}

	var errs []error
	for _, topic := range topics {
		if _, dup := d.handlers[topic]; dup {
			errs = append(errs, fmt.Errorf("topic %s listed twice", topic))
			continue
		}

		h, err := r.Lookup(topic)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d.handlers[topic] = h
		d.topics = append(d.topics, topic)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dispatcher) Topics() []string {
	return d.topics
}

func (d *Dispatcher) Handler(topic string) (Handler, bool) {
	h, ok := d.handlers[topic]
	return h, ok
}

func (d *Dispatcher) Handlers() []Handler {
	out := make([]Handler, 0, len(d.topics))
	for _, t := range d.topics {
		out = append(out, d.handlers[t])
	}
	return out
}

// Dispatch decodes a record with the handler bound to its topic.
func (d *Dispatcher) Dispatch(rec kafka.ConsumerRecord) (entity.Record, error) {
	h, ok := d.handlers[rec.Topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, rec.Topic)
	}
	return h.Decode(rec)
}
