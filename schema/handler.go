package schema

import (
	"fmt"

	"github.com/hugolhafner/go-ingest/entity"
	"github.com/hugolhafner/go-ingest/kafka"
	"github.com/hugolhafner/go-ingest/serde"
	"github.com/hugolhafner/go-ingest/validate"
)

// Handler is the capability set bound to one topic: decode and validate a
// record, name the kinds it references, and describe its upsert table.
type Handler interface {
	Topic() string
	Kind() entity.Kind
	// Decode turns a raw record into its typed form or a *DecodeError.
	Decode(rec kafka.ConsumerRecord) (entity.Record, error)
	// Validate checks a decoded record and normalizes wire formats in place.
	// Failures are *validate.FieldError.
	Validate(r entity.Record) error
	// DependsOn lists the kinds this topic's records may reference.
	DependsOn() []entity.Kind
	Table() entity.Table
}

type recordPtr[T any] interface {
	*T
	entity.Record
}

var _ Handler = (*Schema[entity.Team, *entity.Team])(nil)

// Schema is the Handler for records of type T.
type Schema[T any, P recordPtr[T]] struct {
	topic     string
	kind      entity.Kind
	decoder   serde.Deserialiser[T]
	rules     validate.Rules[T]
	dependsOn []entity.Kind
	table     entity.Table
}

func NewSchema[T any, P recordPtr[T]](
	kind entity.Kind, decoder serde.Deserialiser[T], rules validate.Rules[T], dependsOn ...entity.Kind,
) *Schema[T, P] {
	return &Schema[T, P]{
		topic:     kind.String(),
		kind:      kind,
		decoder:   decoder,
		rules:     rules,
		dependsOn: dependsOn,
		table:     entity.TableFor(kind),
	}
}

// WithTopic returns a copy bound to a different topic name.
func (s *Schema[T, P]) WithTopic(topic string) *Schema[T, P] {
	c := *s
	c.topic = topic
	return &c
}

// WithTable returns a copy with a different table description.
func (s *Schema[T, P]) WithTable(table entity.Table) *Schema[T, P] {
	c := *s
	c.table = table
	return &c
}

func (s *Schema[T, P]) Topic() string { return s.topic }

func (s *Schema[T, P]) Kind() entity.Kind { return s.kind }

func (s *Schema[T, P]) DependsOn() []entity.Kind { return s.dependsOn }

func (s *Schema[T, P]) Table() entity.Table { return s.table }

func (s *Schema[T, P]) Decode(rec kafka.ConsumerRecord) (entity.Record, error) {
	v, err := s.decoder.Deserialise(rec.Topic, rec.Value)
	if err != nil {
		return nil, &DecodeError{
			Topic:     rec.Topic,
			Partition: rec.Partition,
			Offset:    rec.Offset,
			Field:     fieldOf(err),
			Cause:     err,
		}
	}
	return P(&v), nil
}

func (s *Schema[T, P]) Validate(r entity.Record) error {
	typed, ok := r.(P)
	if !ok {
		return fmt.Errorf("schema %s: unexpected record type %T", s.topic, r)
	}
	return s.rules.Validate((*T)(typed))
}
