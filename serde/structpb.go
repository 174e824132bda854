package serde

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

type protoStructSerde[T any] struct {
	envelope Serde[*structpb.Struct]
	body     Serde[T]
}

// ProtoStruct returns a Serde for payloads framed as a binary
// google.protobuf.Struct. The struct is rendered to JSON and decoded into T
// with the same rules as JSON[T].
func ProtoStruct[T any]() Serde[T] {
	return protoStructSerde[T]{
		envelope: Protobuf(func() *structpb.Struct { return &structpb.Struct{} }),
		body:     JSON[T](),
	}
}

func (s protoStructSerde[T]) Serialise(topic string, value T) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	st := &structpb.Struct{}
	if err := protojson.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("serde: value is not a JSON object: %w", err)
	}

	return s.envelope.Serialise(topic, st)
}

func (s protoStructSerde[T]) Deserialise(topic string, data []byte) (T, error) {
	var zero T

	st, err := s.envelope.Deserialise(topic, data)
	if err != nil {
		return zero, fmt.Errorf("serde: invalid struct envelope: %w", err)
	}

	body, err := protojson.Marshal(st)
	if err != nil {
		return zero, err
	}

	return s.body.Deserialise(topic, body)
}
