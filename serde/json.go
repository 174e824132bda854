package serde

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	ErrEmptyPayload = errors.New("empty payload")
	ErrNotAnObject  = errors.New("payload is not a json object")
)

type jsonSerde[T any] struct{}

// JSON returns a Serde for json object payloads. Deserialise accepts exactly
// one object: empty payloads, null, scalars and trailing data are errors.
func JSON[T any]() Serde[T] {
	return jsonSerde[T]{}
}

func (s jsonSerde[T]) Serialise(_ string, value T) ([]byte, error) {
	return json.Marshal(value)
}

func (s jsonSerde[T]) Deserialise(topic string, data []byte) (T, error) {
	var result T

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return result, ErrEmptyPayload
	}
	if trimmed[0] != '{' {
		return result, ErrNotAnObject
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(&result); err != nil {
		return result, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return result, fmt.Errorf("trailing data after %s payload", topic)
	}

	return result, nil
}
