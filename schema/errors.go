package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownTopic   = errors.New("no schema registered for topic")
	ErrDuplicateTopic = errors.New("schema already registered for topic")
	ErrDependencyLoop = errors.New("topic dependencies form a cycle")
)

// DecodeError wraps a payload that could not be turned into a typed record.
type DecodeError struct {
	Topic     string
	Partition int32
	Offset    int64
	// Field is set when the payload parsed but a field had the wrong type.
	Field string
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode %s@%d: field %s: %v", e.Topic, e.Offset, e.Field, e.Cause)
	}
	return fmt.Sprintf("decode %s@%d: %v", e.Topic, e.Offset, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

func AsDecodeError(err error) (*DecodeError, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func fieldOf(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Field
	}
	return ""
}
