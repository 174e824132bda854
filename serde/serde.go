package serde

import "fmt"

type Serde[T any] interface {
	Serialiser[T]
	Deserialiser[T]
}

type Serialiser[T any] interface {
	Serialise(topic string, value T) ([]byte, error)
}

type Deserialiser[T any] interface {
	Deserialise(topic string, data []byte) (T, error)
}

// Format names the wire encoding of record payloads.
type Format string

const (
	FormatJSON        Format = "json"
	FormatProtoStruct Format = "protostruct"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatProtoStruct:
		return FormatProtoStruct, nil
	default:
		return "", fmt.Errorf("serde: unknown payload format %q", s)
	}
}

// For returns the Serde for format, defaulting to JSON.
func For[T any](format Format) Serde[T] {
	if format == FormatProtoStruct {
		return ProtoStruct[T]()
	}
	return JSON[T]()
}
