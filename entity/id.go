package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ID is an entity identifier. Producers send numeric ids; strings are
// accepted as well. The canonical form is the decimal string.
type ID string

func (id ID) IsZero() bool {
	return id == ""
}

func (id ID) String() string {
	return string(id)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return idTypeError(data)
	}
	if _, err := n.Int64(); err != nil {
		return idTypeError(data)
	}

	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// idTypeError is reported like any other JSON type mismatch so the decoder
// attaches the offending field name.
func idTypeError(data []byte) error {
	return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeFor[ID]()}
}

// Key identifies a row within its table, one value per key column.
type Key []string

func (k Key) String() string {
	return strings.Join(k, "/")
}

// Ident encodes k so that distinct keys never share an encoding, whatever
// the parts contain. Each part is prefixed with its length.
func (k Key) Ident() string {
	var b strings.Builder
	for _, part := range k {
		b.WriteString(strconv.Itoa(len(part)))
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

// Reference is a foreign key carried by a record. It always targets the
// "id" column of the referenced kind's table.
type Reference struct {
	Kind  Kind
	ID    ID
	Field string
}

func (r Reference) String() string {
	return fmt.Sprintf("%s.id=%s (%s)", r.Kind, r.ID, r.Field)
}
