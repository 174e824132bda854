// Package validate applies ordered field rules to typed records.
//
// Rules run in a fixed order and the first failure wins: required fields,
// wire format normalization, numeric bounds, then cross-field consistency.
package validate

import (
	"errors"
	"fmt"
)

// Rule names reported in FieldError.
const (
	RuleRequired    = "required"
	RuleFormat      = "format"
	RuleBounds      = "bounds"
	RuleEnum        = "enum"
	RuleConsistency = "consistency"
)

// FieldError describes the first rule a record failed.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Rule)
}

func AsFieldError(err error) (*FieldError, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Check inspects, and for normalization rules updates, a record.
type Check[T any] func(r *T) error

// Rules is the rule set for one record type.
type Rules[T any] struct {
	Required    []Check[T]
	Normalize   []Check[T]
	Bounds      []Check[T]
	Consistency []Check[T]
}

// Validate runs every rule in order and returns the first failure.
func (r Rules[T]) Validate(rec *T) error {
	for _, phase := range [][]Check[T]{r.Required, r.Normalize, r.Bounds, r.Consistency} {
		for _, check := range phase {
			if err := check(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
