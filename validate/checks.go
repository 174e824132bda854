package validate

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Present fails when a pointer field is nil.
func Present[V any](field string, v *V) error {
	if v == nil {
		return &FieldError{Field: field, Rule: RuleRequired, Message: "is required"}
	}
	return nil
}

// NonEmpty fails when a string-like field is blank.
func NonEmpty[S ~string](field string, v S) error {
	if strings.TrimSpace(string(v)) == "" {
		return &FieldError{Field: field, Rule: RuleRequired, Message: "is required"}
	}
	return nil
}

// NonEmptyString fails when a pointer string is nil or blank.
func NonEmptyString(field string, v *string) error {
	if v == nil {
		return &FieldError{Field: field, Rule: RuleRequired, Message: "is required"}
	}
	return NonEmpty(field, *v)
}

// Between fails when a present value lies outside [lo, hi].
func Between[N number](field string, v *N, lo, hi N) error {
	if v == nil {
		return nil
	}
	if *v < lo || *v > hi {
		return &FieldError{
			Field:   field,
			Rule:    RuleBounds,
			Message: fmt.Sprintf("%v is outside [%v, %v]", *v, lo, hi),
		}
	}
	return nil
}

// AtLeast fails when a present value is below min.
func AtLeast[N number](field string, v *N, min N) error {
	if v == nil {
		return nil
	}
	if *v < min {
		return &FieldError{
			Field:   field,
			Rule:    RuleBounds,
			Message: fmt.Sprintf("%v is below %v", *v, min),
		}
	}
	return nil
}

func NonNegative[N number](field string, v *N) error {
	return AtLeast(field, v, 0)
}

func Probability(field string, v *float64) error {
	return Between(field, v, 0, 1)
}

func Percentage(field string, v *float64) error {
	return Between(field, v, 0, 100)
}

// OneOf fails when a present value is not one of allowed.
func OneOf(field string, v *string, allowed ...string) error {
	if v == nil {
		return nil
	}
	if !slices.Contains(allowed, *v) {
		return &FieldError{
			Field:   field,
			Rule:    RuleEnum,
			Message: fmt.Sprintf("%q is not one of %s", *v, strings.Join(allowed, ", ")),
		}
	}
	return nil
}

// Distinct fails when two string-like fields hold the same value.
func Distinct[S ~string](field string, a S, other string, b S) error {
	if a == b {
		return &FieldError{
			Field:   field,
			Rule:    RuleConsistency,
			Message: fmt.Sprintf("must differ from %s", other),
		}
	}
	return nil
}

// NotGreater fails when both values are present and a exceeds b.
func NotGreater[N number](field string, a *N, other string, b *N) error {
	if a == nil || b == nil {
		return nil
	}
	if *a > *b {
		return &FieldError{
			Field:   field,
			Rule:    RuleConsistency,
			Message: fmt.Sprintf("%v exceeds %s (%v)", *a, other, *b),
		}
	}
	return nil
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05Z",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp normalizes a wire timestamp to UTC. Layouts without a zone
// are read as UTC.
func ParseTimestamp(field string, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &FieldError{
		Field:   field,
		Rule:    RuleFormat,
		Message: fmt.Sprintf("%q is not a valid timestamp", raw),
	}
}

// Timestamp parses a required wire timestamp into dst.
func Timestamp(field string, raw *string, dst *time.Time) error {
	if raw == nil {
		return &FieldError{Field: field, Rule: RuleRequired, Message: "is required"}
	}
	t, err := ParseTimestamp(field, *raw)
	if err != nil {
		return err
	}
	*dst = t
	return nil
}

// OptionalTimestamp parses an optional wire timestamp into dst.
func OptionalTimestamp(field string, raw *string, dst **time.Time) error {
	if raw == nil {
		*dst = nil
		return nil
	}
	t, err := ParseTimestamp(field, *raw)
	if err != nil {
		return err
	}
	*dst = &t
	return nil
}
