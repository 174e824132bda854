package errorhandler

import (
	"github.com/hugolhafner/go-ingest/kafka"
)

// ErrorContext provides context about an error that occurred during ingestion.
// It contains all the information a handler needs to make a decision about
// how to handle the error.
type ErrorContext struct {
	// Record is the Kafka record that caused the error.
	// Zero for batch level failures (write, commit).
	Record kafka.ConsumerRecord

	// Error is the error that occurred.
	Error error

	// Attempt is current attempt number, 1 indexed.
	Attempt int

	// Table is the destination table of the pipeline the error occurred in.
	Table string

	// Field is the offending field for decode and validate failures, if known.
	Field string

	// Phase indicates where in the pipeline the error occurred
	Phase ErrorPhase
}

func NewErrorContext(record kafka.ConsumerRecord, err error) ErrorContext {
	return ErrorContext{
		Record:  record.Copy(),
		Error:   err,
		Attempt: 1,
	}
}

// NewBatchErrorContext creates a context for a failure that concerns a whole batch.
func NewBatchErrorContext(table string, err error) ErrorContext {
	return ErrorContext{
		Error:   err,
		Attempt: 1,
		Table:   table,
	}
}

func (ec ErrorContext) WithError(err error) ErrorContext {
	ec.Error = err
	return ec
}

func (ec ErrorContext) WithAttempt(attempt int) ErrorContext {
	ec.Attempt = attempt
	return ec
}

func (ec ErrorContext) WithTable(table string) ErrorContext {
	ec.Table = table
	return ec
}

func (ec ErrorContext) WithField(field string) ErrorContext {
	ec.Field = field
	return ec
}

func (ec ErrorContext) WithPhase(phase ErrorPhase) ErrorContext {
	ec.Phase = phase
	return ec
}

func (ec ErrorContext) IncrementAttempt() ErrorContext {
	ec.Attempt++
	return ec
}

// Reason is the error message, or empty when there is no error.
func (ec ErrorContext) Reason() string {
	if ec.Error == nil {
		return ""
	}
	return ec.Error.Error()
}

func (ec ErrorContext) fields() []any {
	return []any{
		"error", ec.Error,
		"phase", ec.Phase.String(),
		"table", ec.Table,
		"field", ec.Field,
		"topic", ec.Record.Topic,
		"partition", ec.Record.Partition,
		"offset", ec.Record.Offset,
		"attempt", ec.Attempt,
	}
}
