package pipeline

import (
	"time"

	"github.com/hugolhafner/go-ingest/entity"
	"github.com/hugolhafner/go-ingest/errorhandler"
	"github.com/hugolhafner/go-ingest/kafka"
)

// Rejection is a record excluded from the write set of its batch.
type Rejection struct {
	Record  kafka.ConsumerRecord
	Phase   errorhandler.ErrorPhase
	Field   string
	Missing []entity.Reference
	Err     error
	// Quarantined is set when the error handler asked for the record to be
	// kept for inspection.
	Quarantined bool
}

// Reason is the category the rejection is counted under, phase and field.
func (r Rejection) Reason() string {
	if r.Field == "" {
		return r.Phase.String()
	}
	return r.Phase.String() + ":" + r.Field
}

// BatchResult is the structured outcome of one batch cycle.
type BatchResult struct {
	BatchID  string
	Topic    string
	Table    string
	State    State
	Size     int
	Accepted int
	Rejected []Rejection
	Attempt  int
	Duration time.Duration
	// Err is the write, quarantine or commit failure, if any.
	Err error
	// CommitErr is set when records were durably handled but the offset
	// commit failed. The marks are kept and committed with the next batch.
	CommitErr error
	// Deferred is set when the coordinator skipped the pipeline because a
	// dependency ended the cycle with an unwritten batch.
	Deferred bool
}

// RejectionCounts groups rejections by reason.
func (r BatchResult) RejectionCounts() map[string]int {
	out := make(map[string]int, len(r.Rejected))
	for _, rej := range r.Rejected {
		out[rej.Reason()]++
	}
	return out
}

// Durable reports whether the batch reached a terminal, committed state.
func (r BatchResult) Durable() bool {
	return r.State == StateCommitted
}
