package otel

import (
	"go.opentelemetry.io/otel/attribute"
)

const (
	AttrTopic       = attribute.Key("ingest.topic")
	AttrTable       = attribute.Key("ingest.table")
	AttrOutcome     = attribute.Key("ingest.batch.outcome")
	AttrBatchID     = attribute.Key("ingest.batch.id")
	AttrBatchSize   = attribute.Key("ingest.batch.size")
	AttrFetchStatus = attribute.Key("ingest.fetch.status")
	AttrWriteStatus = attribute.Key("ingest.write.status")
	AttrErrorAction = attribute.Key("ingest.error.action")
	AttrErrorPhase  = attribute.Key("ingest.error.phase")
	AttrQuarantine  = attribute.Key("ingest.quarantine.mode")
)

// Status values
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusError   = "error"
)
