// Package sagalog records every transition of a checkout saga.
//
// The log is append-only. It answers "where did checkout ORD-123456 stop?"
// and links each row to its distributed trace through TraceID.
package sagalog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Status is the lifecycle state of a checkout run.
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// Entry is one row of a checkout's audit trail.
type Entry struct {
	// SagaID identifies one checkout attempt. Retries that share an
	// idempotency key share it too.
	SagaID string
	Status Status
	// Step just ran or failed. Empty for STARTED and COMPLETED.
	Step string
	// Payload is the checkout form, set on the STARTED row only.
	Payload string
	// Errors lists step and compensation failures in the order they happened.
	Errors []string

	TraceID string
	SpanID  string
	At      time.Time
}

// NewEntry stamps a row with the current time and the span active in ctx.
func NewEntry(ctx context.Context, sagaID string, status Status, step string) *Entry {
	e := &Entry{SagaID: sagaID, Status: status, Step: step, At: time.Now().UTC()}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		e.TraceID = sc.TraceID().String()
		e.SpanID = sc.SpanID().String()
	}
	return e
}

// Repository appends entries. The orchestrator depends on it, not on SQLite.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
}
