package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jcmexdev/lvs-storefront/internal/coordinator/sagalog"
)

const tracerName = "github.com/jcmexdev/lvs-storefront/internal/coordinator"

// Step represents a single unit of work in the Saga.
// Each step must have a compensating action to undo its effects.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Orchestrator runs Steps in order and compensates the successful ones, in
// reverse, when a later step fails. Every transition is appended to the saga
// log when a repository is configured.
type Orchestrator struct {
	sagaID  string
	payload string
	steps   []Step
	log     sagalog.Repository
	logger  *slog.Logger
}

// NewOrchestrator builds a saga run. repo may be nil, in which case
// transitions are only logged, not persisted.
func NewOrchestrator(sagaID, payload string, steps []Step, repo sagalog.Repository, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		sagaID:  sagaID,
		payload: payload,
		steps:   steps,
		log:     repo,
		logger:  logger.With("saga_id", sagaID),
	}
}

// Start runs the saga steps sequentially.
// If a step fails, it triggers the compensation of all previously successful steps.
func (o *Orchestrator) Start(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "saga.Start")
	span.SetAttributes(attribute.String("saga.id", o.sagaID))
	defer span.End()

	o.record(ctx, sagalog.StatusStarted, "", o.payload, nil)

	var done []Step
	for _, step := range o.steps {
		o.logger.InfoContext(ctx, "executing step", "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			stepErr := fmt.Errorf("step %s: %w", step.Name(), err)
			o.logger.WarnContext(ctx, "step failed, compensating", "step", step.Name(), "error", err)
			span.RecordError(stepErr)
			span.SetStatus(codes.Error, "saga failed")

			o.record(ctx, sagalog.StatusCompensating, step.Name(), "", []string{stepErr.Error()})
			compErrs := o.rollback(ctx, done)

			msgs := []string{stepErr.Error()}
			for _, ce := range compErrs {
				msgs = append(msgs, ce.Error())
			}
			o.record(ctx, sagalog.StatusFailed, step.Name(), "", msgs)
			return errors.Join(append([]error{stepErr}, compErrs...)...)
		}
		done = append(done, step)
		o.record(ctx, sagalog.StatusStepDone, step.Name(), "", nil)
	}

	o.record(ctx, sagalog.StatusCompleted, "", "", nil)
	o.logger.InfoContext(ctx, "saga completed")
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step) []error {
	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		o.logger.InfoContext(ctx, "compensating step", "step", step.Name())
		if err := step.Compensate(ctx); err != nil {
			o.logger.ErrorContext(ctx, "CRITICAL: failed to compensate step", "step", step.Name(), "error", err)
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.Name(), err))
		}
	}
	return errs
}

func (o *Orchestrator) record(ctx context.Context, status sagalog.Status, step, payload string, errs []string) {
	if o.log == nil {
		return
	}
	entry := sagalog.NewEntry(ctx, o.sagaID, status, step)
	entry.Payload = payload
	entry.Errors = errs
	if err := o.log.Save(ctx, entry); err != nil {
		o.logger.WarnContext(ctx, "failed to append saga log", "status", status, "error", err)
	}
}
