package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderqueue/internal/core/domain/model/order"
	"orderqueue/internal/core/domain/services"
	"orderqueue/internal/pkg/errs"
)

// ErrProcessingInterrupted is returned when the attempt was cut short by
// shutdown. Nothing was recorded for the attempt; the task must be left
// unacknowledged so that the broker redelivers it.
var ErrProcessingInterrupted = errors.New("order processing interrupted")

// Outcome tells the worker how to settle the work task.
type Outcome int

const (
	// OutcomeSkipped means nothing was done: the order is unknown or already terminal.
	OutcomeSkipped Outcome = iota + 1
	// OutcomeCompleted means the order was committed as Completed.
	OutcomeCompleted
	// OutcomeRetry means the failure was counted and the task must be delivered again.
	OutcomeRetry
	// OutcomeFailed means the retry budget is spent and the order was committed as Failed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeCompleted:
		return "completed"
	case OutcomeRetry:
		return "retry"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SkipReason explains an OutcomeSkipped.
type SkipReason string

const (
	SkipOrderNotFound   SkipReason = "order_not_found"
	SkipAlreadyTerminal SkipReason = "already_terminal"
	SkipNotInProcessing SkipReason = "not_in_processing"
	// SkipAlreadyProcessing is a fresh task for an order another attempt holds.
	SkipAlreadyProcessing SkipReason = "already_processing"
)

// ProcessOrderResult is what a processing attempt committed.
type ProcessOrderResult struct {
	Outcome    Outcome
	SkipReason SkipReason
	OrderID    int64
	Status     order.Status
	Retries    int
	// Cause is the processing error behind OutcomeRetry and OutcomeFailed.
	Cause error
}

// ProcessOrderCommandHandler runs one processing attempt for an order.
//
// The attempt uses two short transactions so that no row lock is held while
// the processor runs:
//
//	tx1: lock row, Pending/Processing -> Processing, commit
//	     processor.Process (no transaction)
//	tx2: lock row, Complete or RegisterFailure, commit
//
// Only a resuming command may enter an order that is already Processing, so a
// duplicate task never runs the processor alongside the attempt that owns it.
//
// Every returned result has already been committed, so the caller may
// acknowledge the task right away. Returned errors mean nothing was committed
// by the failing step and the task should be delivered again.
type ProcessOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	processor  services.OrderProcessor
	maxRetries int
}

func NewProcessOrderCommandHandler(
	uowFactory OrderUoWFactory,
	processor services.OrderProcessor,
	maxRetries int,
) ProcessOrderCommandHandler {
	return ProcessOrderCommandHandler{
		uowFactory: uowFactory,
		processor:  processor,
		maxRetries: maxRetries,
	}
}

func (h *ProcessOrderCommandHandler) Handle(ctx context.Context, cmd ProcessOrderCommand) (ProcessOrderResult, error) {
	if err := cmd.Validate(); err != nil {
		return ProcessOrderResult{}, err
	}

	o, skipped, err := h.start(ctx, cmd.OrderID(), cmd.Resume())
	if err != nil || skipped != nil {
		return deref(skipped), err
	}

	procErr := h.processor.Process(ctx, o)
	if procErr != nil && ctx.Err() != nil {
		return ProcessOrderResult{}, fmt.Errorf("%w: order %d: %w", ErrProcessingInterrupted, o.ID(), procErr)
	}

	return h.finish(ctx, cmd.OrderID(), procErr)
}

// start moves the order into Processing. A non-nil result means the attempt
// is over before it began.
func (h *ProcessOrderCommandHandler) start(
	ctx context.Context, orderID int64, resume bool,
) (*order.Order, *ProcessOrderResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, errs.NewPersistenceError("begin transaction", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.GetForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil, &ProcessOrderResult{Outcome: OutcomeSkipped, SkipReason: SkipOrderNotFound, OrderID: orderID}, nil
		}
		return nil, nil, errs.NewPersistenceError("lock order", err)
	}

	if o.Status().IsTerminal() {
		return nil, skippedResult(o, SkipAlreadyTerminal), nil
	}

	if o.Status() == order.Processing && !resume {
		return nil, skippedResult(o, SkipAlreadyProcessing), nil
	}

	if err = o.StartProcessing(time.Now()); err != nil {
		return nil, nil, err
	}

	if err = repo.Update(ctx, o); err != nil {
		return nil, nil, errs.NewPersistenceError("update order", err)
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, nil, errs.NewPersistenceError("commit processing", err)
	}

	return o, nil, nil
}

// finish records the result of the processor run.
func (h *ProcessOrderCommandHandler) finish(
	ctx context.Context, orderID int64, procErr error,
) (ProcessOrderResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ProcessOrderResult{}, errs.NewPersistenceError("begin transaction", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.GetForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ProcessOrderResult{Outcome: OutcomeSkipped, SkipReason: SkipOrderNotFound, OrderID: orderID}, nil
		}
		return ProcessOrderResult{}, errs.NewPersistenceError("lock order", err)
	}

	// another delivery of the same task finished the order meanwhile
	if o.Status() != order.Processing {
		return *skippedResult(o, SkipNotInProcessing), nil
	}

	result := ProcessOrderResult{OrderID: orderID, Cause: procErr}
	now := time.Now()
	if procErr == nil {
		if err = o.Complete(now); err != nil {
			return ProcessOrderResult{}, err
		}
		result.Outcome = OutcomeCompleted
	} else {
		failure, failErr := o.RegisterFailure(h.maxRetries, now)
		if failErr != nil {
			return ProcessOrderResult{}, failErr
		}
		result.Outcome = OutcomeRetry
		if failure == order.GaveUp {
			result.Outcome = OutcomeFailed
		}
	}

	if err = repo.Update(ctx, o); err != nil {
		return ProcessOrderResult{}, errs.NewPersistenceError("update order", err)
	}

	if err = uow.Commit(ctx); err != nil {
		return ProcessOrderResult{}, errs.NewPersistenceError("commit result", err)
	}

	result.Status = o.Status()
	result.Retries = o.Retries()
	return result, nil
}

func skippedResult(o *order.Order, reason SkipReason) *ProcessOrderResult {
	return &ProcessOrderResult{
		Outcome:    OutcomeSkipped,
		SkipReason: reason,
		OrderID:    o.ID(),
		Status:     o.Status(),
		Retries:    o.Retries(),
	}
}

func deref(r *ProcessOrderResult) ProcessOrderResult {
	if r == nil {
		return ProcessOrderResult{}
	}
	return *r
}
