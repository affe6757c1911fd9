package services

import (
	"context"
	"errors"
	"time"

	"orderqueue/internal/core/domain/model/order"
	"orderqueue/internal/pkg/errs"
)

// ErrSimulatedFailure is the cause carried by faults injected by SimulatedProcessor.
var ErrSimulatedFailure = errors.New("simulated processing error")

// OrderProcessor runs the domain work for one order. It may fail transiently;
// failures are retried by the caller. Implementations must tolerate being run
// again for the same order, because a crashed attempt is redelivered.
type OrderProcessor interface {
	Process(ctx context.Context, o *order.Order) error
}

// SimulatedProcessor stands in for real fulfilment work: it takes Duration and
// fails every order whose id is a multiple of FailEvery (0 disables faults).
type SimulatedProcessor struct {
	Duration  time.Duration
	FailEvery int64
}

// NewSimulatedProcessor creates a processor with the given duration and fault rate.
func NewSimulatedProcessor(duration time.Duration, failEvery int64) *SimulatedProcessor {
	return &SimulatedProcessor{Duration: duration, FailEvery: failEvery}
}

// Process waits for Duration or until ctx is done. A cancelled context is
// returned as-is so the caller can tell shutdown from failure.
func (p *SimulatedProcessor) Process(ctx context.Context, o *order.Order) error {
	if p.Duration > 0 {
		timer := time.NewTimer(p.Duration)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if p.FailEvery > 0 && o.ID()%p.FailEvery == 0 {
		return errs.NewProcessingError(o.ID(), ErrSimulatedFailure)
	}
	return nil
}
