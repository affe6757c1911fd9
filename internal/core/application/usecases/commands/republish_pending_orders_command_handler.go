package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderqueue/internal/core/ports"
	"orderqueue/internal/pkg/errs"
)

// RepublishPendingOrdersCommandHandler queues a new work task for every order
// that stayed Pending too long, which happens when the gateway committed an
// order but could not publish its task.
//
// The stale rows are locked (skipping rows another transaction holds) and
// stamped with Requeue before the commit, so an order is re-queued at most
// once per olderThan window. A republished task may still duplicate one
// waiting in the queue; the first delivery moves the order to Processing
// and the worker skips the other.
type RepublishPendingOrdersCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  ports.TaskPublisher
}

func NewRepublishPendingOrdersCommandHandler(
	uowFactory OrderUoWFactory,
	publisher ports.TaskPublisher,
) RepublishPendingOrdersCommandHandler {
	return RepublishPendingOrdersCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
	}
}

// Handle returns how many tasks were published. Publish failures do not stop
// the batch; they are joined into the returned error.
func (h *RepublishPendingOrdersCommandHandler) Handle(ctx context.Context, cmd RepublishPendingOrdersCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, errs.NewPersistenceError("begin transaction", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := time.Now()
	repo := uow.OrderRepository()
	stale, err := repo.GetAllPendingOlderThanForUpdate(ctx, now.Add(-cmd.OlderThan()), cmd.BatchSize())
	if err != nil {
		return 0, errs.NewPersistenceError("list pending orders", err)
	}

	for _, o := range stale {
		if err = o.Requeue(now); err != nil {
			return 0, err
		}
		if err = repo.Update(ctx, o); err != nil {
			return 0, errs.NewPersistenceError("stamp requeued order", err)
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, errs.NewPersistenceError("commit requeued orders", err)
	}

	var (
		published int
		failures  []error
	)
	for _, o := range stale {
		if ctx.Err() != nil {
			failures = append(failures, ctx.Err())
			break
		}
		if err = h.publisher.PublishProcessOrder(ctx, o.ID()); err != nil {
			failures = append(failures, fmt.Errorf("%w: order %d: %w", ErrTaskNotPublished, o.ID(), err))
			continue
		}
		published++
	}

	return published, errors.Join(failures...)
}
