package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderqueue/internal/core/domain/model/order"
	"orderqueue/internal/core/ports"
	"orderqueue/internal/pkg/errs"
)

// ErrTaskNotPublished is returned together with the created order when the
// order was committed but its work task could not be handed to the broker.
// The order stays Pending and is picked up again by the republish job.
var ErrTaskNotPublished = errors.New("order saved but processing task was not published")

// CreateOrderCommandHandler accepts new orders at the gateway.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, publisher)
//	cmd, _ := NewCreateOrderCommand("Ada", "Widget", 2, "19.99")
//
//	created, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, ErrTaskNotPublished):
//	    // created is persisted, processing is delayed
//	case err != nil:
//	    return err
//	}
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  ports.TaskPublisher
}

// NewCreateOrderCommandHandler creates a handler for order creation operations.
func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory, publisher ports.TaskPublisher) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
	}
}

// Handle persists a Pending order and then publishes exactly one work task for it.
// The task is published only after the insert is committed, so a worker can
// never see a task whose order does not exist yet.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	o, err := order.NewOrder(cmd.CustomerName(), cmd.Product(), cmd.Quantity(), cmd.Amount(), time.Now())
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, errs.NewPersistenceError("begin transaction", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return nil, errs.NewPersistenceError("insert order", err)
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, errs.NewPersistenceError("commit order", err)
	}

	if err = h.publisher.PublishProcessOrder(ctx, o.ID()); err != nil {
		return o, fmt.Errorf("%w: order %d: %w", ErrTaskNotPublished, o.ID(), err)
	}

	return o, nil
}
