package commands

import (
	"errors"
	"fmt"

	"orderqueue/internal/pkg/errs"
	"orderqueue/internal/pkg/guard"
)

var ErrProcessOrderCommandIsNotConstructed = errors.New(
	"ProcessOrderCommand must be created via NewProcessOrderCommand constructor",
)

// ProcessOrderCommand asks a worker to run one processing attempt for an order.
//
// resume marks a task that may pick up an order already in Processing: a
// broker redelivery after a crash or requeue, or a scheduled retry. A fresh
// task never does, since another worker may still be running the order.
type ProcessOrderCommand struct { //nolint:recvcheck //using for validation
	orderID int64
	resume  bool

	guard guard.ConstructorGuard
}

func NewProcessOrderCommand(orderID int64, resume bool) (ProcessOrderCommand, error) {
	if orderID <= 0 {
		return ProcessOrderCommand{}, errs.NewValueIsInvalidErrorWithCause(
			"order_id", fmt.Errorf("%d is not greater than 0", orderID))
	}

	return ProcessOrderCommand{
		orderID: orderID,
		resume:  resume,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c ProcessOrderCommand) Validate() error {
	return c.guard.Validate(ErrProcessOrderCommandIsNotConstructed)
}

func (c ProcessOrderCommand) OrderID() int64 {
	return c.orderID
}

func (c ProcessOrderCommand) Resume() bool {
	return c.resume
}
