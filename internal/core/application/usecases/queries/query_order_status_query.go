package queries

import (
	"errors"
	"fmt"

	"orderqueue/internal/pkg/errs"
	"orderqueue/internal/pkg/guard"
)

var ErrQueryOrderStatusQueryIsNotConstructed = errors.New(
	"QueryOrderStatusQuery must be created via NewQueryOrderStatusQuery constructor",
)

// QueryOrderStatusQuery asks the status responder for an order over the broker.
type QueryOrderStatusQuery struct {
	orderID int64

	guard guard.ConstructorGuard
}

func NewQueryOrderStatusQuery(orderID int64) (QueryOrderStatusQuery, error) {
	if orderID <= 0 {
		return QueryOrderStatusQuery{}, errs.NewValueIsInvalidErrorWithCause(
			"order_id", fmt.Errorf("%d is not greater than 0", orderID))
	}

	return QueryOrderStatusQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q QueryOrderStatusQuery) Validate() error {
	return q.guard.Validate(ErrQueryOrderStatusQueryIsNotConstructed)
}

func (q QueryOrderStatusQuery) OrderID() int64 {
	return q.orderID
}
