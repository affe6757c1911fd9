package queries

import (
	"errors"
	"fmt"

	"orderqueue/internal/core/domain/model/order"
	"orderqueue/internal/pkg/errs"
	"orderqueue/internal/pkg/guard"
)

var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via NewListOrdersQuery constructor",
)

// ListOrdersQuery lists orders ordered by id, optionally only those in one
// status and one page at a time.
//
// Example:
//
//	query, err := NewListOrdersQuery("failed", 50, 0)
//	if err != nil {
//	    return err // unknown status or bad page
//	}
//	orders, err := handler.Handle(ctx, query)
type ListOrdersQuery struct {
	status *order.Status
	limit  uint64
	offset uint64

	guard guard.ConstructorGuard
}

// NewListOrdersQuery creates the query. An empty status lists every order and
// a zero limit returns all rows.
func NewListOrdersQuery(status string, limit, offset int) (ListOrdersQuery, error) {
	q := ListOrdersQuery{guard: guard.NewConstructorGuard()}

	var statusErr, limitErr, offsetErr error
	if status != "" {
		parsed, err := order.ParseStatus(status)
		if err != nil {
			statusErr = err
		} else {
			q.status = &parsed
		}
	}
	if limit < 0 {
		limitErr = errs.NewValueIsInvalidErrorWithCause("limit", fmt.Errorf("%d is less than 0", limit))
	}
	if offset < 0 {
		offsetErr = errs.NewValueIsInvalidErrorWithCause("offset", fmt.Errorf("%d is less than 0", offset))
	}
	if err := errors.Join(statusErr, limitErr, offsetErr); err != nil {
		return ListOrdersQuery{}, err
	}

	q.limit = uint64(limit)
	q.offset = uint64(offset)
	return q, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

// Status returns the filter and whether one was set.
func (q ListOrdersQuery) Status() (order.Status, bool) {
	if q.status == nil {
		return "", false
	}
	return *q.status, true
}

func (q ListOrdersQuery) Limit() uint64 {
	return q.limit
}

func (q ListOrdersQuery) Offset() uint64 {
	return q.offset
}
