package queries

import (
	"context"
	"errors"
	"time"

	"orderqueue/internal/core/ports"
	"orderqueue/internal/pkg/errs"
)

// DefaultStatusTimeout bounds a status request when no timeout is configured.
const DefaultStatusTimeout = 5 * time.Second

// QueryOrderStatusQueryHandler resolves status requests through the
// request/reply channel. Every call is bounded by timeout; callers never wait
// for a reply that is not coming.
//
// Example:
//
//	handler := NewQueryOrderStatusQueryHandler(statusClient, 3*time.Second)
//	query, _ := NewQueryOrderStatusQuery(42)
//
//	snapshot, err := handler.Handle(ctx, query)
//	switch {
//	case errors.Is(err, errs.ErrObjectNotFound):
//	    // 404
//	case errors.Is(err, errs.ErrTimeout):
//	    // 504
//	}
type QueryOrderStatusQueryHandler struct {
	requester ports.StatusRequester
	timeout   time.Duration
}

// NewQueryOrderStatusQueryHandler creates the handler. A non-positive timeout
// falls back to DefaultStatusTimeout.
func NewQueryOrderStatusQueryHandler(requester ports.StatusRequester, timeout time.Duration) QueryOrderStatusQueryHandler {
	if timeout <= 0 {
		timeout = DefaultStatusTimeout
	}
	return QueryOrderStatusQueryHandler{requester: requester, timeout: timeout}
}

func (h QueryOrderStatusQueryHandler) Handle(ctx context.Context, query QueryOrderStatusQuery) (ports.OrderSnapshot, error) {
	if err := query.Validate(); err != nil {
		return ports.OrderSnapshot{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	snapshot, err := h.requester.RequestStatus(ctx, query.OrderID())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, errs.ErrTimeout) {
			return ports.OrderSnapshot{}, errs.NewTimeoutError("order status request", h.timeout)
		}
		return ports.OrderSnapshot{}, err
	}

	return snapshot, nil
}
