package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"orderqueue/internal/core/domain/model/order"
)

// OrderSnapshot is a read-only copy of an order as the store held it when a
// status request was answered.
type OrderSnapshot struct {
	ID           int64
	CustomerName string
	Product      string
	Quantity     int
	Amount       decimal.Decimal
	Status       order.Status
	Retries      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewOrderSnapshot copies the observable state of o.
func NewOrderSnapshot(o *order.Order) OrderSnapshot {
	return OrderSnapshot{
		ID:           o.ID(),
		CustomerName: o.CustomerName(),
		Product:      o.Product(),
		Quantity:     o.Quantity(),
		Amount:       o.Amount().Decimal(),
		Status:       o.Status(),
		Retries:      o.Retries(),
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
	}
}

// StatusRequester asks the status responder for the current state of an
// order over the request/reply channel.
type StatusRequester interface {
	// RequestStatus returns the snapshot, errs.ObjectNotFoundError when the
	// responder does not know the order, or errs.TimeoutError when no reply
	// arrived before ctx expired.
	RequestStatus(ctx context.Context, orderID int64) (OrderSnapshot, error)
}
