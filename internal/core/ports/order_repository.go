// Package ports defines the contracts between the order pipeline core and its
// infrastructure: the order store, the work queue and the status RPC.
package ports

import (
	"context"
	"time"

	"orderqueue/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add inserts a new order. The store issues the identifier, which is
	// assigned back to the aggregate before Add returns.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists status, retries and updatedAt of an existing order.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by id without locking.
	// Returns errs.ObjectNotFoundError when no such order exists.
	Get(ctx context.Context, id int64) (*order.Order, error)

	// GetForUpdate retrieves an order by id and locks its row until the
	// surrounding transaction ends. Concurrent workers holding the same
	// order id are serialised by this lock.
	GetForUpdate(ctx context.Context, id int64) (*order.Order, error)

	// GetAllPendingOlderThanForUpdate returns up to limit orders still pending
	// whose last update is before cutoff, oldest first, and locks their rows
	// until the surrounding transaction ends. Rows already locked by another
	// transaction are skipped rather than waited for.
	GetAllPendingOlderThanForUpdate(ctx context.Context, cutoff time.Time, limit int) ([]*order.Order, error)
}
