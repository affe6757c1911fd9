package queries

import (
	"context"

	"orderqueue/internal/core/ports"
	"orderqueue/internal/pkg/errs"

	"gorm.io/gorm"
)

// GetOrderQueryHandler loads a single order snapshot.
type GetOrderQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle returns the snapshot or errs.ObjectNotFoundError. Other failures are
// wrapped in errs.PersistenceError.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (ports.OrderSnapshot, error) {
	if err := query.Validate(); err != nil {
		return ports.OrderSnapshot{}, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT`+orderColumns+`
		FROM orders
		WHERE id = ?
	`, query.OrderID()).Rows()
	if err != nil {
		return ports.OrderSnapshot{}, errs.NewPersistenceError("select order", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return ports.OrderSnapshot{}, errs.NewPersistenceError("select order", err)
		}
		return ports.OrderSnapshot{}, errs.NewObjectNotFoundError("order", query.OrderID())
	}

	snapshot, err := scanSnapshot(rows)
	if err != nil {
		return ports.OrderSnapshot{}, errs.NewPersistenceError("scan order", err)
	}

	return snapshot, nil
}
