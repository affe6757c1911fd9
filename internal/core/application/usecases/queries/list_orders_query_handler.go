package queries

import (
	"context"

	"orderqueue/internal/core/ports"
	"orderqueue/internal/pkg/errs"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

// ListOrdersQueryHandler reads orders directly from the store, bypassing the broker.
//
// Example:
//
//	handler := NewListOrdersQueryHandler(db)
//	query, _ := NewListOrdersQuery("", 0, 0)
//
//	orders, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d orders\n", len(orders))
type ListOrdersQueryHandler struct {
	db *gorm.DB
}

func NewListOrdersQueryHandler(db *gorm.DB) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{db: db}
}

// Handle returns the matching orders sorted by id; an empty store yields an empty slice.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]ports.OrderSnapshot, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	builder := sq.Select(orderColumns).From("orders").OrderBy("id")
	if status, ok := query.Status(); ok {
		builder = builder.Where(sq.Eq{"status": status.String()})
	}
	if query.Limit() > 0 {
		builder = builder.Limit(query.Limit())
	}
	if query.Offset() > 0 {
		builder = builder.Offset(query.Offset())
	}

	sqlQuery, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(sqlQuery, args...).Rows()
	if err != nil {
		return nil, errs.NewPersistenceError("list orders", err)
	}
	defer rows.Close()

	orders := make([]ports.OrderSnapshot, 0)
	for rows.Next() {
		snapshot, scanErr := scanSnapshot(rows)
		if scanErr != nil {
			return nil, errs.NewPersistenceError("scan order", scanErr)
		}
		orders = append(orders, snapshot)
	}

	if err = rows.Err(); err != nil {
		return nil, errs.NewPersistenceError("list orders", err)
	}

	return orders, nil
}
