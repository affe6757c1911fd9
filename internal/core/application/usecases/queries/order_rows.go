package queries

import (
	"database/sql"
	"time"

	"orderqueue/internal/core/domain/model/order"
	"orderqueue/internal/core/ports"

	"github.com/shopspring/decimal"
)

const orderColumns = `
	id,
	customer_name,
	product,
	quantity,
	amount,
	status,
	retries,
	created_at,
	updated_at`

func scanSnapshot(rows *sql.Rows) (ports.OrderSnapshot, error) {
	var (
		s         ports.OrderSnapshot
		amount    decimal.Decimal
		status    string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := rows.Scan(
		&s.ID,
		&s.CustomerName,
		&s.Product,
		&s.Quantity,
		&amount,
		&status,
		&s.Retries,
		&createdAt,
		&updatedAt,
	); err != nil {
		return ports.OrderSnapshot{}, err
	}

	parsed, err := order.ParseStatus(status)
	if err != nil {
		return ports.OrderSnapshot{}, err
	}

	s.Amount = amount
	s.Status = parsed
	s.CreatedAt = createdAt.UTC()
	s.UpdatedAt = updatedAt.UTC()
	return s, nil
}
