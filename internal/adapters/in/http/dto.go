package http

import (
	"encoding/json"
	"time"

	"orderqueue/internal/core/ports"

	"github.com/shopspring/decimal"
)

// NewOrder is the body of POST /api/v1/orders. Amount is kept as the literal
// number so that no precision is lost before it becomes a decimal.
type NewOrder struct {
	CustomerName string      `json:"customer_name"`
	Product      string      `json:"product"`
	Quantity     int         `json:"quantity"`
	Amount       json.Number `json:"amount"`
}

// ListOrdersParams are the query parameters of GET /api/v1/orders.
type ListOrdersParams struct {
	Status *string
	Limit  *int
	Offset *int
}

type Order struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"customer_name"`
	Product      string          `json:"product"`
	Quantity     int             `json:"quantity"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	Retries      int             `json:"retries"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func toOrder(s ports.OrderSnapshot) Order {
	return Order{
		ID:           s.ID,
		CustomerName: s.CustomerName,
		Product:      s.Product,
		Quantity:     s.Quantity,
		Amount:       s.Amount,
		Status:       s.Status.String(),
		Retries:      s.Retries,
		CreatedAt:    s.CreatedAt.UTC(),
		UpdatedAt:    s.UpdatedAt.UTC(),
	}
}
