// Package orderrepo maps order aggregates to the orders table.
package orderrepo

import (
	"time"

	"orderqueue/internal/core/domain/model/kernel"
	"orderqueue/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

// OrderDTO is the row layout of the orders table. Timestamps are owned by
// the aggregate, so GORM must not touch them.
type OrderDTO struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	CustomerName string          `gorm:"type:varchar(100);not null"`
	Product      string          `gorm:"type:varchar(100);not null"`
	Quantity     int             `gorm:"not null"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status       string          `gorm:"type:varchar(20);not null;index"`
	Retries      int             `gorm:"not null;default:0"`
	CreatedAt    time.Time       `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	UpdatedAt    time.Time       `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	return OrderDTO{
		ID:           o.ID(),
		CustomerName: o.CustomerName(),
		Product:      o.Product(),
		Quantity:     o.Quantity(),
		Amount:       o.Amount().Decimal(),
		Status:       o.Status().String(),
		Retries:      o.Retries(),
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	amount, err := kernel.NewAmount(dto.Amount)
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(
		dto.ID,
		dto.CustomerName,
		dto.Product,
		dto.Quantity,
		amount,
		status,
		dto.Retries,
		dto.CreatedAt,
		dto.UpdatedAt,
	)
}
