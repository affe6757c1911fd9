package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"orderqueue/internal/core/domain/model/order"
	"orderqueue/internal/core/ports"
	"orderqueue/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

const (
	ContentTypeJSON = "application/json"

	// ActionProcessOrder is the only action a work task carries.
	ActionProcessOrder = "process_order"

	// StatusNotFound is the status of a response for an unknown order.
	StatusNotFound = "not_found"

	// HeaderRetry marks a work task parked by ScheduleRetry.
	HeaderRetry = "x-order-retry"
)

// WorkTask is the body of a message on the order queue.
type WorkTask struct {
	OrderID int64  `json:"order_id"`
	Action  string `json:"action"`
}

// DecodeWorkTask parses and checks a work task body.
func DecodeWorkTask(body []byte) (WorkTask, error) {
	var task WorkTask
	if err := json.Unmarshal(body, &task); err != nil {
		return WorkTask{}, errs.NewValueIsInvalidErrorWithCause("work task", err)
	}
	if task.Action != ActionProcessOrder {
		return WorkTask{}, errs.NewValueIsInvalidErrorWithCause(
			"work task", fmt.Errorf("unknown action %q", task.Action))
	}
	if task.OrderID <= 0 {
		return WorkTask{}, errs.NewValueIsInvalidErrorWithCause(
			"work task", fmt.Errorf("order_id %d is not greater than 0", task.OrderID))
	}
	return task, nil
}

// ResumesProcessing reports whether d continues an attempt that already moved
// its order to Processing: a broker redelivery or a scheduled retry.
func ResumesProcessing(d amqp.Delivery) bool {
	if d.Redelivered {
		return true
	}
	retry, _ := d.Headers[HeaderRetry].(bool)
	return retry
}

// StatusRequest is the body of a message on the status queue. The reply
// address and correlation token travel as message properties.
type StatusRequest struct {
	OrderID int64 `json:"order_id"`
}

// DecodeStatusRequest parses and checks a status request body.
func DecodeStatusRequest(body []byte) (StatusRequest, error) {
	var req StatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return StatusRequest{}, errs.NewValueIsInvalidErrorWithCause("status request", err)
	}
	if req.OrderID <= 0 {
		return StatusRequest{}, errs.NewValueIsInvalidErrorWithCause(
			"status request", fmt.Errorf("order_id %d is not greater than 0", req.OrderID))
	}
	return req, nil
}

// StatusResponse is the reply to a StatusRequest.
type StatusResponse struct {
	Status string        `json:"status"`
	Order  *OrderPayload `json:"order,omitempty"`
}

// OrderPayload is the wire form of an order snapshot.
type OrderPayload struct {
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

func NewFoundResponse(s ports.OrderSnapshot) StatusResponse {
	return StatusResponse{
		Status: s.Status.String(),
		Order: &OrderPayload{
			ID:           s.ID,
			CustomerName: s.CustomerName,
			Product:      s.Product,
			Quantity:     s.Quantity,
			Amount:       s.Amount,
			Status:       s.Status.String(),
			Retries:      s.Retries,
			CreatedAt:    s.CreatedAt.UTC(),
			UpdatedAt:    s.UpdatedAt.UTC(),
		},
	}
}

func NewNotFoundResponse() StatusResponse {
	return StatusResponse{Status: StatusNotFound}
}

// Snapshot converts a response back into a snapshot for orderID, or into
// errs.ObjectNotFoundError for a not_found reply.
func (r StatusResponse) Snapshot(orderID int64) (ports.OrderSnapshot, error) {
	if r.Status == StatusNotFound {
		return ports.OrderSnapshot{}, errs.NewObjectNotFoundError("order", orderID)
	}
	if r.Order == nil {
		return ports.OrderSnapshot{}, errs.NewValueIsRequiredError("status response order")
	}

	status, err := order.ParseStatus(r.Order.Status)
	if err != nil {
		return ports.OrderSnapshot{}, err
	}

	return ports.OrderSnapshot{
		ID:           r.Order.ID,
		CustomerName: r.Order.CustomerName,
		Product:      r.Order.Product,
		Quantity:     r.Order.Quantity,
		Amount:       r.Order.Amount,
		Status:       status,
		Retries:      r.Order.Retries,
		CreatedAt:    r.Order.CreatedAt,
		UpdatedAt:    r.Order.UpdatedAt,
	}, nil
}
