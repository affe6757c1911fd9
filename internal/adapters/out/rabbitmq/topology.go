package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultOrderQueue  = "order_queue"
	DefaultStatusQueue = "status_queue"
)

// Topology names the queues of the pipeline. Everything goes through the
// default exchange, so queue names double as routing keys.
type Topology struct {
	OrderQueue  string
	StatusQueue string
}

// RetryQueue parks delayed retries. Messages expire by per-message TTL and
// are dead-lettered back to OrderQueue.
func (t Topology) RetryQueue() string {
	return t.OrderQueue + ".retry"
}

// DeclareTopology declares all queues as durable. It is idempotent and safe
// to call from every process at start-up.
func DeclareTopology(ch *amqp.Channel, t Topology) error {
	if _, err := ch.QueueDeclare(
		t.OrderQueue, // name
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,          // args
	); err != nil {
		return fmt.Errorf("failed to declare %s: %w", t.OrderQueue, err)
	}

	if _, err := ch.QueueDeclare(
		t.RetryQueue(),
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": t.OrderQueue,
		},
	); err != nil {
		return fmt.Errorf("failed to declare %s: %w", t.RetryQueue(), err)
	}

	if _, err := ch.QueueDeclare(
		t.StatusQueue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare %s: %w", t.StatusQueue, err)
	}

	return nil
}
