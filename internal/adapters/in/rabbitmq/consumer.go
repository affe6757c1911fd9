// Package rabbitmq contains the broker consumers of the order pipeline: the
// order workers and the status responder. Each consumer owns one channel with
// prefetch 1, so a consumer holds at most one unacknowledged delivery.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrDeliveriesClosed is returned by Run when the broker cancelled the consumer.
var ErrDeliveriesClosed = errors.New("delivery channel closed by broker")

// ChannelOpener is satisfied by the shared broker connection.
type ChannelOpener interface {
	Channel() (*amqp.Channel, error)
}

// deliveryHandler settles d itself; ch is the channel d arrived on.
type deliveryHandler func(ctx context.Context, ch *amqp.Channel, d amqp.Delivery)

// consume runs handle for every delivery of queue, one at a time, until ctx
// ends (nil) or the channel dies (error). Closing the channel on return hands
// any unsettled delivery back to the broker.
func consume(
	ctx context.Context,
	conn ChannelOpener,
	queue, tag string,
	logger *zap.Logger,
	handle deliveryHandler,
) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() {
		if !ch.IsClosed() {
			_ = ch.Close()
		}
	}()

	if err = ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))

	deliveries, err := ch.Consume(
		queue, // queue
		tag,   // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", queue, err)
	}

	logger.Info("consuming", zap.String("queue", queue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr, ok := <-closed:
			if !ok || amqpErr == nil {
				return ErrDeliveriesClosed
			}
			return fmt.Errorf("channel closed: %w", amqpErr)
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrDeliveriesClosed
			}
			handle(ctx, ch, d)
		}
	}
}

func settle(logger *zap.Logger, action string, err error) {
	if err != nil {
		logger.Error("failed to settle delivery", zap.String("action", action), zap.Error(err))
	}
}
