package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"orderqueue/internal/core/ports"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrPublishNotConfirmed is returned when the broker nacks a published message.
var ErrPublishNotConfirmed = errors.New("broker did not confirm the message")

var (
	_ ports.TaskPublisher  = (*Publisher)(nil)
	_ ports.RetryScheduler = (*Publisher)(nil)
)

// Publisher publishes persistent work tasks in confirm mode. A publish
// returns only after the broker has taken responsibility for the message.
// It is safe for concurrent use; publishes are serialised on one channel.
type Publisher struct {
	conn     *Connection
	topology Topology
	logger   *zap.Logger
	tracer   trace.Tracer

	mu sync.Mutex
	ch *amqp.Channel
}

func NewPublisher(conn *Connection, topology Topology, logger *zap.Logger) *Publisher {
	return &Publisher{
		conn:     conn,
		topology: topology,
		logger:   logger.Named("publisher"),
		tracer:   otel.Tracer(TracerName),
	}
}

// PublishProcessOrder enqueues a work task for orderID on the order queue.
func (p *Publisher) PublishProcessOrder(ctx context.Context, orderID int64) error {
	ctx, span := p.tracer.Start(ctx, "publish process_order",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.Int64("order.id", orderID)),
	)
	defer span.End()

	msg, err := newTaskPublishing(ctx, orderID)
	if err != nil {
		return err
	}

	if err = p.publish(ctx, p.topology.OrderQueue, msg); err != nil {
		span.RecordError(err)
		return err
	}

	p.logger.Debug("work task published", zap.Int64("order_id", orderID), zap.String("message_id", msg.MessageId))
	return nil
}

// ScheduleRetry parks a work task for orderID in the retry queue for delay.
// When the TTL expires the broker moves it back to the order queue.
func (p *Publisher) ScheduleRetry(ctx context.Context, orderID int64, delay time.Duration) error {
	ctx, span := p.tracer.Start(ctx, "schedule retry",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.Int64("order.id", orderID),
			attribute.Int64("retry.delay_ms", delay.Milliseconds()),
		),
	)
	defer span.End()

	msg, err := newTaskPublishing(ctx, orderID)
	if err != nil {
		return err
	}
	msg.Expiration = strconv.FormatInt(max(delay.Milliseconds(), 1), 10)
	msg.Headers[HeaderRetry] = true

	if err = p.publish(ctx, p.topology.RetryQueue(), msg); err != nil {
		span.RecordError(err)
		return err
	}

	p.logger.Debug("retry scheduled", zap.Int64("order_id", orderID), zap.Duration("delay", delay))
	return nil
}

// Close closes the publishing channel. The shared connection stays open.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}

func (p *Publisher) publish(ctx context.Context, queue string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to confirm publish to %s: %w", queue, err)
	}
	if !acked {
		return fmt.Errorf("%w: queue %s", ErrPublishNotConfirmed, queue)
	}
	return nil
}

// channel returns the confirm-mode channel, reopening it after a failure.
// Callers hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err = ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	p.ch = ch
	return ch, nil
}

func newTaskPublishing(ctx context.Context, orderID int64) (amqp.Publishing, error) {
	body, err := json.Marshal(WorkTask{OrderID: orderID, Action: ActionProcessOrder})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal work task: %w", err)
	}

	return amqp.Publishing{
		Headers:      InjectTrace(ctx, nil),
		ContentType:  ContentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}
