package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"orderqueue/internal/core/ports"
	"orderqueue/internal/pkg/errs"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrStatusClientClosed is returned by RequestStatus after Close.
var ErrStatusClientClosed = errors.New("status client is closed")

var _ ports.StatusRequester = (*StatusClient)(nil)

// StatusClient sends status requests and matches replies to callers by
// correlation token. It owns one channel with an exclusive, server-named
// reply queue drained by a single reply loop, so any number of goroutines
// may call RequestStatus at once.
type StatusClient struct {
	conn        *Connection
	statusQueue string
	logger      *zap.Logger
	tracer      trace.Tracer
	pending     *replyTable

	mu         sync.Mutex
	ch         *amqp.Channel
	replyQueue string
	closed     bool

	loops sync.WaitGroup
}

// NewStatusClient opens the reply channel and starts the reply loop.
func NewStatusClient(conn *Connection, statusQueue string, logger *zap.Logger) (*StatusClient, error) {
	c := &StatusClient{
		conn:        conn,
		statusQueue: statusQueue,
		logger:      logger.Named("status_client"),
		tracer:      otel.Tracer(TracerName),
		pending:     newReplyTable(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, _, err := c.channel(); err != nil {
		return nil, err
	}
	return c, nil
}

// RequestStatus asks the status responder for orderID and waits for the
// matching reply until ctx ends. Without a deadline on ctx the wait is
// unbounded, so callers are expected to set one.
func (c *StatusClient) RequestStatus(ctx context.Context, orderID int64) (ports.OrderSnapshot, error) {
	started := time.Now()
	token := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, "request order status",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int64("order.id", orderID),
			attribute.String("messaging.message.conversation_id", token),
		),
	)
	defer span.End()

	body, err := json.Marshal(StatusRequest{OrderID: orderID})
	if err != nil {
		return ports.OrderSnapshot{}, fmt.Errorf("failed to marshal status request: %w", err)
	}

	slot := c.pending.register(token)
	defer c.pending.forget(token)

	if err = c.publish(ctx, token, body); err != nil {
		span.RecordError(err)
		return ports.OrderSnapshot{}, err
	}

	select {
	case reply := <-slot:
		var resp StatusResponse
		if err = json.Unmarshal(reply, &resp); err != nil {
			return ports.OrderSnapshot{}, errs.NewValueIsInvalidErrorWithCause("status response", err)
		}
		return resp.Snapshot(orderID)

	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("status request timed out",
				zap.Int64("order_id", orderID),
				zap.String("correlation_id", token),
			)
			return ports.OrderSnapshot{}, errs.NewTimeoutError("order status request", time.Since(started).Round(time.Millisecond))
		}
		return ports.OrderSnapshot{}, ctx.Err()
	}
}

// Close stops the reply loop and closes the reply channel. The reply queue
// is deleted by the broker together with the channel.
func (c *StatusClient) Close() error {
	c.mu.Lock()
	c.closed = true
	ch := c.ch
	c.ch = nil
	c.mu.Unlock()

	var err error
	if ch != nil && !ch.IsClosed() {
		err = ch.Close()
	}
	c.loops.Wait()
	return err
}

func (c *StatusClient) publish(ctx context.Context, token string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, replyQueue, err := c.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx,
		"",            // default exchange
		c.statusQueue, // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			Headers:       InjectTrace(ctx, nil),
			ContentType:   ContentTypeJSON,
			DeliveryMode:  amqp.Persistent,
			CorrelationId: token,
			ReplyTo:       replyQueue,
			Timestamp:     time.Now().UTC(),
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish status request: %w", err)
	}
	return nil
}

// channel returns the reply channel and queue, re-creating both after the
// previous channel died. Callers hold c.mu.
func (c *StatusClient) channel() (*amqp.Channel, string, error) {
	if c.closed {
		return nil, "", ErrStatusClientClosed
	}
	if c.ch != nil && !c.ch.IsClosed() {
		return c.ch, c.replyQueue, nil
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, "", err
	}

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, "", fmt.Errorf("failed to declare reply queue: %w", err)
	}

	deliveries, err := ch.Consume(
		q.Name,
		"",    // consumer tag
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, "", fmt.Errorf("failed to consume reply queue: %w", err)
	}

	c.ch = ch
	c.replyQueue = q.Name

	c.loops.Add(1)
	go c.replyLoop(deliveries)

	c.logger.Debug("reply queue ready", zap.String("queue", q.Name))
	return ch, q.Name, nil
}

func (c *StatusClient) replyLoop(deliveries <-chan amqp.Delivery) {
	defer c.loops.Done()

	for d := range deliveries {
		c.dispatch(d)
	}
}

func (c *StatusClient) dispatch(d amqp.Delivery) {
	if d.CorrelationId == "" {
		c.logger.Warn("reply without correlation id dropped")
		return
	}
	if !c.pending.resolve(d.CorrelationId, d.Body) {
		c.logger.Warn("reply for unknown correlation id dropped",
			zap.String("correlation_id", d.CorrelationId),
		)
	}
}
