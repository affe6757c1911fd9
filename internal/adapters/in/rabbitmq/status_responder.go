package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	outrabbit "orderqueue/internal/adapters/out/rabbitmq"
	"orderqueue/internal/core/application/usecases/queries"
	"orderqueue/internal/core/ports"
	"orderqueue/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OrderReader reads the committed state of one order.
type OrderReader interface {
	Handle(ctx context.Context, query queries.GetOrderQuery) (ports.OrderSnapshot, error)
}

// replyPublisher is the part of *amqp.Channel the responder writes replies with.
type replyPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// StatusResponder answers status requests from the store. A request is
// acknowledged once its reply was handed to the broker; requests that cannot
// be answered are dropped without requeue, since the requester times out.
type StatusResponder struct {
	conn   ChannelOpener
	queue  string
	reader OrderReader
	logger *zap.Logger
	tracer trace.Tracer
}

func NewStatusResponder(conn ChannelOpener, queue string, reader OrderReader, logger *zap.Logger) *StatusResponder {
	return &StatusResponder{
		conn:   conn,
		queue:  queue,
		reader: reader,
		logger: logger.Named("status_responder"),
		tracer: otel.Tracer(outrabbit.TracerName),
	}
}

// Run consumes until ctx ends or the channel dies.
func (r *StatusResponder) Run(ctx context.Context) error {
	return consume(ctx, r.conn, r.queue, "status-responder", r.logger,
		func(ctx context.Context, ch *amqp.Channel, d amqp.Delivery) {
			r.handle(ctx, ch, d)
		})
}

func (r *StatusResponder) handle(ctx context.Context, pub replyPublisher, d amqp.Delivery) {
	ctx = outrabbit.ExtractTrace(ctx, d.Headers)
	ctx, span := r.tracer.Start(ctx, "answer status request", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	log := r.logger.With(zap.String("correlation_id", d.CorrelationId))

	if d.ReplyTo == "" || d.CorrelationId == "" {
		log.Warn("dropping status request without reply address", zap.String("reply_to", d.ReplyTo))
		settle(log, "nack", d.Nack(false, false))
		return
	}

	req, err := outrabbit.DecodeStatusRequest(d.Body)
	if err != nil {
		log.Warn("dropping malformed status request", zap.ByteString("body", d.Body), zap.Error(err))
		settle(log, "nack", d.Nack(false, false))
		return
	}

	log = log.With(zap.Int64("order_id", req.OrderID))
	span.SetAttributes(attribute.Int64("order.id", req.OrderID))

	query, err := queries.NewGetOrderQuery(req.OrderID)
	if err != nil {
		log.Warn("dropping status request", zap.Error(err))
		settle(log, "nack", d.Nack(false, false))
		return
	}

	var resp outrabbit.StatusResponse
	snapshot, err := r.reader.Handle(ctx, query)
	switch {
	case err == nil:
		resp = outrabbit.NewFoundResponse(snapshot)
	case errors.Is(err, errs.ErrObjectNotFound):
		resp = outrabbit.NewNotFoundResponse()
	default:
		log.Error("failed to read order, dropping status request", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "store read failed")
		settle(log, "nack", d.Nack(false, false))
		return
	}

	body, err := json.Marshal(resp)
	if err != nil {
		log.Error("failed to encode status response", zap.Error(err))
		settle(log, "nack", d.Nack(false, false))
		return
	}

	err = pub.PublishWithContext(ctx,
		"",        // default exchange
		d.ReplyTo, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:   outrabbit.ContentTypeJSON,
			CorrelationId: d.CorrelationId,
			Timestamp:     time.Now().UTC(),
			Headers:       outrabbit.InjectTrace(ctx, nil),
			Body:          body,
		},
	)
	if err != nil {
		log.Error("failed to publish status response", zap.Error(err))
		span.RecordError(err)
		settle(log, "nack", d.Nack(false, false))
		return
	}

	log.Debug("status request answered", zap.String("status", resp.Status))
	settle(log, "ack", d.Ack(false))
}
