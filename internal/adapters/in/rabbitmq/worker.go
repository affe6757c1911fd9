package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	outrabbit "orderqueue/internal/adapters/out/rabbitmq"
	"orderqueue/internal/core/application/usecases/commands"
	"orderqueue/internal/core/domain/services"
	"orderqueue/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ProcessOrderHandler runs one processing attempt; see commands.ProcessOrderCommandHandler.
type ProcessOrderHandler interface {
	Handle(ctx context.Context, cmd commands.ProcessOrderCommand) (commands.ProcessOrderResult, error)
}

// Worker consumes work tasks from the order queue and settles each one only
// after the store reflects what the acknowledgement claims:
//
//	malformed task            -> Reject, not requeued
//	completed / failed / skip -> Ack (a fresh duplicate of an order being
//	                             processed elsewhere is a skip)
//	retry, zero delay         -> Nack, requeued
//	retry, positive delay     -> parked in the retry queue, then Ack
//	store error               -> Nack, requeued
//	interrupted by shutdown   -> left unsettled, redelivered when the channel closes
type Worker struct {
	id        int
	conn      ChannelOpener
	queue     string
	handler   ProcessOrderHandler
	policy    services.RetryPolicy
	scheduler ports.RetryScheduler
	logger    *zap.Logger
	tracer    trace.Tracer
}

func NewWorker(
	id int,
	conn ChannelOpener,
	queue string,
	handler ProcessOrderHandler,
	policy services.RetryPolicy,
	scheduler ports.RetryScheduler,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		id:        id,
		conn:      conn,
		queue:     queue,
		handler:   handler,
		policy:    policy,
		scheduler: scheduler,
		logger:    logger.Named("worker").With(zap.Int("worker_id", id)),
		tracer:    otel.Tracer(outrabbit.TracerName),
	}
}

// Run consumes until ctx ends or the channel dies.
func (w *Worker) Run(ctx context.Context) error {
	return consume(ctx, w.conn, w.queue, fmt.Sprintf("worker-%d", w.id), w.logger,
		func(ctx context.Context, _ *amqp.Channel, d amqp.Delivery) {
			w.handle(ctx, d)
		})
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	ctx = outrabbit.ExtractTrace(ctx, d.Headers)
	ctx, span := w.tracer.Start(ctx, "process order", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	log := w.logger.With(zap.String("message_id", d.MessageId), zap.Bool("redelivered", d.Redelivered))

	task, err := outrabbit.DecodeWorkTask(d.Body)
	if err != nil {
		log.Error("rejecting malformed work task", zap.ByteString("body", d.Body), zap.Error(err))
		span.SetStatus(codes.Error, "malformed work task")
		settle(log, "reject", d.Reject(false))
		return
	}

	cmd, err := commands.NewProcessOrderCommand(task.OrderID, outrabbit.ResumesProcessing(d))
	if err != nil {
		log.Error("rejecting work task", zap.Int64("order_id", task.OrderID), zap.Error(err))
		settle(log, "reject", d.Reject(false))
		return
	}

	log = log.With(zap.Int64("order_id", task.OrderID))
	span.SetAttributes(attribute.Int64("order.id", task.OrderID))

	result, err := w.handler.Handle(ctx, cmd)
	if err != nil {
		if errors.Is(err, commands.ErrProcessingInterrupted) {
			log.Info("processing interrupted, task left for redelivery")
			return
		}
		log.Error("processing attempt not recorded, requeueing task", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt not recorded")
		settle(log, "nack", d.Nack(false, true))
		return
	}

	span.SetAttributes(attribute.String("order.outcome", result.Outcome.String()))

	switch result.Outcome {
	case commands.OutcomeSkipped:
		if result.SkipReason == commands.SkipOrderNotFound {
			log.Warn("order vanished before processing", zap.String("event", "order_vanished"))
			span.AddEvent("order.vanished")
		} else {
			log.Info("duplicate task skipped",
				zap.String("reason", string(result.SkipReason)),
				zap.Stringer("status", result.Status),
			)
		}
		settle(log, "ack", d.Ack(false))

	case commands.OutcomeCompleted:
		log.Info("order completed", zap.Int("retries", result.Retries))
		settle(log, "ack", d.Ack(false))

	case commands.OutcomeFailed:
		log.Error("order failed, retries exhausted", zap.Int("retries", result.Retries), zap.Error(result.Cause))
		settle(log, "ack", d.Ack(false))

	case commands.OutcomeRetry:
		w.retry(ctx, log, d, result)

	default:
		log.Error("unknown processing outcome, requeueing task", zap.Stringer("outcome", result.Outcome))
		settle(log, "nack", d.Nack(false, true))
	}
}

func (w *Worker) retry(ctx context.Context, log *zap.Logger, d amqp.Delivery, result commands.ProcessOrderResult) {
	delay := w.policy.Delay(result.Retries)
	log = log.With(
		zap.Int("retries", result.Retries),
		zap.Duration("delay", delay),
		zap.String("strategy", w.policy.Name()),
		zap.NamedError("cause", result.Cause),
	)

	if delay <= 0 {
		log.Warn("processing failed, requeueing task")
		settle(log, "nack", d.Nack(false, true))
		return
	}

	if err := w.scheduler.ScheduleRetry(ctx, result.OrderID, delay); err != nil {
		log.Warn("processing failed, delayed retry unavailable, requeueing task", zap.Error(err))
		settle(log, "nack", d.Nack(false, true))
		return
	}

	log.Warn("processing failed, retry scheduled")
	settle(log, "ack", d.Ack(false))
}
