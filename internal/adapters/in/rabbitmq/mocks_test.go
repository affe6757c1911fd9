package rabbitmq

import (
	"context"
	"time"

	"orderqueue/internal/core/application/usecases/commands"
	"orderqueue/internal/core/application/usecases/queries"
	"orderqueue/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
)

type mockAcknowledger struct{ mock.Mock }

func (m *mockAcknowledger) Ack(tag uint64, multiple bool) error {
	args := m.Called(tag, multiple)
	return args.Error(0)
}

func (m *mockAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	args := m.Called(tag, multiple, requeue)
	return args.Error(0)
}

func (m *mockAcknowledger) Reject(tag uint64, requeue bool) error {
	args := m.Called(tag, requeue)
	return args.Error(0)
}

type mockProcessHandler struct{ mock.Mock }

func (m *mockProcessHandler) Handle(
	ctx context.Context, cmd commands.ProcessOrderCommand,
) (commands.ProcessOrderResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.ProcessOrderResult), args.Error(1)
}

type mockRetryScheduler struct{ mock.Mock }

func (m *mockRetryScheduler) ScheduleRetry(ctx context.Context, orderID int64, delay time.Duration) error {
	args := m.Called(ctx, orderID, delay)
	return args.Error(0)
}

type mockOrderReader struct{ mock.Mock }

func (m *mockOrderReader) Handle(ctx context.Context, query queries.GetOrderQuery) (ports.OrderSnapshot, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(ports.OrderSnapshot), args.Error(1)
}

type mockReplyPublisher struct{ mock.Mock }

func (m *mockReplyPublisher) PublishWithContext(
	ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing,
) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func delivery(ack amqp.Acknowledger, body string) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		MessageId:    "msg-1",
		Body:         []byte(body),
	}
}
