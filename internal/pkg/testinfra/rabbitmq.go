package testinfra

import (
	"context"

	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

// StartRabbitMQ runs a RabbitMQ container and returns it with its AMQP URL.
func StartRabbitMQ(ctx context.Context) (*rabbitmq.RabbitMQContainer, string, error) {
	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-management-alpine",
		rabbitmq.WithAdminUsername("guest"),
		rabbitmq.WithAdminPassword("guest"),
	)
	if err != nil {
		return nil, "", err
	}

	url, err := container.AmqpURL(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}

	return container, url, nil
}
