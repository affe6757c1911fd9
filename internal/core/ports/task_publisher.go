package ports

import (
	"context"
	"time"
)

// TaskPublisher enqueues durable work tasks for the worker pool.
type TaskPublisher interface {
	// PublishProcessOrder publishes one persistent "process_order" task.
	// A nil error means the broker confirmed the task.
	PublishProcessOrder(ctx context.Context, orderID int64) error
}

// RetryScheduler parks a work task for delay before it is delivered again.
type RetryScheduler interface {
	ScheduleRetry(ctx context.Context, orderID int64, delay time.Duration) error
}
