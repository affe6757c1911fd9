package jobs

import (
	"context"
	"time"

	"orderqueue/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type RepublishPendingOrdersHandler interface {
	Handle(ctx context.Context, cmd commands.RepublishPendingOrdersCommand) (int, error)
}

// PendingOrderRepublishJob periodically re-queues work tasks for stale
// Pending orders.
type PendingOrderRepublishJob struct {
	handler  RepublishPendingOrdersHandler
	cmd      commands.RepublishPendingOrdersCommand
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
}

// NewPendingOrderRepublishJob creates the job. Each run is bounded by timeout.
func NewPendingOrderRepublishJob(
	handler RepublishPendingOrdersHandler,
	cmd commands.RepublishPendingOrdersCommand,
	schedule string,
	timeout time.Duration,
	logger *zap.Logger,
) *PendingOrderRepublishJob {
	logger = logger.Named("pending_order_republish_job")
	cl := newCronLogger(logger)
	return &PendingOrderRepublishJob{
		handler:  handler,
		cmd:      cmd,
		schedule: schedule,
		timeout:  timeout,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

func (j *PendingOrderRepublishJob) Name() string {
	return "pending order republish"
}

// Start schedules the job. An invalid schedule is returned as an error.
func (j *PendingOrderRepublishJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("job started",
		zap.String("schedule", j.schedule),
		zap.Duration("older_than", j.cmd.OlderThan()),
	)
	return nil
}

// Stop unschedules the job and waits for a running pass to finish.
func (j *PendingOrderRepublishJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("job stopped")
}

func (j *PendingOrderRepublishJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	published, err := j.handler.Handle(ctx, j.cmd)
	if err != nil {
		j.logger.Error("republish pass failed", zap.Int("published", published), zap.Error(err))
		return
	}
	if published > 0 {
		j.logger.Warn("republished work tasks for stale pending orders", zap.Int("published", published))
	}
}
