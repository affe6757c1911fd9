// Package jobs provides scheduled background tasks for the order pipeline.
//
// Jobs are cron-based, using github.com/robfig/cron/v3 with the seconds
// field enabled, so both six-field expressions and descriptors such as
// "@every 1m" are accepted.
//
// # Available Jobs
//
// 1. PendingOrderRepublishJob - re-queues work tasks for orders that stayed
// Pending longer than expected, e.g. because the gateway committed the order
// but the broker refused the task.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(logger, republishJob)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Job runs log their errors and never stop the schedule. A run that is still
// busy when the next tick fires makes that tick a no-op.
package jobs
