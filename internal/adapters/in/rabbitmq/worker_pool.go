package rabbitmq

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Runner is a consumer that runs until ctx ends or it fails.
type Runner interface {
	Run(ctx context.Context) error
}

// WorkerPool supervises a fixed set of consumers. A consumer that returns an
// error while the pool is running is restarted with exponential backoff; the
// backoff resets once a run has lasted longer than stableAfter.
type WorkerPool struct {
	runners     []Runner
	logger      *zap.Logger
	newBackOff  func() backoff.BackOff
	stableAfter time.Duration
}

func NewWorkerPool(runners []Runner, logger *zap.Logger) *WorkerPool {
	return &WorkerPool{
		runners: runners,
		logger:  logger.Named("worker_pool"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 15 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
		stableAfter: time.Minute,
	}
}

// Size returns the number of supervised consumers.
func (p *WorkerPool) Size() int {
	return len(p.runners)
}

// Run blocks until ctx ends and every consumer has returned.
func (p *WorkerPool) Run(ctx context.Context) {
	p.logger.Info("starting consumers", zap.Int("count", len(p.runners)))

	var wg sync.WaitGroup
	for i, r := range p.runners {
		wg.Add(1)
		go func(slot int, r Runner) {
			defer wg.Done()
			p.supervise(ctx, slot, r)
		}(i, r)
	}
	wg.Wait()

	p.logger.Info("all consumers stopped")
}

func (p *WorkerPool) supervise(ctx context.Context, slot int, r Runner) {
	log := p.logger.With(zap.Int("slot", slot))
	b := backoff.WithContext(p.newBackOff(), ctx)

	for {
		started := time.Now()
		err := r.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > p.stableAfter {
			b.Reset()
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			log.Error("consumer stopped for good", zap.Error(err))
			return
		}
		log.Warn("consumer stopped, restarting", zap.Error(err), zap.Duration("wait", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
