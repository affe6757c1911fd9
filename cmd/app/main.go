package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"orderqueue/cmd"
	"orderqueue/internal/adapters/out/postgres"
	"orderqueue/internal/adapters/out/rabbitmq"

	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	workersOnly := flag.Bool("workers-only", false, "run the worker pool and status responder without the HTTP API")
	apiOnly := flag.Bool("api-only", false, "run the HTTP API and jobs without workers")
	flag.Parse()

	if *workersOnly && *apiOnly {
		fmt.Fprintln(os.Stderr, "-workers-only and -api-only are mutually exclusive")
		os.Exit(2)
	}

	if err := run(!*apiOnly, !*workersOnly); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(withWorkers, withAPI bool) error {
	configs, err := cmd.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := cmd.NewLogger(configs)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := cmd.InitTracing(ctx, configs)
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			logger.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	if err = postgres.RunMigrations(configs.DatabaseURL); err != nil {
		return err
	}

	gormDB, err := postgres.Open(configs.DatabaseURL, logger)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	logger.Info("connecting to broker", zap.String("url", configs.RedactedRabbitMQURL()))
	conn, err := rabbitmq.Dial(ctx, configs.RabbitMQURL(), logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	app := cmd.NewCompositionRoot(configs, logger, gormDB, conn)
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close broker channels", zap.Error(err))
		}
	}()

	if err = app.DeclareTopology(); err != nil {
		return err
	}

	var consumers sync.WaitGroup
	if withWorkers {
		pool, err := app.CreateWorkerPool()
		if err != nil {
			return err
		}
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			pool.Run(ctx)
		}()
	}

	serverErr := make(chan error, 1)
	if withAPI {
		jobManager, err := app.CreateJobManager()
		if err != nil {
			return err
		}
		if err = jobManager.StartAll(); err != nil {
			return err
		}
		defer jobManager.StopAll()

		e, err := app.CreateHTTPServer(ctx)
		if err != nil {
			return err
		}
		go func() {
			logger.Info("http server listening", zap.String("addr", configs.HTTPAddr()))
			if err := e.Start(configs.HTTPAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := e.Shutdown(sctx); err != nil {
				logger.Warn("http server did not shut down cleanly", zap.Error(err))
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serverErr:
		logger.Error("http server failed", zap.Error(err))
	}

	// unblock the consumers when the server failed
	stop()
	consumers.Wait()
	return err
}
