package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	httpin "orderqueue/internal/adapters/in/http"
	inrabbit "orderqueue/internal/adapters/in/rabbitmq"
	"orderqueue/internal/adapters/out/postgres"
	"orderqueue/internal/adapters/out/rabbitmq"
	"orderqueue/internal/core/application/usecases/commands"
	"orderqueue/internal/core/application/usecases/queries"
	"orderqueue/internal/core/domain/services"
	"orderqueue/internal/jobs"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// republishRunTimeout bounds a single pass of the republish job.
const republishRunTimeout = 30 * time.Second

// CompositionRoot builds every component from the shared store and broker
// connection. Broker-side components are created lazily and closed by Close.
type CompositionRoot struct {
	cfg        Config
	logger     *zap.Logger
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	conn       *rabbitmq.Connection
	topology   rabbitmq.Topology

	mu           sync.Mutex
	publisher    *rabbitmq.Publisher
	statusClient *rabbitmq.StatusClient
}

func NewCompositionRoot(cfg Config, logger *zap.Logger, gormDB *gorm.DB, conn *rabbitmq.Connection) *CompositionRoot {
	return &CompositionRoot{
		cfg:        cfg,
		logger:     logger,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		conn:       conn,
		topology: rabbitmq.Topology{
			OrderQueue:  cfg.OrderQueue,
			StatusQueue: cfg.StatusQueue,
		},
	}
}

// DeclareTopology declares the pipeline queues on a short-lived channel.
func (c *CompositionRoot) DeclareTopology() error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	return rabbitmq.DeclareTopology(ch, c.topology)
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) Publisher() *rabbitmq.Publisher {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.publisher == nil {
		c.publisher = rabbitmq.NewPublisher(c.conn, c.topology, c.logger)
	}
	return c.publisher
}

func (c *CompositionRoot) StatusClient() (*rabbitmq.StatusClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.statusClient == nil {
		client, err := rabbitmq.NewStatusClient(c.conn, c.topology.StatusQueue, c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create status client: %w", err)
		}
		c.statusClient = client
	}
	return c.statusClient, nil
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.Publisher())
}

func (c *CompositionRoot) CreateProcessOrderCommandHandler() commands.ProcessOrderCommandHandler {
	processor := services.NewSimulatedProcessor(c.cfg.ProcessingTime, c.cfg.FailEvery)
	return commands.NewProcessOrderCommandHandler(c.orderUoWFactory(), processor, c.cfg.MaxRetries)
}

func (c *CompositionRoot) CreateRepublishPendingOrdersCommandHandler() commands.RepublishPendingOrdersCommandHandler {
	return commands.NewRepublishPendingOrdersCommandHandler(c.orderUoWFactory(), c.Publisher())
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateQueryOrderStatusQueryHandler() (queries.QueryOrderStatusQueryHandler, error) {
	client, err := c.StatusClient()
	if err != nil {
		return queries.QueryOrderStatusQueryHandler{}, err
	}
	return queries.NewQueryOrderStatusQueryHandler(client, c.cfg.StatusTimeout), nil
}

func (c *CompositionRoot) CreateRetryPolicy() (services.RetryPolicy, error) {
	return services.NewRetryPolicy(c.cfg.RetryStrategy, c.cfg.RetryBaseDelay, c.cfg.RetryMaxDelay)
}

// CreateWorkerPool supervises WorkerPoolSize order workers and one status
// responder.
func (c *CompositionRoot) CreateWorkerPool() (*inrabbit.WorkerPool, error) {
	policy, err := c.CreateRetryPolicy()
	if err != nil {
		return nil, err
	}

	processHandler := c.CreateProcessOrderCommandHandler()
	publisher := c.Publisher()

	runners := make([]inrabbit.Runner, 0, c.cfg.WorkerPoolSize+1)
	for i := 1; i <= c.cfg.WorkerPoolSize; i++ {
		runners = append(runners, inrabbit.NewWorker(
			i, c.conn, c.topology.OrderQueue, &processHandler, policy, publisher, c.logger,
		))
	}

	getOrderHandler := c.CreateGetOrderQueryHandler()
	runners = append(runners, inrabbit.NewStatusResponder(
		c.conn, c.topology.StatusQueue, getOrderHandler, c.logger,
	))

	return inrabbit.NewWorkerPool(runners, c.logger), nil
}

// CreateHTTPServer builds the API with request validation against the
// embedded OpenAPI document.
func (c *CompositionRoot) CreateHTTPServer(ctx context.Context) (*echo.Echo, error) {
	doc, err := httpin.LoadSpec(ctx)
	if err != nil {
		return nil, err
	}
	validate, err := httpin.ValidateRequests(doc)
	if err != nil {
		return nil, err
	}

	statusHandler, err := c.CreateQueryOrderStatusQueryHandler()
	if err != nil {
		return nil, err
	}

	createHandler := c.CreateCreateOrderCommandHandler()
	listHandler := c.CreateListOrdersQueryHandler()

	e := httpin.NewEcho(c.logger)
	e.Use(validate)
	httpin.RegisterSpec(e, doc)
	httpin.NewServer(&createHandler, statusHandler, listHandler, c.logger).RegisterRoutes(e)
	return e, nil
}

// CreateJobManager returns a manager without jobs when REPUBLISH_SCHEDULE is empty.
func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	if c.cfg.RepublishSchedule == "" {
		return jobs.NewJobManager(c.logger), nil
	}

	cmd, err := commands.NewRepublishPendingOrdersCommand(c.cfg.RepublishAfter, c.cfg.RepublishBatch)
	if err != nil {
		return nil, err
	}

	handler := c.CreateRepublishPendingOrdersCommandHandler()
	job := jobs.NewPendingOrderRepublishJob(&handler, cmd, c.cfg.RepublishSchedule, republishRunTimeout, c.logger)
	return jobs.NewJobManager(c.logger, job), nil
}

// Close releases the broker channels opened by the root. The connection
// itself belongs to the caller.
func (c *CompositionRoot) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.statusClient != nil {
		errs = append(errs, c.statusClient.Close())
		c.statusClient = nil
	}
	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
		c.publisher = nil
	}
	return errors.Join(errs...)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
