package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"orderqueue/internal/adapters/out/postgres"
	"orderqueue/internal/adapters/out/postgres/orderrepo"
	"orderqueue/internal/core/domain/model/kernel"
	"orderqueue/internal/core/domain/model/order"
	"orderqueue/internal/pkg/errs"
	"orderqueue/internal/pkg/testinfra"

	"github.com/stretchr/testify/suite"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderRepositoryIntegrationTestSuite verifies order persistence against a
// real PostgreSQL migrated with the embedded schema.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *tcpostgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, dsn, err := testinfra.StartPostgres(ctx)
	suite.Require().NoError(err)
	suite.container = container

	suite.Require().NoError(postgres.RunMigrations(dsn))

	db, err := postgres.Open(dsn, zap.NewNop())
	suite.Require().NoError(err)
	suite.db = db
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders RESTART IDENTITY").Error)
	suite.repository = orderrepo.NewGormOrderRepository(suite.db)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) newOrder(name string, at time.Time) *order.Order {
	amount, err := kernel.NewAmountFromString("1234.56")
	suite.Require().NoError(err)
	o, err := order.NewOrder(name, "Widget", 3, amount, at)
	suite.Require().NoError(err)
	return o
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_AssignsDatabaseIdentity() {
	ctx := context.Background()

	first := suite.newOrder("Ada", time.Now())
	second := suite.newOrder("Grace", time.Now())

	suite.Require().NoError(suite.repository.Add(ctx, first))
	suite.Require().NoError(suite.repository.Add(ctx, second))

	suite.Equal(int64(1), first.ID())
	suite.Equal(int64(2), second.ID())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_RoundTripsAllFields() {
	ctx := context.Background()
	createdAt := time.Now().Add(-time.Hour)
	o := suite.newOrder("Ada", createdAt)
	suite.Require().NoError(suite.repository.Add(ctx, o))

	got, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)

	suite.Equal(o.ID(), got.ID())
	suite.Equal("Ada", got.CustomerName())
	suite.Equal("Widget", got.Product())
	suite.Equal(3, got.Quantity())
	suite.True(o.Amount().IsEqual(got.Amount()), "amount %s != %s", o.Amount(), got.Amount())
	suite.Equal(order.Pending, got.Status())
	suite.Zero(got.Retries())
	suite.WithinDuration(createdAt, got.CreatedAt(), time.Millisecond)
	suite.WithinDuration(createdAt, got.UpdatedAt(), time.Millisecond)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_PersistsLifecycleFieldsOnly() {
	ctx := context.Background()
	o := suite.newOrder("Ada", time.Now().Add(-time.Minute))
	suite.Require().NoError(suite.repository.Add(ctx, o))

	now := time.Now()
	suite.Require().NoError(o.StartProcessing(now))
	outcome, err := o.RegisterFailure(3, now)
	suite.Require().NoError(err)
	suite.Equal(order.RetryScheduled, outcome)
	suite.Require().NoError(suite.repository.Update(ctx, o))

	got, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Processing, got.Status())
	suite.Equal(1, got.Retries())
	suite.WithinDuration(now, got.UpdatedAt(), time.Millisecond)
	suite.WithinDuration(o.CreatedAt(), got.CreatedAt(), time.Millisecond)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_NonExistentOrder_ReturnsNotFound() {
	amount, err := kernel.NewAmountFromString("1.00")
	suite.Require().NoError(err)
	now := time.Now()
	ghost, err := order.RestoreOrder(999, "Ada", "Widget", 1, amount, order.Processing, 0, now, now)
	suite.Require().NoError(err)

	err = suite.repository.Update(context.Background(), ghost)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_Missing_ReturnsNotFound() {
	got, err := suite.repository.Get(context.Background(), 12345)

	suite.Nil(got)
	var notFound *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFound)
	suite.Equal(int64(12345), notFound.ID)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetForUpdate_ReturnsOrderInsideTransaction() {
	ctx := context.Background()
	o := suite.newOrder("Ada", time.Now())
	suite.Require().NoError(suite.repository.Add(ctx, o))

	err := suite.db.Transaction(func(tx *gorm.DB) error {
		got, err := orderrepo.NewGormOrderRepository(tx).GetForUpdate(ctx, o.ID())
		if err != nil {
			return err
		}
		suite.Equal(o.ID(), got.ID())
		return nil
	})
	suite.Require().NoError(err)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetAllPendingOlderThanForUpdate_FiltersByStatusAndAge() {
	ctx := context.Background()
	now := time.Now()

	oldest := suite.newOrder("oldest", now.Add(-3*time.Hour))
	older := suite.newOrder("older", now.Add(-2*time.Hour))
	fresh := suite.newOrder("fresh", now)
	processing := suite.newOrder("processing", now.Add(-4*time.Hour))
	suite.Require().NoError(processing.StartProcessing(now.Add(-4 * time.Hour)))

	for _, o := range []*order.Order{older, fresh, processing, oldest} {
		suite.Require().NoError(suite.repository.Add(ctx, o))
	}

	stale, err := suite.repository.GetAllPendingOlderThanForUpdate(ctx, now.Add(-time.Hour), 0)
	suite.Require().NoError(err)
	suite.Require().Len(stale, 2)
	suite.Equal("oldest", stale[0].CustomerName())
	suite.Equal("older", stale[1].CustomerName())

	limited, err := suite.repository.GetAllPendingOlderThanForUpdate(ctx, now.Add(-time.Hour), 1)
	suite.Require().NoError(err)
	suite.Require().Len(limited, 1)
	suite.Equal("oldest", limited[0].CustomerName())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetAllPendingOlderThanForUpdate_SkipsRowsLockedElsewhere() {
	ctx := context.Background()
	now := time.Now()

	first := suite.newOrder("first", now.Add(-3*time.Hour))
	second := suite.newOrder("second", now.Add(-2*time.Hour))
	suite.Require().NoError(suite.repository.Add(ctx, first))
	suite.Require().NoError(suite.repository.Add(ctx, second))

	holder := suite.db.Begin()
	suite.Require().NoError(holder.Error)
	defer holder.Rollback()

	held, err := orderrepo.NewGormOrderRepository(holder).GetForUpdate(ctx, first.ID())
	suite.Require().NoError(err)
	suite.Equal(first.ID(), held.ID())

	tx := suite.db.Begin()
	suite.Require().NoError(tx.Error)
	defer tx.Rollback()

	stale, err := orderrepo.NewGormOrderRepository(tx).GetAllPendingOlderThanForUpdate(ctx, now.Add(-time.Hour), 0)
	suite.Require().NoError(err)
	suite.Require().Len(stale, 1)
	suite.Equal(second.ID(), stale[0].ID())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestSchema_RejectsUnknownStatus() {
	err := suite.db.Exec(`
		INSERT INTO orders (customer_name, product, quantity, amount, status)
		VALUES ('Ada', 'Widget', 1, 1.00, 'shipped')
	`).Error
	suite.Require().Error(err)
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
