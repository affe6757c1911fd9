package queries_test

import (
	"context"
	"testing"
	"time"

	"orderqueue/internal/adapters/out/postgres"
	"orderqueue/internal/adapters/out/postgres/orderrepo"
	"orderqueue/internal/core/application/usecases/queries"
	"orderqueue/internal/core/domain/model/kernel"
	"orderqueue/internal/core/domain/model/order"
	"orderqueue/internal/pkg/errs"
	"orderqueue/internal/pkg/testinfra"

	"github.com/stretchr/testify/suite"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderQueriesTestSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *gorm.DB
	repo      *orderrepo.GormOrderRepository
	get       queries.GetOrderQueryHandler
	list      queries.ListOrdersQueryHandler
}

func (suite *OrderQueriesTestSuite) SetupSuite() {
	ctx := context.Background()

	container, dsn, err := testinfra.StartPostgres(ctx)
	suite.Require().NoError(err)
	suite.container = container

	suite.Require().NoError(postgres.RunMigrations(dsn))
	db, err := postgres.Open(dsn, zap.NewNop())
	suite.Require().NoError(err)
	suite.db = db

	suite.repo = orderrepo.NewGormOrderRepository(db)
	suite.get = queries.NewGetOrderQueryHandler(db)
	suite.list = queries.NewListOrdersQueryHandler(db)
}

func (suite *OrderQueriesTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderQueriesTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders RESTART IDENTITY").Error)
}

func (suite *OrderQueriesTestSuite) addOrder(name string, status order.Status) *order.Order {
	amount, err := kernel.NewAmountFromString("42.10")
	suite.Require().NoError(err)
	o, err := order.NewOrder(name, "Widget", 1, amount, time.Now())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repo.Add(context.Background(), o))

	now := time.Now()
	switch status {
	case order.Processing:
		suite.Require().NoError(o.StartProcessing(now))
	case order.Completed:
		suite.Require().NoError(o.StartProcessing(now))
		suite.Require().NoError(o.Complete(now))
	case order.Failed:
		suite.Require().NoError(o.StartProcessing(now))
		_, err = o.RegisterFailure(0, now)
		suite.Require().NoError(err)
	}
	suite.Require().NoError(suite.repo.Update(context.Background(), o))
	return o
}

func (suite *OrderQueriesTestSuite) TestGetOrder_ReturnsSnapshot() {
	o := suite.addOrder("Ada", order.Completed)
	q, err := queries.NewGetOrderQuery(o.ID())
	suite.Require().NoError(err)

	got, err := suite.get.Handle(context.Background(), q)
	suite.Require().NoError(err)
	suite.Equal(o.ID(), got.ID)
	suite.Equal("Ada", got.CustomerName)
	suite.Equal(order.Completed, got.Status)
	suite.Equal("42.10", got.Amount.StringFixed(2))
	suite.Equal(time.UTC, got.CreatedAt.Location())
}

func (suite *OrderQueriesTestSuite) TestGetOrder_Missing_ReturnsNotFound() {
	q, err := queries.NewGetOrderQuery(999)
	suite.Require().NoError(err)

	_, err = suite.get.Handle(context.Background(), q)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderQueriesTestSuite) TestListOrders_EmptyStore_ReturnsEmptySlice() {
	q, err := queries.NewListOrdersQuery("", 0, 0)
	suite.Require().NoError(err)

	got, err := suite.list.Handle(context.Background(), q)
	suite.Require().NoError(err)
	suite.NotNil(got)
	suite.Empty(got)
}

func (suite *OrderQueriesTestSuite) TestListOrders_SortedByIDWithFilterAndPage() {
	a := suite.addOrder("a", order.Pending)
	b := suite.addOrder("b", order.Failed)
	c := suite.addOrder("c", order.Completed)
	d := suite.addOrder("d", order.Failed)

	all, err := queries.NewListOrdersQuery("", 0, 0)
	suite.Require().NoError(err)
	got, err := suite.list.Handle(context.Background(), all)
	suite.Require().NoError(err)
	suite.Require().Len(got, 4)
	for i, want := range []*order.Order{a, b, c, d} {
		suite.Equal(want.ID(), got[i].ID)
	}

	failed, err := queries.NewListOrdersQuery("failed", 0, 0)
	suite.Require().NoError(err)
	got, err = suite.list.Handle(context.Background(), failed)
	suite.Require().NoError(err)
	suite.Require().Len(got, 2)
	suite.Equal(b.ID(), got[0].ID)
	suite.Equal(d.ID(), got[1].ID)

	page, err := queries.NewListOrdersQuery("", 2, 1)
	suite.Require().NoError(err)
	got, err = suite.list.Handle(context.Background(), page)
	suite.Require().NoError(err)
	suite.Require().Len(got, 2)
	suite.Equal(b.ID(), got[0].ID)
	suite.Equal(c.ID(), got[1].ID)
}

func (suite *OrderQueriesTestSuite) TestListOrders_CancelledContext_ReturnsError() {
	suite.addOrder("a", order.Pending)
	q, err := queries.NewListOrdersQuery("", 0, 0)
	suite.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := suite.list.Handle(ctx, q)
	suite.Require().Error(err)
	suite.Nil(got)
}

func TestOrderQueriesTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OrderQueriesTestSuite))
}
