package commands_test

import (
	"errors"
	"testing"

	"orderqueue/internal/core/application/usecases/commands"
	"orderqueue/internal/core/domain/model/order"
	"orderqueue/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCreateCmd(t *testing.T) commands.CreateOrderCommand {
	t.Helper()
	cmd, err := commands.NewCreateOrderCommand("Ada", "Widget", 2, "10.50")
	require.NoError(t, err)
	return cmd
}

func assignID(id int64) func(mock.Arguments) {
	return func(args mock.Arguments) {
		_ = args.Get(1).(*order.Order).AssignID(id)
	}
}

func TestCreateOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateCmd(t)

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	publisher := new(MockTaskPublisher)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Add", ctx, mock.AnythingOfType("*order.Order")).Run(assignID(42)).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		publisher.On("PublishProcessOrder", ctx, int64(42)).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateOrderCommandHandler(factory, publisher)
	created, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID())
	assert.Equal(t, order.Pending, created.Status())
	assert.Zero(t, created.Retries())
	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
	factory.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()
	factory := new(MockOrderUoWFactory)
	publisher := new(MockTaskPublisher)
	h := commands.NewCreateOrderCommandHandler(factory, publisher)

	created, err := h.Handle(ctx, commands.CreateOrderCommand{})
	require.ErrorIs(t, err, commands.ErrCreateOrderCommandIsNotConstructed)
	assert.Nil(t, created)
	factory.AssertNotCalled(t, "Create")
	publisher.AssertNotCalled(t, "PublishProcessOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderCommandHandler_Handle_BeginError(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateCmd(t)

	uow := new(MockOrderUoW)
	factory := new(MockOrderUoWFactory)
	publisher := new(MockTaskPublisher)
	mock.InOrder(
		factory.On("Create").Return(uow).Once(),
		uow.On("Begin", ctx).Return(errors.New("begin error")).Once(),
	)

	h := commands.NewCreateOrderCommandHandler(factory, publisher)
	_, err := h.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrPersistence)
	publisher.AssertNotCalled(t, "PublishProcessOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderCommandHandler_Handle_AddError(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateCmd(t)

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	publisher := new(MockTaskPublisher)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Add", ctx, mock.AnythingOfType("*order.Order")).Return(errors.New("add error")).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateOrderCommandHandler(factory, publisher)
	created, err := h.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrPersistence)
	assert.Nil(t, created)
	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
	publisher.AssertNotCalled(t, "PublishProcessOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderCommandHandler_Handle_CommitError(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateCmd(t)

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	publisher := new(MockTaskPublisher)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Add", ctx, mock.AnythingOfType("*order.Order")).Run(assignID(7)).Return(nil).Once(),
		uow.On("Commit", ctx).Return(errors.New("commit error")).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateOrderCommandHandler(factory, publisher)
	_, err := h.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrPersistence)
	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
	publisher.AssertNotCalled(t, "PublishProcessOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderCommandHandler_Handle_PublishError(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateCmd(t)

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	publisher := new(MockTaskPublisher)
	brokerErr := errors.New("channel closed")
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Add", ctx, mock.AnythingOfType("*order.Order")).Run(assignID(9)).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		publisher.On("PublishProcessOrder", ctx, int64(9)).Return(brokerErr).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateOrderCommandHandler(factory, publisher)
	created, err := h.Handle(ctx, cmd)
	require.ErrorIs(t, err, commands.ErrTaskNotPublished)
	require.ErrorIs(t, err, brokerErr)
	require.NotNil(t, created)
	assert.Equal(t, int64(9), created.ID())
	publisher.AssertExpectations(t)
}
