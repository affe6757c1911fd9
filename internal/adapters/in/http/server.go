package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"orderqueue/internal/core/application/usecases/commands"
	"orderqueue/internal/core/application/usecases/queries"
	"orderqueue/internal/core/domain/model/order"
	"orderqueue/internal/core/ports"
	"orderqueue/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"
)

type CreateOrderHandler interface {
	Handle(ctx context.Context, cmd commands.CreateOrderCommand) (*order.Order, error)
}

type OrderStatusHandler interface {
	Handle(ctx context.Context, query queries.QueryOrderStatusQuery) (ports.OrderSnapshot, error)
}

type ListOrdersHandler interface {
	Handle(ctx context.Context, query queries.ListOrdersQuery) ([]ports.OrderSnapshot, error)
}

// Server handles HTTP requests by delegating to the application use cases.
type Server struct {
	// Command handlers
	createOrderHandler CreateOrderHandler

	// Query handlers
	orderStatusHandler OrderStatusHandler
	listOrdersHandler  ListOrdersHandler

	logger *zap.Logger
}

func NewServer(
	createOrderHandler CreateOrderHandler,
	orderStatusHandler OrderStatusHandler,
	listOrdersHandler ListOrdersHandler,
	logger *zap.Logger,
) *Server {
	return &Server{
		createOrderHandler: createOrderHandler,
		orderStatusHandler: orderStatusHandler,
		listOrdersHandler:  listOrdersHandler,
		logger:             logger.Named("http"),
	}
}

// RegisterRoutes mounts the API on e.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)

	v1 := e.Group("/api/v1")
	v1.POST("/orders", s.CreateOrder)
	v1.GET("/orders", s.ListOrders)
	v1.GET("/orders/:id", s.GetOrder)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// CreateOrder handles POST /api/v1/orders - persists an order and queues it
// for processing.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var newOrder NewOrder
	if err := ctx.Bind(&newOrder); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request body")
	}

	cmd, err := commands.NewCreateOrderCommand(
		newOrder.CustomerName,
		newOrder.Product,
		newOrder.Quantity,
		newOrder.Amount.String(),
	)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid order data: "+err.Error())
	}

	o, err := s.createOrderHandler.Handle(ctx.Request().Context(), cmd)
	switch {
	case err == nil:
	case errors.Is(err, commands.ErrTaskNotPublished) && o != nil:
		// the order is stored; the republish job queues it later
		s.logger.Warn("order accepted without work task", zap.Int64("order_id", o.ID()), zap.Error(err))
	case isValidation(err):
		return errorJSON(ctx, http.StatusBadRequest, "Invalid order data: "+err.Error())
	default:
		s.logger.Error("failed to create order", zap.Error(err))
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to create order")
	}

	return ctx.JSON(http.StatusCreated, toOrder(ports.NewOrderSnapshot(o)))
}

// GetOrder handles GET /api/v1/orders/:id - asks the workers for the order state.
func (s *Server) GetOrder(ctx echo.Context) error {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid order id")
	}

	query, err := queries.NewQueryOrderStatusQuery(id)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid order id")
	}

	snapshot, err := s.orderStatusHandler.Handle(ctx.Request().Context(), query)
	switch {
	case err == nil:
		return ctx.JSON(http.StatusOK, toOrder(snapshot))
	case errors.Is(err, errs.ErrObjectNotFound):
		return errorJSON(ctx, http.StatusNotFound, "Order not found")
	case errors.Is(err, errs.ErrTimeout):
		return errorJSON(ctx, http.StatusGatewayTimeout, "Order status request timed out")
	default:
		s.logger.Error("failed to query order status", zap.Int64("order_id", id), zap.Error(err))
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to retrieve order status")
	}
}

// ListOrders handles GET /api/v1/orders?status=&limit=&offset= - reads orders
// straight from the store. Without a limit (or with limit=0) every matching
// order is returned.
func (s *Server) ListOrders(ctx echo.Context) error {
	var params ListOrdersParams
	for name, dest := range map[string]any{
		"status": &params.Status,
		"limit":  &params.Limit,
		"offset": &params.Offset,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, ctx.QueryParams(), dest); err != nil {
			return errorJSON(ctx, http.StatusBadRequest, fmt.Sprintf("Invalid query parameter %s", name))
		}
	}

	query, err := queries.NewListOrdersQuery(
		deref(params.Status, ""),
		deref(params.Limit, 0),
		deref(params.Offset, 0),
	)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "Invalid query parameters: "+err.Error())
	}

	snapshots, err := s.listOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		s.logger.Error("failed to list orders", zap.Error(err))
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to retrieve orders")
	}

	response := make([]Order, len(snapshots))
	for i, snapshot := range snapshots {
		response[i] = toOrder(snapshot)
	}

	return ctx.JSON(http.StatusOK, response)
}

func deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

func errorJSON(ctx echo.Context, code int, message string) error {
	return ctx.JSON(code, Error{Code: code, Message: message})
}

func isValidation(err error) bool {
	return errors.Is(err, errs.ErrValueIsRequired) ||
		errors.Is(err, errs.ErrValueIsInvalid) ||
		errors.Is(err, errs.ErrValueIsOutOfRange)
}
