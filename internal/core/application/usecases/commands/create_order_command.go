package commands

import (
	"errors"
	"fmt"
	"strings"

	"orderqueue/internal/core/domain/model/kernel"
	"orderqueue/internal/pkg/errs"
	"orderqueue/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand carries the fields a client submits for a new order.
// Amount arrives as text so that precision is never lost on the way in.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand("Ada Lovelace", "Analytical Engine", 1, "1999.90")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	created, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	customerName string
	product      string
	quantity     int
	amount       kernel.Amount

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates every field and reports all problems together.
func NewCreateOrderCommand(customerName, product string, quantity int, amount string) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setCustomerName(customerName),
		cmd.setProduct(product),
		cmd.setQuantity(quantity),
		cmd.setAmount(amount),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) CustomerName() string {
	return c.customerName
}

func (c CreateOrderCommand) Product() string {
	return c.product
}

func (c CreateOrderCommand) Quantity() int {
	return c.quantity
}

func (c CreateOrderCommand) Amount() kernel.Amount {
	return c.amount
}

func (c *CreateOrderCommand) setCustomerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.NewValueIsRequiredError("customer_name")
	}

	c.customerName = name
	return nil
}

func (c *CreateOrderCommand) setProduct(product string) error {
	if strings.TrimSpace(product) == "" {
		return errs.NewValueIsRequiredError("product")
	}

	c.product = product
	return nil
}

func (c *CreateOrderCommand) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}

	c.quantity = quantity
	return nil
}

func (c *CreateOrderCommand) setAmount(amount string) error {
	if strings.TrimSpace(amount) == "" {
		return errs.NewValueIsRequiredError("amount")
	}

	a, err := kernel.NewAmountFromString(strings.TrimSpace(amount))
	if err != nil {
		return err
	}

	c.amount = a
	return nil
}
