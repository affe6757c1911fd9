package commands_test

import (
	"testing"

	"orderqueue/internal/core/application/usecases/commands"
	"orderqueue/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreateOrderCommand_ValidInput(t *testing.T) {
	cmd, err := commands.NewCreateOrderCommand("Ada", "Widget", 3, "19.99")
	require.NoError(t, err)
	require.NoError(t, cmd.Validate())
	assert.Equal(t, "Ada", cmd.CustomerName())
	assert.Equal(t, "Widget", cmd.Product())
	assert.Equal(t, 3, cmd.Quantity())
	assert.Equal(t, "19.99", cmd.Amount().String())
}

func TestNewCreateOrderCommand_MissingFields(t *testing.T) {
	_, err := commands.NewCreateOrderCommand(" ", "", 1, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	assert.Contains(t, err.Error(), "customer_name")
	assert.Contains(t, err.Error(), "product")
	assert.Contains(t, err.Error(), "amount")
}

func TestNewCreateOrderCommand_InvalidQuantity(t *testing.T) {
	_, err := commands.NewCreateOrderCommand("Ada", "Widget", 0, "1.00")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	assert.Contains(t, err.Error(), "quantity")
}

func TestNewCreateOrderCommand_InvalidAmount(t *testing.T) {
	tests := map[string]string{
		"not a number": "abc",
		"negative":     "-1.00",
		"too precise":  "1.001",
	}

	for name, amount := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := commands.NewCreateOrderCommand("Ada", "Widget", 1, amount)
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
		})
	}
}

func TestCreateOrderCommand_ZeroValueIsNotConstructed(t *testing.T) {
	err := commands.CreateOrderCommand{}.Validate()
	require.ErrorIs(t, err, commands.ErrCreateOrderCommandIsNotConstructed)
}
