package errs_test

import (
	"errors"
	"testing"
	"time"

	"orderqueue/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectNotFoundError(t *testing.T) {
	t.Run("NewObjectNotFoundError", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("order", int64(42))

		assert.Equal(t, "order", err.ParamName)
		assert.Equal(t, int64(42), err.ID)
		require.NoError(t, err.Cause)
		assert.Equal(t, "object not found: order 42", err.Error())
		assert.Equal(t, errs.ErrObjectNotFound, err.Unwrap())
	})

	t.Run("NewObjectNotFoundErrorWithCause", func(t *testing.T) {
		cause := errors.New("record not found")
		err := errs.NewObjectNotFoundErrorWithCause("order", "7", cause)

		assert.Equal(t, cause, err.Cause)
		assert.Equal(t, "object not found: order 7 (cause: record not found)", err.Error())
	})
}

func TestValueIsInvalidError(t *testing.T) {
	t.Run("NewValueIsInvalidError", func(t *testing.T) {
		err := errs.NewValueIsInvalidError("quantity")

		assert.Equal(t, "quantity", err.ParamName)
		require.NoError(t, err.Cause)
		assert.Equal(t, "value is invalid: quantity", err.Error())
		assert.Equal(t, errs.ErrValueIsInvalid, err.Unwrap())
	})

	t.Run("NewValueIsInvalidErrorWithCause", func(t *testing.T) {
		cause := errors.New("0 is not greater than 0")
		err := errs.NewValueIsInvalidErrorWithCause("quantity", cause)

		assert.Equal(t, cause, err.Cause)
		assert.Equal(t, "value is invalid: quantity (cause: 0 is not greater than 0)", err.Error())
	})
}

func TestValueIsOutOfRangeError(t *testing.T) {
	t.Run("NewValueIsOutOfRangeError", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("workers", 150, 1, 64)

		assert.Equal(t, 150, err.Value)
		assert.Equal(t, 1, err.Min)
		assert.Equal(t, 64, err.Max)
		assert.Equal(t, "value is out of range: workers is 150, min value is 1, max value is 64", err.Error())
		assert.Equal(t, errs.ErrValueIsOutOfRange, err.Unwrap())
	})

	t.Run("NewValueIsOutOfRangeErrorWithCause", func(t *testing.T) {
		cause := errors.New("validation failed")
		err := errs.NewValueIsOutOfRangeErrorWithCause("score", -5, 0, 100, cause)

		assert.Equal(t, cause, err.Cause)
		assert.Contains(t, err.Error(), "(cause: validation failed)")
	})

	t.Run("sanitize function with newlines", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("text", "hello\nworld", 0, 10)
		assert.Contains(t, err.Error(), "hello world")
		assert.NotContains(t, err.Error(), "\n")
	})
}

func TestValueIsRequiredError(t *testing.T) {
	err := errs.NewValueIsRequiredError("customer_name")
	assert.Equal(t, "value is required: customer_name", err.Error())
	assert.Equal(t, errs.ErrValueIsRequired, err.Unwrap())

	cause := errors.New("blank")
	withCause := errs.NewValueIsRequiredErrorWithCause("product", cause)
	assert.Equal(t, "value is required: product (cause: blank)", withCause.Error())
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("connection refused")
	err := errs.NewPersistenceError("commit", cause)

	assert.Equal(t, "persistence failed: commit (cause: connection refused)", err.Error())
	require.ErrorIs(t, err, errs.ErrPersistence)
	require.ErrorIs(t, err, cause)

	bare := errs.NewPersistenceError("begin", nil)
	assert.Equal(t, "persistence failed: begin", bare.Error())
	require.ErrorIs(t, bare, errs.ErrPersistence)
}

func TestProcessingError(t *testing.T) {
	err := errs.NewProcessingError(10, errors.New("simulated failure"))

	assert.Equal(t, "processing failed: order 10 (cause: simulated failure)", err.Error())
	require.ErrorIs(t, err, errs.ErrProcessing)
}

func TestTimeoutError(t *testing.T) {
	err := errs.NewTimeoutError("order status query", 2*time.Second)

	assert.Equal(t, "operation timed out: order status query after 2s", err.Error())
	require.ErrorIs(t, err, errs.ErrTimeout)
}

func TestErrorsCanBeUnwrapped(t *testing.T) {
	t.Run("errors.Is works through fmt wrapping", func(t *testing.T) {
		wrapped := errors.Join(
			errs.NewValueIsRequiredError("product"),
			errs.NewValueIsInvalidError("amount"),
		)
		require.ErrorIs(t, wrapped, errs.ErrValueIsRequired)
		require.ErrorIs(t, wrapped, errs.ErrValueIsInvalid)
		require.NotErrorIs(t, wrapped, errs.ErrObjectNotFound)
	})

	t.Run("errors.As extracts the typed error", func(t *testing.T) {
		var target *errs.ObjectNotFoundError
		err := errors.Join(errors.New("other"), errs.NewObjectNotFoundError("order", int64(3)))

		require.ErrorAs(t, err, &target)
		assert.Equal(t, int64(3), target.ID)
	})
}
