package commands

import (
	"errors"
	"fmt"
	"time"

	"orderqueue/internal/pkg/errs"
	"orderqueue/internal/pkg/guard"
)

var ErrRepublishPendingOrdersCommandIsNotConstructed = errors.New(
	"RepublishPendingOrdersCommand must be created via NewRepublishPendingOrdersCommand constructor",
)

// RepublishPendingOrdersCommand selects orders that have been Pending for at
// least olderThan, at most batchSize of them (0 means no limit).
type RepublishPendingOrdersCommand struct {
	olderThan time.Duration
	batchSize int

	guard guard.ConstructorGuard
}

func NewRepublishPendingOrdersCommand(olderThan time.Duration, batchSize int) (RepublishPendingOrdersCommand, error) {
	var ageErr, batchErr error
	if olderThan <= 0 {
		ageErr = errs.NewValueIsInvalidErrorWithCause("older than", fmt.Errorf("%s is not positive", olderThan))
	}
	if batchSize < 0 {
		batchErr = errs.NewValueIsInvalidErrorWithCause("batch size", fmt.Errorf("%d is less than 0", batchSize))
	}
	if err := errors.Join(ageErr, batchErr); err != nil {
		return RepublishPendingOrdersCommand{}, err
	}

	return RepublishPendingOrdersCommand{
		olderThan: olderThan,
		batchSize: batchSize,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c RepublishPendingOrdersCommand) Validate() error {
	return c.guard.Validate(ErrRepublishPendingOrdersCommandIsNotConstructed)
}

func (c RepublishPendingOrdersCommand) OlderThan() time.Duration {
	return c.olderThan
}

func (c RepublishPendingOrdersCommand) BatchSize() int {
	return c.batchSize
}
