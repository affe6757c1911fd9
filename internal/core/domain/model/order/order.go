package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"orderqueue/internal/core/domain/model/kernel"
	"orderqueue/internal/pkg/errs"
)

// MaxNameLength bounds customer names and product descriptors.
const MaxNameLength = 100

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")

	// ErrOrderIDAlreadyAssigned is returned when the store tries to issue a second identity.
	ErrOrderIDAlreadyAssigned = errors.New("order id is already assigned")
)

// FailureOutcome tells the caller of RegisterFailure what the order expects next.
type FailureOutcome int

const (
	// RetryScheduled means the retry count was incremented and the order
	// awaits another attempt.
	RetryScheduled FailureOutcome = iota + 1

	// GaveUp means the retry budget is spent and the order is Failed.
	GaveUp
)

func (f FailureOutcome) String() string {
	switch f {
	case RetryScheduled:
		return "retry_scheduled"
	case GaveUp:
		return "gave_up"
	default:
		return "unknown"
	}
}

// Order is the aggregate root of the pipeline. It is created by the gateway in
// Pending status and mutated only by workers while they process it.
//
// Order follows these invariants:
//   - Customer name and product are non-blank and at most MaxNameLength long
//   - Quantity is positive, amount is non-negative; both are immutable
//   - Status moves forward along the state machine in Status
//   - Retries never decrease
//   - Identity is issued once, by the store, through AssignID
type Order struct {
	id           int64
	customerName string
	product      string
	quantity     int
	amount       kernel.Amount
	status       Status
	retries      int
	createdAt    time.Time
	updatedAt    time.Time

	isConstructed bool
}

// NewOrder creates a new Order instance with validation. This is the only way
// to create an order that has not been persisted yet.
//
// Parameters:
//   - customerName: Name of the ordering customer (non-blank, at most MaxNameLength)
//   - product: Product descriptor (non-blank, at most MaxNameLength)
//   - quantity: Ordered quantity (must be positive)
//   - amount: Order amount (non-negative, at most two fractional digits)
//   - now: Creation time, stored in UTC as both createdAt and updatedAt
//
// Returns:
//   - *Order: The created order if all validations pass
//   - error: Every validation failure, joined with errors.Join
//
// Example:
//
//	amount, _ := kernel.NewAmountFromString("19.99")
//	o, err := order.NewOrder("Ada", "Widget", 2, amount, time.Now())
//	if err != nil {
//	    // one or more fields are invalid
//	}
//
// The order starts in Pending status with zero retries. Its ID is 0 until
// the store issues one through AssignID.
func NewOrder(customerName, product string, quantity int, amount kernel.Amount, now time.Time) (*Order, error) {
	now = now.UTC()
	o := &Order{
		status:        Pending,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setCustomerName(customerName),
		o.setProduct(product),
		o.setQuantity(quantity),
		o.setAmount(amount),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder rebuilds an order from persisted state. It bypasses the
// lifecycle rules but still validates every field.
//
// Parameters:
//   - id: Identifier issued by the store (must be positive)
//   - customerName, product, quantity, amount: Same rules as NewOrder
//   - status: Persisted lifecycle status (must be a known Status)
//   - retries: Recorded failed attempts (must not be negative)
//   - createdAt, updatedAt: Persisted timestamps, normalised to UTC
//
// Returns:
//   - *Order: The restored order if every field is valid
//   - error: Every validation failure, joined with errors.Join
//
// Repositories call RestoreOrder when mapping rows back to aggregates;
// application code creates orders with NewOrder.
func RestoreOrder(
	id int64,
	customerName, product string,
	quantity int,
	amount kernel.Amount,
	status Status,
	retries int,
	createdAt, updatedAt time.Time,
) (*Order, error) {
	o := &Order{
		createdAt:     createdAt.UTC(),
		updatedAt:     updatedAt.UTC(),
		isConstructed: true,
	}

	var idErr, retriesErr error
	if id <= 0 {
		idErr = errs.NewValueIsInvalidErrorWithCause("id", fmt.Errorf("%d is not greater than 0", id))
	}
	if retries < 0 {
		retriesErr = errs.NewValueIsInvalidErrorWithCause("retries", fmt.Errorf("%d is less than 0", retries))
	}

	if err := errors.Join(
		idErr,
		o.setCustomerName(customerName),
		o.setProduct(product),
		o.setQuantity(quantity),
		o.setAmount(amount),
		status.Validate(),
		retriesErr,
	); err != nil {
		return nil, err
	}

	o.id = id
	o.status = status
	o.retries = retries
	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// AssignID records the identity issued by the store. It may be called once.
func (o *Order) AssignID(id int64) error {
	if id <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("id", fmt.Errorf("%d is not greater than 0", id))
	}
	if o.id != 0 {
		return ErrOrderIDAlreadyAssigned
	}
	o.id = id
	return nil
}

// ID returns the store-issued identifier, or 0 before the order is persisted.
func (o *Order) ID() int64 {
	return o.id
}

// CustomerName returns the name of the ordering customer.
func (o *Order) CustomerName() string {
	return o.customerName
}

// Product returns the product descriptor.
func (o *Order) Product() string {
	return o.product
}

// Quantity returns the ordered quantity.
func (o *Order) Quantity() int {
	return o.quantity
}

// Amount returns the order amount.
func (o *Order) Amount() kernel.Amount {
	return o.amount
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// Retries returns how many failed attempts were recorded.
func (o *Order) Retries() int {
	return o.retries
}

// CreatedAt returns the creation time in UTC.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt returns the time of the last transition in UTC.
func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// StartProcessing moves the order into Processing. Re-entering Processing is
// allowed so that a redelivered task can resume after a worker crash.
func (o *Order) StartProcessing(now time.Time) error {
	newStatus, err := o.status.StartProcessing()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.touch(now)
	return nil
}

// Complete marks a Processing order as Completed.
func (o *Order) Complete(now time.Time) error {
	newStatus, err := o.status.Complete()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.touch(now)
	return nil
}

// RegisterFailure records a failed processing attempt.
//
// This method enforces the following business rules:
//   - The order must be in Processing status
//   - While retries < maxRetries the retry count is incremented and the
//     order stays in Processing
//   - Once the budget is spent the order becomes Failed, a final state
//
// Parameters:
//   - maxRetries: How many failed attempts may be retried (must not be negative)
//   - now: Time of the failure, stamped as updatedAt
//
// Returns:
//   - RetryScheduled: the failure was counted and another attempt is expected
//   - GaveUp: the order is now Failed and retries equals maxRetries
//   - error: maxRetries is negative or the order is not in Processing
//
// Example:
//
//	outcome, err := o.RegisterFailure(3, time.Now())
//	if err != nil {
//	    // the order was not being processed
//	}
//	if outcome == order.GaveUp {
//	    // no further delivery is needed
//	}
func (o *Order) RegisterFailure(maxRetries int, now time.Time) (FailureOutcome, error) {
	if maxRetries < 0 {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"max retries", fmt.Errorf("%d is less than 0", maxRetries))
	}

	if o.status != Processing {
		return 0, invalidTransition(o.status, "register a failure")
	}

	if o.retries < maxRetries {
		o.retries++
		o.touch(now)
		return RetryScheduled, nil
	}

	newStatus, err := o.status.Fail()
	if err != nil {
		return 0, err
	}
	o.status = newStatus
	o.touch(now)
	return GaveUp, nil
}

// Requeue stamps a Pending order whose work task is being published again.
// The status does not change; updatedAt moves to now, so the order is not
// considered stale again until another full republish window has passed.
//
// Returns an error if the order is no longer Pending.
func (o *Order) Requeue(now time.Time) error {
	if o.status != Pending {
		return invalidTransition(o.status, "requeue")
	}
	o.touch(now)
	return nil
}

func (o *Order) touch(now time.Time) {
	now = now.UTC()
	if now.Before(o.updatedAt) {
		return
	}
	o.updatedAt = now
}

func (o *Order) setCustomerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("customer_name")
	}
	if len(name) > MaxNameLength {
		return errs.NewValueIsOutOfRangeError("customer_name length", len(name), 1, MaxNameLength)
	}
	o.customerName = name
	return nil
}

func (o *Order) setProduct(product string) error {
	product = strings.TrimSpace(product)
	if product == "" {
		return errs.NewValueIsRequiredError("product")
	}
	if len(product) > MaxNameLength {
		return errs.NewValueIsOutOfRangeError("product length", len(product), 1, MaxNameLength)
	}
	o.product = product
	return nil
}

func (o *Order) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	o.quantity = quantity
	return nil
}

func (o *Order) setAmount(amount kernel.Amount) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	o.amount = amount
	return nil
}
