package order

import (
	"fmt"

	"orderqueue/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
// Values are lower-case strings so they can be persisted and sent over the
// wire as-is.
//
// State transitions:
//
//	Pending ──> Processing ──┬──> Completed
//	               │   ^     │
//	               └───┘     └──> Failed
//	       (retry or redelivery)
type Status string

const (
	// Pending is the only initial status. The order is persisted and its work
	// task is queued.
	Pending Status = "pending"

	// Processing means a worker picked the order up. It stays here between
	// retries.
	Processing Status = "processing"

	// Completed means the processing routine succeeded. Terminal.
	Completed Status = "completed"

	// Failed means every allowed attempt failed. Terminal.
	Failed Status = "failed"
)

// Statuses lists every valid status in lifecycle order.
func Statuses() []Status {
	return []Status{Pending, Processing, Completed, Failed}
}

// ParseStatus converts a persisted or wire value into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if err := status.Validate(); err != nil {
		return "", err
	}
	return status, nil
}

// Validate checks that s is one of the known statuses.
func (s Status) Validate() error {
	switch s {
	case Pending, Processing, Completed, Failed:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", string(s)))
	}
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Failed
}

// StartProcessing transitions the status to Processing.
//
// Valid transitions:
//   - Pending -> Processing (first delivery)
//   - Processing -> Processing (retry, or redelivery after a worker crash)
func (s Status) StartProcessing() (Status, error) {
	if s != Pending && s != Processing {
		return "", invalidTransition(s, "start processing")
	}
	return Processing, nil
}

// Complete transitions Processing -> Completed.
func (s Status) Complete() (Status, error) {
	if s != Processing {
		return "", invalidTransition(s, "complete")
	}
	return Completed, nil
}

// Fail transitions Processing -> Failed.
func (s Status) Fail() (Status, error) {
	if s != Processing {
		return "", invalidTransition(s, "fail")
	}
	return Failed, nil
}

func invalidTransition(s Status, action string) error {
	return errs.NewValueIsInvalidErrorWithCause(
		"status",
		fmt.Errorf("%s is not a valid status to %s", s, action),
	)
}
