package services

import (
	"fmt"
	"math"
	"time"

	"orderqueue/internal/pkg/errs"
)

// Retry strategy names accepted by NewRetryPolicy.
const (
	RetryImmediate   = "immediate"
	RetryFixed       = "fixed"
	RetryLinear      = "linear"
	RetryExponential = "exponential"
)

// RetryPolicy decides how long to wait before redelivering an order whose
// processing failed. attempt is the retry count after the failure was
// recorded, so the first retry is attempt 1.
//
// A zero delay means the task goes straight back to the work queue.
type RetryPolicy interface {
	Delay(attempt int) time.Duration
	Name() string
}

// NewRetryPolicy builds the policy named by strategy.
//
// Example:
//
//	policy, err := services.NewRetryPolicy("exponential", 500*time.Millisecond, time.Minute)
//	if err != nil {
//	    return err
//	}
//	delay := policy.Delay(order.Retries())
func NewRetryPolicy(strategy string, base, maxDelay time.Duration) (RetryPolicy, error) {
	if base < 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("retry base delay", fmt.Errorf("%s is negative", base))
	}
	if maxDelay > 0 && maxDelay < base {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"retry max delay", fmt.Errorf("%s is less than base delay %s", maxDelay, base))
	}

	switch strategy {
	case "", RetryImmediate:
		return ImmediatePolicy{}, nil
	case RetryFixed:
		return FixedPolicy{Interval: base}, nil
	case RetryLinear:
		return LinearPolicy{Step: base, Max: maxDelay}, nil
	case RetryExponential:
		return ExponentialPolicy{Base: base, Max: maxDelay}, nil
	default:
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"retry strategy", fmt.Errorf("%q is not one of immediate, fixed, linear, exponential", strategy))
	}
}

// ImmediatePolicy redelivers at once through the broker's native requeue.
type ImmediatePolicy struct{}

func (ImmediatePolicy) Delay(int) time.Duration { return 0 }

func (ImmediatePolicy) Name() string { return RetryImmediate }

// FixedPolicy waits the same interval before every retry.
type FixedPolicy struct {
	Interval time.Duration
}

func (p FixedPolicy) Delay(int) time.Duration { return p.Interval }

func (FixedPolicy) Name() string { return RetryFixed }

// LinearPolicy waits Step*attempt, capped at Max when Max is positive.
type LinearPolicy struct {
	Step time.Duration
	Max  time.Duration
}

func (p LinearPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return capDelay(p.Step*time.Duration(attempt), p.Max)
}

func (LinearPolicy) Name() string { return RetryLinear }

// ExponentialPolicy waits Base*2^(attempt-1), capped at Max when Max is positive.
type ExponentialPolicy struct {
	Base time.Duration
	Max  time.Duration
}

func (p ExponentialPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.Base
	for i := 1; i < attempt; i++ {
		if d > math.MaxInt64/2 || (p.Max > 0 && d >= p.Max) {
			break
		}
		d *= 2
	}
	return capDelay(d, p.Max)
}

func (ExponentialPolicy) Name() string { return RetryExponential }

func capDelay(d, maxDelay time.Duration) time.Duration {
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}
