package checkout

import (
	"errors"
	"fmt"
)

// Reason classifies why a checkout attempt was declined. Declined attempts
// leave every store untouched.
type Reason string

const (
	EmptyCart         Reason = "EMPTY_CART"
	UnknownProduct    Reason = "UNKNOWN_PRODUCT"
	InsufficientStock Reason = "INSUFFICIENT_STOCK"
	InsufficientFunds Reason = "INSUFFICIENT_FUNDS"
)

// ErrFatalInconsistency signals that a commit-time write found state the
// validation gate ruled out (stock or balance going negative). It means a
// writer bypassed the engine's critical section and must never be
// swallowed.
var ErrFatalInconsistency = errors.New("fatal consistency failure during commit")

// RejectedError is the terminal outcome of a declined checkout.
type RejectedError struct {
	Reason Reason
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return string(e.Reason)
}

func reject(reason Reason, format string, args ...interface{}) error {
	return &RejectedError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
