package main

import (
	"errors"
	"fmt"
	"time"
)

// errWaitTimeout is returned by pollUntil when the deadline elapses before
// the condition holds. It never crosses a component boundary directly; each
// component translates it into its own typed error.
var errWaitTimeout = errors.New("wait deadline elapsed")

// errNoMatch is the immediate-lookup miss returned by Page.FindOne. Callers
// that can fall back (locator alternatives, optional fields) check for it;
// anything else from the driver is a real failure.
var errNoMatch = errors.New("no matching element")

// NotFoundError reports that a locator spec resolved to nothing within its
// deadline. Recoverable at the caller's discretion.
type NotFoundError struct {
	Target  string
	Timeout time.Duration
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: not found within %s", e.Target, e.Timeout)
}

// ParseError reports a field whose text did not match the expected shape.
// Always fatal to the current stage, never defaulted.
type ParseError struct {
	Field string
	Raw   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s from %q", e.Field, e.Raw)
}

// SelectionError reports that the required product pair could not be fully
// assembled for a category. A partial cart never proceeds to checkout.
type SelectionError struct {
	Category Category
	Missing  []string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("selection incomplete for %s: no match for %v", e.Category, e.Missing)
}

// ReconcileError reports an item count or total disagreement after the cart
// polling budget is exhausted. Both expected and observed values are carried
// so the caller can surface a precise mismatch.
type ReconcileError struct {
	ExpectedCount  int
	ObservedCount  int
	ExpectedTotal  int
	DisplayedTotal int
}

func (e *ReconcileError) Error() string {
	if e.ExpectedCount != e.ObservedCount {
		return fmt.Sprintf("cart has %d lines, expected %d", e.ObservedCount, e.ExpectedCount)
	}
	return fmt.Sprintf("cart total mismatch: lines sum to %d, page displays %d", e.ExpectedTotal, e.DisplayedTotal)
}

// FrameNotFoundError reports that no embedded frame exposing a payment field
// was found within the detection bound.
type FrameNotFoundError struct {
	Scanned int
	Timeout time.Duration
}

func (e *FrameNotFoundError) Error() string {
	return fmt.Sprintf("no payment frame among %d frame(s) within %s", e.Scanned, e.Timeout)
}

// SubmitTimeoutError reports that the success indicator never appeared after
// submission. Resolved to a definite failure, never left ambiguous.
type SubmitTimeoutError struct {
	Timeout time.Duration
}

func (e *SubmitTimeoutError) Error() string {
	return fmt.Sprintf("no payment confirmation within %s after submit", e.Timeout)
}

func isNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func isParseFailure(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
