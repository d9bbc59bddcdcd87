package service

import (
	"errors"
	"fmt"
)

// ErrDuplicateEvent means a concurrent delivery of the same event committed
// first. The event is handled; callers treat it as success.
var ErrDuplicateEvent = errors.New("webhook event already processed")

// NotFoundWarning is attached to a result when the event references an order
// or payment that does not exist. The event is still marked processed.
type NotFoundWarning struct {
	EventID  string
	Resource string
	Ref      string
}

func (w *NotFoundWarning) Error() string {
	return fmt.Sprintf("event %s: %s %q not found", w.EventID, w.Resource, w.Ref)
}

// AmountMismatchWarning is attached when a confirmation reports a different
// amount or currency than the order total. The order is left untouched.
type AmountMismatchWarning struct {
	EventID          string
	OrderID          uint
	ExpectedCents    int64
	ExpectedCurrency string
	GotCents         int64
	GotCurrency      string
}

func (w *AmountMismatchWarning) Error() string {
	return fmt.Sprintf("event %s: order %d expects %d %s, event carries %d %s",
		w.EventID, w.OrderID, w.ExpectedCents, w.ExpectedCurrency, w.GotCents, w.GotCurrency)
}

// StateConflictWarning is attached when a confirmation reaches an order that
// already failed or was refunded. The money moved but the order cannot follow,
// so an operator has to settle it by hand.
type StateConflictWarning struct {
	EventID string
	OrderID uint
	Status  string
}

func (w *StateConflictWarning) Error() string {
	return fmt.Sprintf("event %s: order %d is %s, confirmation not applied", w.EventID, w.OrderID, w.Status)
}

// StoreError is a transient persistence failure. Nothing was committed and the
// provider should redeliver.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
