package reconcile

import (
	"errors"
	"society_tickets/model"
)

var (
	// ErrNotReady means the purchase cannot be reconciled yet; polling again
	// later may succeed.
	ErrNotReady = errors.New("ticket not ready")

	// ErrConfirmationFailed means polling gave up. The buyer paid but no
	// ticket could be confirmed synchronously.
	ErrConfirmationFailed = errors.New("ticket could not be confirmed")
)

// Terminal reports whether retrying the same input can never succeed.
func Terminal(err error) bool {
	return errors.Is(err, model.ErrValidation) ||
		errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrCapacityExceeded)
}
