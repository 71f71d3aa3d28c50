// README: Error kinds for allocation and carpool merging.
package dispatch

import (
	"errors"
	"fmt"
)

// Unavailability is a frequent, user-facing business outcome, not a
// failure; callers render the message and may retry with other input.
var (
	ErrBadRequest        = errors.New("dispatch: bad request")
	ErrNotFound          = errors.New("dispatch: not found")
	ErrInvalidState      = errors.New("dispatch: invalid state transition")
	ErrVehicleUnavailable = errors.New("dispatch: no vehicle available")
	ErrNoDriverAvailable = errors.New("dispatch: no driver available")

	// ErrConflict means a concurrent writer booked the same driver or
	// vehicle between candidate selection and commit. Distinct from
	// unavailability so callers know to retry with fresh data.
	ErrConflict = errors.New("dispatch: concurrent assignment conflict")

	ErrCapacityExceeded  = errors.New("dispatch: vehicle capacity exceeded")
	ErrParentNotAssigned = errors.New("dispatch: parent dispatch has no vehicle")
	ErrIntegrity         = errors.New("dispatch: integrity violation")
)

// CapacityError reports how many seats actually remain so the refusal
// is actionable rather than a bare rejection.
type CapacityError struct {
	Remaining int
	Requested int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("vehicle capacity exceeded: %d seats remaining, %d requested", e.Remaining, e.Requested)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}
