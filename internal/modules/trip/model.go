// README: Trip request aggregate and status definitions.
package trip

import (
	"time"

	"fleet/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Request is an employee's request to use a vehicle for a time window.
// VehicleID may be pre-selected by the requester; DriverID/VehicleID
// are otherwise filled in at allocation or carpool-merge time.
type Request struct {
	ID          types.ID
	RequesterID types.ID
	Window      types.Window
	Origin      string
	Destination string
	Passengers  int
	Status      Status
	DriverID    *types.ID
	VehicleID   *types.ID

	// Filled from the distance collaborator at creation; zero when the
	// lookup is unavailable.
	EstimatedKm  float64
	EstimatedDur time.Duration

	RejectReason *string
	CreatedAt    time.Time
}

// AllowedTransitions represents the review flow as code. Rejection and
// completion are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
