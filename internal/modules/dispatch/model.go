// README: Dispatch aggregate, carpool links, and the append-only audit event.
package dispatch

import (
	"time"

	"fleet/internal/types"
)

type Status string

const (
	// StatusUnassigned exists when a dispatch row is created before a
	// driver/vehicle could be found, or after a carpool unmerge.
	StatusUnassigned Status = "unassigned"
	StatusAssigned   Status = "assigned"
	StatusEnroute    Status = "enroute"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Dispatch binds a trip request to an assigned driver, vehicle and
// time window, and tracks trip execution.
type Dispatch struct {
	ID            types.ID
	TripRequestID types.ID
	DriverID      *types.ID
	VehicleID     *types.ID
	Status        Status
	Window        types.Window
	OdometerStart *int
	OdometerEnd   *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Link merges a child dispatch under a parent so both trips share one
// driver and vehicle. Trees are one level deep: a child never links
// children of its own.
type Link struct {
	ParentID  types.ID
	ChildID   types.ID
	CreatedAt time.Time
}

type Action string

const (
	ActionAssign     Action = "assign"
	ActionLinkAdd    Action = "link_add"
	ActionLinkRemove Action = "link_remove"
	ActionStart      Action = "start"
	ActionComplete   Action = "complete"
)

// Event is the audit record for every assignment change. Assignment
// fields are only ever written through operations that append one of
// these, so each change stays attributable.
type Event struct {
	ID           int64
	DispatchID   types.ID
	Action       Action
	OldDriverID  *types.ID
	NewDriverID  *types.ID
	OldVehicleID *types.ID
	NewVehicleID *types.ID
	ActorID      types.ID
	CreatedAt    time.Time
}

// Assignment is the outcome of a successful allocation, also published
// to the notification collaborator.
type Assignment struct {
	TripRequestID types.ID
	DispatchID    types.ID
	DriverID      types.ID
	VehicleID     types.ID
}
