// README: Dispatch store interface and the collaborator boundaries the engine consumes.
package dispatch

import (
	"context"
	"time"

	"fleet/internal/modules/fleet"
	"fleet/internal/modules/schedule"
	"fleet/internal/modules/trip"
	"fleet/internal/types"
)

type Store interface {
	Get(ctx context.Context, id types.ID) (*Dispatch, error)
	// ByTripRequest returns (nil, nil) when the trip has no dispatch yet.
	ByTripRequest(ctx context.Context, tripRequestID types.ID) (*Dispatch, error)
	Create(ctx context.Context, d *Dispatch) error
	SetAssignment(ctx context.Context, id types.ID, driverID, vehicleID *types.ID, status Status) error
	SetProgress(ctx context.Context, id types.ID, status Status, odoStart, odoEnd *int) error

	// OverlappingVehicle and OverlappingDriver return active dispatches
	// whose window overlaps win for the given resource. Dispatches
	// merged under a parent are excluded: a child is not independently
	// driven, so it never conflicts on its own.
	OverlappingVehicle(ctx context.Context, vehicleID types.ID, win types.Window) ([]Dispatch, error)
	OverlappingDriver(ctx context.Context, driverID types.ID, win types.Window) ([]Dispatch, error)

	// CountForDriverOn counts active dispatches starting on the given
	// day, for load-balanced driver selection.
	CountForDriverOn(ctx context.Context, driverID types.ID, day time.Time) (int, error)

	// Within returns dispatches whose window lies entirely inside win.
	Within(ctx context.Context, win types.Window) ([]Dispatch, error)

	CreateLink(ctx context.Context, parentID, childID types.ID) error
	DeleteLink(ctx context.Context, parentID, childID types.ID) error
	LinksFrom(ctx context.Context, parentID types.ID) ([]Link, error)
	// LinkTo returns the link whose child is childID, or (nil, nil).
	LinkTo(ctx context.Context, childID types.ID) (*Link, error)

	AppendEvent(ctx context.Context, e *Event) error

	// SetTripAssignment mirrors the dispatch assignment onto the trip
	// request record. Called inside Transact so the mirror commits or
	// rolls back with the dispatch write.
	SetTripAssignment(ctx context.Context, tripRequestID types.ID, driverID, vehicleID *types.ID) error

	// Transact runs fn atomically. LockResource takes a transaction-
	// scoped exclusive lock on a resource key ("vehicle:<id>",
	// "driver:<id>") so check-then-write allocation cannot double-book.
	Transact(ctx context.Context, fn func(Store) error) error
	LockResource(ctx context.Context, key string) error
}

// TripSource is the slice of the trip store the engine needs.
type TripSource interface {
	Get(ctx context.Context, id types.ID) (*trip.Request, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to trip.Status, reason *string) (bool, error)
	HoldingVehicle(ctx context.Context, vehicleID types.ID, win types.Window, exclude types.ID) ([]trip.Request, error)
}

// VehicleSource is the slice of the fleet store the engine needs.
type VehicleSource interface {
	GetVehicle(ctx context.Context, id types.ID) (*fleet.Vehicle, error)
	ListVehicles(ctx context.Context) ([]fleet.Vehicle, error)
}

// RosterSource exposes the day's planned slots and the line assignments
// that staff slots without a per-slot override.
type RosterSource interface {
	SlotsOn(ctx context.Context, date time.Time) ([]schedule.Slot, error)
	// AssignmentFor returns the line assignment active on date, or
	// (nil, nil) when the line is unstaffed.
	AssignmentFor(ctx context.Context, line string, date time.Time) (*schedule.LineAssignment, error)
}

// DelegationSource resolves substitution. Implemented by
// delegation.Service.
type DelegationSource interface {
	EffectiveDriver(ctx context.Context, nominal types.ID, date time.Time) (types.ID, error)
	ActiveAgents(ctx context.Context, date time.Time) ([]types.ID, error)
}

// Notifier receives the assignment event after a successful
// allocation. Delivery is fire-and-forget.
type Notifier interface {
	DispatchAssigned(ctx context.Context, a Assignment)
}
