// README: Trip request store interface.
package trip

import (
	"context"

	"fleet/internal/types"
)

type Store interface {
	Create(ctx context.Context, r *Request) error
	Get(ctx context.Context, id types.ID) (*Request, error)

	// UpdateStatus applies from→to atomically; false means another
	// writer moved the request first.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, reason *string) (bool, error)

	// SetAssignment records the driver/vehicle serving the request.
	// Nil values clear the fields (carpool unmerge).
	SetAssignment(ctx context.Context, id types.ID, driverID, vehicleID *types.ID) error

	// HoldingVehicle returns pending or approved requests that have
	// vehicleID pre-selected and overlap win, excluding the request
	// being allocated.
	HoldingVehicle(ctx context.Context, vehicleID types.ID, win types.Window, exclude types.ID) ([]Request, error)
}
