// README: Fleet store interface; drivers and vehicles are admin-maintained reference data.
package fleet

import (
	"context"
	"errors"

	"fleet/internal/types"
)

var ErrNotFound = errors.New("fleet: not found")

type Store interface {
	CreateDriver(ctx context.Context, d *Driver) error
	GetDriver(ctx context.Context, id types.ID) (*Driver, error)
	ListDrivers(ctx context.Context) ([]Driver, error)

	CreateVehicle(ctx context.Context, v *Vehicle) error
	GetVehicle(ctx context.Context, id types.ID) (*Vehicle, error)
	// ListVehicles returns vehicles ordered by capacity then id, so
	// tightest-fit selection can take the first eligible entry.
	ListVehicles(ctx context.Context) ([]Vehicle, error)
	SetVehicleStatus(ctx context.Context, id types.ID, status VehicleStatus) error
}
