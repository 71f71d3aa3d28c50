// README: Driver and vehicle entities.
package fleet

import "fleet/internal/types"

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleInUse       VehicleStatus = "in_use"
	VehicleMaintenance VehicleStatus = "maintenance"
)

type Driver struct {
	ID   types.ID
	Name string
	// IsAgent marks drivers who only work as leave substitutes.
	IsAgent bool
}

type Vehicle struct {
	ID       types.ID
	Plate    string
	Capacity int
	Status   VehicleStatus
}
