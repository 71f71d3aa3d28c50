// README: Availability checks for vehicles and drivers over a time window.
package dispatch

import (
	"context"
	"sort"

	"fleet/internal/modules/fleet"
	"fleet/internal/types"
)

// Checker answers "is this resource free for this window". All methods
// are side-effect-free reads; unavailability is an ordinary false or
// empty result, never an error.
type Checker struct {
	store    Store
	trips    TripSource
	vehicles VehicleSource
	roster   RosterSource
	deleg    DelegationSource
}

func NewChecker(store Store, trips TripSource, vehicles VehicleSource, roster RosterSource, deleg DelegationSource) *Checker {
	return &Checker{store: store, trips: trips, vehicles: vehicles, roster: roster, deleg: deleg}
}

// VehicleAvailable reports whether the vehicle can serve win: it must
// be in service, have no overlapping dispatch of its own, and not be
// held by another trip request that pre-selected it.
func (c *Checker) VehicleAvailable(ctx context.Context, vehicleID types.ID, win types.Window) (bool, error) {
	return c.vehicleAvailable(ctx, c.store, vehicleID, win, "")
}

func (c *Checker) vehicleAvailable(ctx context.Context, st Store, vehicleID types.ID, win types.Window, excludeTrip types.ID) (bool, error) {
	v, err := c.vehicles.GetVehicle(ctx, vehicleID)
	if err != nil {
		return false, err
	}
	if v.Status != fleet.VehicleAvailable {
		return false, nil
	}
	overlapping, err := st.OverlappingVehicle(ctx, vehicleID, win)
	if err != nil {
		return false, err
	}
	if len(overlapping) > 0 {
		return false, nil
	}
	holding, err := c.trips.HoldingVehicle(ctx, vehicleID, win, excludeTrip)
	if err != nil {
		return false, err
	}
	return len(holding) == 0, nil
}

// DriverAvailable reports whether the driver has no dispatch
// overlapping win.
func (c *Checker) DriverAvailable(ctx context.Context, driverID types.ID, win types.Window) (bool, error) {
	return c.driverAvailable(ctx, c.store, driverID, win)
}

func (c *Checker) driverAvailable(ctx context.Context, st Store, driverID types.ID, win types.Window) (bool, error) {
	overlapping, err := st.OverlappingDriver(ctx, driverID, win)
	if err != nil {
		return false, err
	}
	return len(overlapping) == 0, nil
}

// AvailableDrivers returns drivers free for win: everyone on the day's
// roster (slot override or line assignment, resolved through
// delegation) plus agents actively
// substituting that day, de-duplicated by resolved id and filtered by
// DriverAvailable. Sorted by id for deterministic selection.
func (c *Checker) AvailableDrivers(ctx context.Context, win types.Window) ([]types.ID, error) {
	day := types.DateOf(win.Start)

	seen := map[types.ID]bool{}
	var candidates []types.ID

	slots, err := c.roster.SlotsOn(ctx, day)
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		nominal := slot.DriverID
		if nominal == nil {
			// No per-slot override: the slot is staffed by whoever
			// holds the line assignment that day.
			assignment, err := c.roster.AssignmentFor(ctx, slot.Line, day)
			if err != nil {
				return nil, err
			}
			if assignment == nil {
				continue
			}
			id := assignment.DriverID
			nominal = &id
		}
		effective, err := c.deleg.EffectiveDriver(ctx, *nominal, day)
		if err != nil {
			return nil, err
		}
		if !seen[effective] {
			seen[effective] = true
			candidates = append(candidates, effective)
		}
	}

	agents, err := c.deleg.ActiveAgents(ctx, day)
	if err != nil {
		return nil, err
	}
	for _, agent := range agents {
		if !seen[agent] {
			seen[agent] = true
			candidates = append(candidates, agent)
		}
	}

	var out []types.ID
	for _, id := range candidates {
		free, err := c.DriverAvailable(ctx, id, win)
		if err != nil {
			return nil, err
		}
		if free {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// AvailableVehicles returns available vehicles with capacity of at
// least minCapacity, ordered by capacity then id so the first entry is
// the tightest fit.
func (c *Checker) AvailableVehicles(ctx context.Context, win types.Window, minCapacity int) ([]fleet.Vehicle, error) {
	return c.availableVehicles(ctx, c.store, win, minCapacity, "")
}

func (c *Checker) availableVehicles(ctx context.Context, st Store, win types.Window, minCapacity int, excludeTrip types.ID) ([]fleet.Vehicle, error) {
	all, err := c.vehicles.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	var out []fleet.Vehicle
	for _, v := range all {
		if v.Capacity < minCapacity {
			continue
		}
		free, err := c.vehicleAvailable(ctx, st, v.ID, win, excludeTrip)
		if err != nil {
			return nil, err
		}
		if free {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Capacity != out[j].Capacity {
			return out[i].Capacity < out[j].Capacity
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
