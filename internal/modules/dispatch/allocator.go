// README: Approval-time allocation: tightest-fit vehicle, least-loaded driver, audited assignment.
package dispatch

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"fleet/internal/types"
)

// Allocator orchestrates assignment of a driver and vehicle to an
// approved trip request, and tracks trip execution afterwards.
type Allocator struct {
	store    Store
	trips    TripSource
	checker  *Checker
	notifier Notifier
}

func NewAllocator(store Store, trips TripSource, checker *Checker, notifier Notifier) *Allocator {
	return &Allocator{store: store, trips: trips, checker: checker, notifier: notifier}
}

type AllocateCommand struct {
	TripRequestID      types.ID
	Passengers         int
	PreferredVehicleID *types.ID
	ActorID            types.ID
}

// Allocate picks a vehicle and driver for the trip request's window
// and writes the dispatch. Candidate selection runs against current
// state; the write re-checks both resources under per-resource locks
// inside a transaction, so of two concurrent calls contending for the
// same vehicle or driver exactly one commits and the other gets
// ErrConflict.
func (a *Allocator) Allocate(ctx context.Context, cmd AllocateCommand) (*Assignment, error) {
	if cmd.TripRequestID == "" || cmd.Passengers <= 0 {
		return nil, ErrBadRequest
	}
	req, err := a.trips.Get(ctx, cmd.TripRequestID)
	if err != nil {
		return nil, err
	}
	win := req.Window
	if !win.Valid() {
		return nil, ErrBadRequest
	}

	vehicleID, err := a.pickVehicle(ctx, cmd, win)
	if err != nil {
		return nil, err
	}
	driverID, err := a.pickDriver(ctx, win)
	if err != nil {
		return nil, err
	}

	var assignment *Assignment
	err = a.store.Transact(ctx, func(tx Store) error {
		if err := tx.LockResource(ctx, "vehicle:"+string(vehicleID)); err != nil {
			return err
		}
		if err := tx.LockResource(ctx, "driver:"+string(driverID)); err != nil {
			return err
		}

		// A concurrent allocation may have taken either resource
		// between selection and lock acquisition.
		taken, err := tx.OverlappingVehicle(ctx, vehicleID, win)
		if err != nil {
			return err
		}
		if conflictsWith(taken, cmd.TripRequestID) {
			return ErrConflict
		}
		taken, err = tx.OverlappingDriver(ctx, driverID, win)
		if err != nil {
			return err
		}
		if conflictsWith(taken, cmd.TripRequestID) {
			return ErrConflict
		}

		existing, err := tx.ByTripRequest(ctx, cmd.TripRequestID)
		if err != nil {
			return err
		}
		now := time.Now()
		event := &Event{
			Action:       ActionAssign,
			NewDriverID:  &driverID,
			NewVehicleID: &vehicleID,
			ActorID:      cmd.ActorID,
			CreatedAt:    now,
		}
		if existing == nil {
			d := &Dispatch{
				ID:            newID(),
				TripRequestID: cmd.TripRequestID,
				DriverID:      &driverID,
				VehicleID:     &vehicleID,
				Status:        StatusAssigned,
				Window:        win,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Create(ctx, d); err != nil {
				return err
			}
			event.DispatchID = d.ID
		} else {
			event.DispatchID = existing.ID
			event.OldDriverID = existing.DriverID
			event.OldVehicleID = existing.VehicleID
			if err := tx.SetAssignment(ctx, existing.ID, &driverID, &vehicleID, StatusAssigned); err != nil {
				return err
			}
		}
		if err := tx.SetTripAssignment(ctx, cmd.TripRequestID, &driverID, &vehicleID); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, event); err != nil {
			return err
		}
		assignment = &Assignment{
			TripRequestID: cmd.TripRequestID,
			DispatchID:    event.DispatchID,
			DriverID:      driverID,
			VehicleID:     vehicleID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.notifier != nil {
		a.notifier.DispatchAssigned(ctx, *assignment)
	}
	return assignment, nil
}

// pickVehicle validates the preferred vehicle, or selects the smallest
// available vehicle that still fits the passengers, leaving larger
// vehicles free for larger trips.
func (a *Allocator) pickVehicle(ctx context.Context, cmd AllocateCommand, win types.Window) (types.ID, error) {
	if cmd.PreferredVehicleID != nil {
		v, err := a.checker.vehicles.GetVehicle(ctx, *cmd.PreferredVehicleID)
		if err != nil {
			return "", err
		}
		if v.Capacity < cmd.Passengers {
			return "", ErrVehicleUnavailable
		}
		free, err := a.checker.vehicleAvailable(ctx, a.store, v.ID, win, cmd.TripRequestID)
		if err != nil {
			return "", err
		}
		if !free {
			return "", ErrVehicleUnavailable
		}
		return v.ID, nil
	}
	candidates, err := a.checker.availableVehicles(ctx, a.store, win, cmd.Passengers, cmd.TripRequestID)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", ErrVehicleUnavailable
	}
	return candidates[0].ID, nil
}

// pickDriver returns the available driver with the fewest dispatches
// already assigned that day, ties broken by lowest id.
func (a *Allocator) pickDriver(ctx context.Context, win types.Window) (types.ID, error) {
	candidates, err := a.checker.AvailableDrivers(ctx, win)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", ErrNoDriverAvailable
	}
	day := types.DateOf(win.Start)
	best := candidates[0]
	bestCount, err := a.store.CountForDriverOn(ctx, best, day)
	if err != nil {
		return "", err
	}
	for _, id := range candidates[1:] {
		n, err := a.store.CountForDriverOn(ctx, id, day)
		if err != nil {
			return "", err
		}
		if n < bestCount {
			best, bestCount = id, n
		}
	}
	return best, nil
}

// conflictsWith reports whether any overlapping dispatch belongs to a
// different trip request. The request's own (possibly unassigned)
// dispatch never blocks its re-allocation.
func conflictsWith(overlapping []Dispatch, tripRequestID types.ID) bool {
	for _, d := range overlapping {
		if d.TripRequestID != tripRequestID {
			return true
		}
	}
	return false
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
