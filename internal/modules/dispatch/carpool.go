// README: Carpool merging: attach a child trip onto a parent dispatch within seat capacity.
package dispatch

import (
	"context"
	"time"

	"fleet/internal/modules/trip"
	"fleet/internal/types"
)

// Merger folds compatible trip requests onto one dispatch so they
// share a driver and vehicle, bounded by seat capacity.
type Merger struct {
	store    Store
	trips    TripSource
	vehicles VehicleSource
}

func NewMerger(store Store, trips TripSource, vehicles VehicleSource) *Merger {
	return &Merger{store: store, trips: trips, vehicles: vehicles}
}

type MergeCommand struct {
	ParentID types.ID
	ChildID  types.ID
	ActorID  types.ID
}

// Merge links child under parent and propagates the parent's driver
// and vehicle onto the child dispatch and its trip request. Returns
// the seats remaining after the merge. Every check runs inside one
// transaction under locks on both dispatches, so concurrent merges
// cannot oversell seats, double-link a child, or chain two levels.
func (m *Merger) Merge(ctx context.Context, cmd MergeCommand) (int, error) {
	if cmd.ParentID == "" || cmd.ChildID == "" || cmd.ParentID == cmd.ChildID {
		return 0, ErrBadRequest
	}
	var remainingAfter int
	err := m.store.Transact(ctx, func(tx Store) error {
		if err := lockDispatchPair(ctx, tx, cmd.ParentID, cmd.ChildID); err != nil {
			return err
		}
		parent, err := tx.Get(ctx, cmd.ParentID)
		if err != nil {
			return err
		}
		child, err := tx.Get(ctx, cmd.ChildID)
		if err != nil {
			return err
		}
		if parent.VehicleID == nil {
			return ErrParentNotAssigned
		}
		if !parent.Window.Contains(child.Window) {
			return ErrBadRequest
		}

		// One level only: the parent must not itself ride under
		// another dispatch, and the child must not be linked already
		// or carry passengers of its own.
		if link, err := tx.LinkTo(ctx, parent.ID); err != nil {
			return err
		} else if link != nil {
			return ErrIntegrity
		}
		if link, err := tx.LinkTo(ctx, child.ID); err != nil {
			return err
		} else if link != nil {
			return ErrIntegrity
		}
		if links, err := tx.LinksFrom(ctx, child.ID); err != nil {
			return err
		} else if len(links) > 0 {
			return ErrIntegrity
		}

		remaining, err := m.remainingSeats(ctx, tx, parent)
		if err != nil {
			return err
		}
		childReq, err := m.trips.Get(ctx, child.TripRequestID)
		if err != nil {
			return err
		}
		if childReq.Passengers > remaining {
			return &CapacityError{Remaining: remaining, Requested: childReq.Passengers}
		}

		if err := tx.CreateLink(ctx, parent.ID, child.ID); err != nil {
			return err
		}
		if err := tx.SetAssignment(ctx, child.ID, parent.DriverID, parent.VehicleID, StatusAssigned); err != nil {
			return err
		}
		if err := tx.SetTripAssignment(ctx, child.TripRequestID, parent.DriverID, parent.VehicleID); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, &Event{
			DispatchID:   parent.ID,
			Action:       ActionLinkAdd,
			NewDriverID:  parent.DriverID,
			NewVehicleID: parent.VehicleID,
			ActorID:      cmd.ActorID,
			CreatedAt:    time.Now(),
		}); err != nil {
			return err
		}
		remainingAfter = remaining - childReq.Passengers
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remainingAfter, nil
}

// Unmerge detaches child from parent. The child's driver and vehicle
// are cleared, so it becomes independently dispatchable again; this is
// the only place merged capacity is returned.
func (m *Merger) Unmerge(ctx context.Context, cmd MergeCommand) error {
	if cmd.ParentID == "" || cmd.ChildID == "" {
		return ErrBadRequest
	}
	return m.store.Transact(ctx, func(tx Store) error {
		if err := lockDispatchPair(ctx, tx, cmd.ParentID, cmd.ChildID); err != nil {
			return err
		}
		link, err := tx.LinkTo(ctx, cmd.ChildID)
		if err != nil {
			return err
		}
		if link == nil || link.ParentID != cmd.ParentID {
			return ErrNotFound
		}
		parent, err := tx.Get(ctx, cmd.ParentID)
		if err != nil {
			return err
		}
		child, err := tx.Get(ctx, cmd.ChildID)
		if err != nil {
			return err
		}
		if err := tx.DeleteLink(ctx, cmd.ParentID, cmd.ChildID); err != nil {
			return err
		}
		if err := tx.SetAssignment(ctx, child.ID, nil, nil, StatusUnassigned); err != nil {
			return err
		}
		if err := tx.SetTripAssignment(ctx, child.TripRequestID, nil, nil); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, &Event{
			DispatchID:   parent.ID,
			Action:       ActionLinkRemove,
			OldDriverID:  parent.DriverID,
			OldVehicleID: parent.VehicleID,
			ActorID:      cmd.ActorID,
			CreatedAt:    time.Now(),
		})
	})
}

// Candidate is a trip that could ride along on a parent dispatch.
// RemainingAfter may be negative: over-capacity candidates stay
// visible and are rejected with a clear message at merge time rather
// than silently hidden.
type Candidate struct {
	DispatchID     types.ID
	TripRequestID  types.ID
	Passengers     int
	RemainingAfter int
}

// lockDispatchPair locks both dispatch keys in id order so two merges
// touching the same pair cannot deadlock on each other.
func lockDispatchPair(ctx context.Context, tx Store, a, b types.ID) error {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	if err := tx.LockResource(ctx, "dispatch:"+string(first)); err != nil {
		return err
	}
	return tx.LockResource(ctx, "dispatch:"+string(second))
}

// AvailableToMerge lists approved trips whose dispatch window lies
// within the parent's, that are not linked anywhere and are not
// parents themselves.
func (m *Merger) AvailableToMerge(ctx context.Context, parentID types.ID) ([]Candidate, error) {
	parent, err := m.store.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.VehicleID == nil {
		return nil, ErrParentNotAssigned
	}
	remaining, err := m.remainingSeats(ctx, m.store, parent)
	if err != nil {
		return nil, err
	}

	pool, err := m.store.Within(ctx, parent.Window)
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, d := range pool {
		if d.ID == parent.ID || d.Status == StatusCompleted || d.Status == StatusCancelled {
			continue
		}
		if link, err := m.store.LinkTo(ctx, d.ID); err != nil {
			return nil, err
		} else if link != nil {
			continue
		}
		if links, err := m.store.LinksFrom(ctx, d.ID); err != nil {
			return nil, err
		} else if len(links) > 0 {
			continue
		}
		req, err := m.trips.Get(ctx, d.TripRequestID)
		if err != nil {
			return nil, err
		}
		if req.Status != trip.StatusApproved {
			continue
		}
		out = append(out, Candidate{
			DispatchID:     d.ID,
			TripRequestID:  d.TripRequestID,
			Passengers:     req.Passengers,
			RemainingAfter: remaining - req.Passengers,
		})
	}
	return out, nil
}

// remainingSeats computes vehicle capacity minus the parent's and all
// linked children's committed passengers.
func (m *Merger) remainingSeats(ctx context.Context, st Store, parent *Dispatch) (int, error) {
	vehicle, err := m.vehicles.GetVehicle(ctx, *parent.VehicleID)
	if err != nil {
		return 0, err
	}
	parentReq, err := m.trips.Get(ctx, parent.TripRequestID)
	if err != nil {
		return 0, err
	}
	committed := parentReq.Passengers

	links, err := st.LinksFrom(ctx, parent.ID)
	if err != nil {
		return 0, err
	}
	for _, link := range links {
		child, err := st.Get(ctx, link.ChildID)
		if err != nil {
			return 0, err
		}
		childReq, err := m.trips.Get(ctx, child.TripRequestID)
		if err != nil {
			return 0, err
		}
		committed += childReq.Passengers
	}
	return vehicle.Capacity - committed, nil
}
