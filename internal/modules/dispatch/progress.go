// README: Trip execution: odometer capture and status progression.
package dispatch

import (
	"context"
	"time"

	"fleet/internal/modules/trip"
	"fleet/internal/types"
)

type StartCommand struct {
	DispatchID types.ID
	Odometer   int
	ActorID    types.ID
}

// StartTrip records the departure odometer and moves the dispatch to
// enroute.
func (a *Allocator) StartTrip(ctx context.Context, cmd StartCommand) error {
	d, err := a.store.Get(ctx, cmd.DispatchID)
	if err != nil {
		return err
	}
	if d.Status != StatusAssigned {
		return ErrInvalidState
	}
	if cmd.Odometer < 0 {
		return ErrBadRequest
	}
	odo := cmd.Odometer
	if err := a.store.SetProgress(ctx, d.ID, StatusEnroute, &odo, nil); err != nil {
		return err
	}
	return a.store.AppendEvent(ctx, &Event{
		DispatchID: d.ID,
		Action:     ActionStart,
		ActorID:    cmd.ActorID,
		CreatedAt:  time.Now(),
	})
}

type FinishCommand struct {
	DispatchID types.ID
	Odometer   int
	ActorID    types.ID
}

// FinishTrip records the return odometer, completes the dispatch and
// its trip request, and completes any carpool children riding along.
func (a *Allocator) FinishTrip(ctx context.Context, cmd FinishCommand) error {
	d, err := a.store.Get(ctx, cmd.DispatchID)
	if err != nil {
		return err
	}
	if d.Status != StatusEnroute {
		return ErrInvalidState
	}
	if d.OdometerStart != nil && cmd.Odometer < *d.OdometerStart {
		return ErrBadRequest
	}
	odo := cmd.Odometer
	if err := a.store.SetProgress(ctx, d.ID, StatusCompleted, d.OdometerStart, &odo); err != nil {
		return err
	}
	if err := a.completeRequest(ctx, d.TripRequestID); err != nil {
		return err
	}

	links, err := a.store.LinksFrom(ctx, d.ID)
	if err != nil {
		return err
	}
	for _, link := range links {
		child, err := a.store.Get(ctx, link.ChildID)
		if err != nil {
			return err
		}
		if err := a.store.SetProgress(ctx, child.ID, StatusCompleted, child.OdometerStart, child.OdometerEnd); err != nil {
			return err
		}
		if err := a.completeRequest(ctx, child.TripRequestID); err != nil {
			return err
		}
	}

	return a.store.AppendEvent(ctx, &Event{
		DispatchID: d.ID,
		Action:     ActionComplete,
		ActorID:    cmd.ActorID,
		CreatedAt:  time.Now(),
	})
}

func (a *Allocator) completeRequest(ctx context.Context, tripRequestID types.ID) error {
	// Tolerate requests already moved on; execution must not wedge on
	// review-state races.
	_, err := a.trips.UpdateStatus(ctx, tripRequestID, trip.StatusApproved, trip.StatusCompleted, nil)
	return err
}
