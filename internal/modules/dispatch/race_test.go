// README: Concurrent allocation test: one vehicle, two requests, exactly one winner.
package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"fleet/internal/modules/dispatch"
	"fleet/internal/modules/trip"
	"fleet/internal/types"
)

func TestConcurrentAllocateSingleVehicle(t *testing.T) {
	e := newEnv(t)
	e.addDriver(t, "D1")
	e.addDriver(t, "D2")
	e.rosterDriver(t, "L1", "D1")
	e.rosterDriver(t, "L2", "D2")
	e.addVehicle(t, "V1", 4)
	e.addTrip(t, "R1", 2, win(9, 12), trip.StatusApproved)
	e.addTrip(t, "R2", 2, win(10, 13), trip.StatusApproved)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, id := range []string{"R1", "R2"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, err := e.alloc.Allocate(context.Background(), dispatch.AllocateCommand{
				TripRequestID: types.ID(id), Passengers: 2, ActorID: "admin",
			})
			results[i] = err
		}(i, id)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		// The loser either saw the booking during selection or hit the
		// in-transaction re-check.
		if !errors.Is(err, dispatch.ErrVehicleUnavailable) && !errors.Is(err, dispatch.ErrConflict) {
			t.Fatalf("unexpected loser error: %v", err)
		}
	}
	require.Equal(t, 1, winners)
}

func TestConcurrentMergeSameChild(t *testing.T) {
	e, parentID := carpoolEnv(t)
	e.addUnassignedDispatch(t, "DP2", "R2", 2, win(10, 11))

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.merger.Merge(context.Background(), dispatch.MergeCommand{
				ParentID: parentID, ChildID: "DP2", ActorID: "admin",
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		// The loser found the child already linked once inside the
		// transaction.
		if !errors.Is(err, dispatch.ErrIntegrity) {
			t.Fatalf("unexpected loser error: %v", err)
		}
	}
	require.Equal(t, 1, winners)

	// Exactly one link exists, whichever call won.
	links, err := e.mem.Dispatches().LinksFrom(context.Background(), parentID)
	require.NoError(t, err)
	require.Len(t, links, 1)
}
