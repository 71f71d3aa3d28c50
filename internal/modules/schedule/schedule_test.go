// README: Slot resolution precedence and line reassignment tests.
package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fleet/internal/modules/delegation"
	"fleet/internal/modules/schedule"
	"fleet/internal/store/memory"
	"fleet/internal/types"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func newService(mem *memory.Store) *schedule.Service {
	return schedule.NewService(mem.Schedule(), delegation.NewService(mem.Delegations()))
}

func TestDriverForSlotPrecedence(t *testing.T) {
	mem := memory.New()
	svc := newService(mem)
	ctx := context.Background()

	// Nothing planned: nobody staffs the slot.
	got, err := svc.DriverForSlot(ctx, day(3), "morning", "L1")
	require.NoError(t, err)
	require.Nil(t, got)

	// Line default applies when no override exists.
	require.NoError(t, svc.ReassignLine(ctx, schedule.ReassignCommand{
		Line: "L1", DriverID: "D7", From: day(1),
	}))
	got, err = svc.DriverForSlot(ctx, day(3), "morning", "L1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, types.ID("D7"), *got)

	// A day-specific override beats the line default.
	override := types.ID("D8")
	require.NoError(t, svc.SetSlotDriver(ctx, schedule.SetSlotCommand{
		Date: day(3), Shift: "morning", Line: "L1", DriverID: &override,
	}))
	got, err = svc.DriverForSlot(ctx, day(3), "morning", "L1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, types.ID("D8"), *got)

	// Other days keep the default.
	got, err = svc.DriverForSlot(ctx, day(4), "morning", "L1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, types.ID("D7"), *got)
}

func TestDriverForSlotDelegation(t *testing.T) {
	mem := memory.New()
	delegSvc := delegation.NewService(mem.Delegations())
	svc := schedule.NewService(mem.Schedule(), delegSvc)
	ctx := context.Background()

	require.NoError(t, svc.ReassignLine(ctx, schedule.ReassignCommand{
		Line: "L1", DriverID: "D7", From: day(1),
	}))
	_, err := delegSvc.Create(ctx, delegation.CreateCommand{
		PrincipalID: "D7", AgentID: "D9", Start: day(1), End: day(5),
	})
	require.NoError(t, err)

	// Leave substitution is transparent: the slot resolves to the agent.
	got, err := svc.DriverForSlot(ctx, day(3), "morning", "L1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, types.ID("D9"), *got)

	got, err = svc.DriverForSlot(ctx, day(6), "morning", "L1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, types.ID("D7"), *got)
}

func TestReassignLineEndDatesPrevious(t *testing.T) {
	mem := memory.New()
	svc := newService(mem)
	ctx := context.Background()

	require.NoError(t, svc.ReassignLine(ctx, schedule.ReassignCommand{
		Line: "L1", DriverID: "D7", From: day(1),
	}))
	require.NoError(t, svc.ReassignLine(ctx, schedule.ReassignCommand{
		Line: "L1", DriverID: "D8", From: day(10),
	}))

	got, err := svc.DriverForSlot(ctx, day(5), "morning", "L1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, types.ID("D7"), *got, "history preserved")

	got, err = svc.DriverForSlot(ctx, day(10), "morning", "L1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, types.ID("D8"), *got, "new default from the start day")

	got, err = svc.DriverForSlot(ctx, day(9), "morning", "L1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, types.ID("D7"), *got, "day before the switch")
}

func TestCommandValidation(t *testing.T) {
	svc := newService(memory.New())
	ctx := context.Background()

	require.ErrorIs(t, svc.SetSlotDriver(ctx, schedule.SetSlotCommand{
		Shift: "morning", Line: "L1",
	}), schedule.ErrBadRequest)
	require.ErrorIs(t, svc.ReassignLine(ctx, schedule.ReassignCommand{
		Line: "L1", From: day(1),
	}), schedule.ErrBadRequest)
}
