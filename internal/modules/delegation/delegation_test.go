// README: Delegation resolution and chaining-guard tests.
package delegation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fleet/internal/modules/delegation"
	"fleet/internal/store/memory"
	"fleet/internal/types"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestEffectiveDriver(t *testing.T) {
	mem := memory.New()
	svc := delegation.NewService(mem.Delegations())
	ctx := context.Background()

	_, err := svc.Create(ctx, delegation.CreateCommand{
		PrincipalID: "D7",
		AgentID:     "D9",
		Start:       day(1),
		End:         day(5),
		Reason:      "annual leave",
	})
	require.NoError(t, err)

	// Inside the range the agent works, boundaries included.
	for _, d := range []int{1, 3, 5} {
		got, err := svc.EffectiveDriver(ctx, "D7", day(d))
		require.NoError(t, err)
		require.Equal(t, types.ID("D9"), got, "day %d", d)
	}

	// Outside the range the nominal driver works.
	got, err := svc.EffectiveDriver(ctx, "D7", day(6))
	require.NoError(t, err)
	require.Equal(t, types.ID("D7"), got)

	// Other drivers are unaffected.
	got, err = svc.EffectiveDriver(ctx, "D9", day(3))
	require.NoError(t, err)
	require.Equal(t, types.ID("D9"), got)
}

func TestEffectiveDriverMostRecentWins(t *testing.T) {
	// Pre-existing data may carry overlapping delegations; seed the
	// store directly to simulate it.
	mem := memory.New()
	ctx := context.Background()

	older := &delegation.Delegation{
		ID: "old", PrincipalID: "D7", AgentID: "D9",
		Start: day(1), End: day(5),
		CreatedAt: time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC),
	}
	newer := &delegation.Delegation{
		ID: "new", PrincipalID: "D7", AgentID: "D11",
		Start: day(1), End: day(5),
		CreatedAt: time.Date(2025, 5, 25, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, mem.Delegations().Create(ctx, older))
	require.NoError(t, mem.Delegations().Create(ctx, newer))

	svc := delegation.NewService(mem.Delegations())
	got, err := svc.EffectiveDriver(ctx, "D7", day(3))
	require.NoError(t, err)
	require.Equal(t, types.ID("D11"), got)
}

func TestCreateRejectsChaining(t *testing.T) {
	mem := memory.New()
	svc := delegation.NewService(mem.Delegations())
	ctx := context.Background()

	_, err := svc.Create(ctx, delegation.CreateCommand{
		PrincipalID: "D7", AgentID: "D9", Start: day(1), End: day(5),
	})
	require.NoError(t, err)

	// The active agent cannot itself be substituted.
	_, err = svc.Create(ctx, delegation.CreateCommand{
		PrincipalID: "D9", AgentID: "D11", Start: day(3), End: day(8),
	})
	require.ErrorIs(t, err, delegation.ErrIntegrity)

	// A principal on leave cannot stand in for someone else.
	_, err = svc.Create(ctx, delegation.CreateCommand{
		PrincipalID: "D12", AgentID: "D7", Start: day(2), End: day(4),
	})
	require.ErrorIs(t, err, delegation.ErrIntegrity)

	// One substitution per principal per period.
	_, err = svc.Create(ctx, delegation.CreateCommand{
		PrincipalID: "D7", AgentID: "D11", Start: day(4), End: day(9),
	})
	require.ErrorIs(t, err, delegation.ErrIntegrity)

	// Disjoint ranges do not chain.
	_, err = svc.Create(ctx, delegation.CreateCommand{
		PrincipalID: "D9", AgentID: "D11", Start: day(10), End: day(12),
	})
	require.NoError(t, err)
}

func TestCreateValidation(t *testing.T) {
	svc := delegation.NewService(memory.New().Delegations())
	ctx := context.Background()

	_, err := svc.Create(ctx, delegation.CreateCommand{
		PrincipalID: "D7", AgentID: "D7", Start: day(1), End: day(5),
	})
	require.ErrorIs(t, err, delegation.ErrBadRequest)

	_, err = svc.Create(ctx, delegation.CreateCommand{
		PrincipalID: "D7", AgentID: "D9", Start: day(5), End: day(1),
	})
	require.ErrorIs(t, err, delegation.ErrBadRequest)

	_, err = svc.Create(ctx, delegation.CreateCommand{
		AgentID: "D9", Start: day(1), End: day(5),
	})
	require.ErrorIs(t, err, delegation.ErrBadRequest)
}

func TestActiveAgents(t *testing.T) {
	mem := memory.New()
	svc := delegation.NewService(mem.Delegations())
	ctx := context.Background()

	_, err := svc.Create(ctx, delegation.CreateCommand{
		PrincipalID: "D7", AgentID: "D9", Start: day(1), End: day(5),
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, delegation.CreateCommand{
		PrincipalID: "D12", AgentID: "D13", Start: day(4), End: day(10),
	})
	require.NoError(t, err)

	agents, err := svc.ActiveAgents(ctx, day(4))
	require.NoError(t, err)
	require.ElementsMatch(t, []types.ID{"D9", "D13"}, agents)

	agents, err = svc.ActiveAgents(ctx, day(8))
	require.NoError(t, err)
	require.Equal(t, []types.ID{"D13"}, agents)
}
