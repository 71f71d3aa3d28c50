// README: Fleet pg store tests (run against a real Postgres).
package fleet

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fleet/internal/types"
)

func setupTestStore(t *testing.T) *PGStore {
	t.Helper()

	dsn := os.Getenv("FLEET_TEST_DSN")
	if dsn == "" {
		t.Skip("FLEET_TEST_DSN not set; skipping Postgres-backed tests")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return NewPGStore(pool)
}

func testID(prefix string) types.ID {
	return types.ID(fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano()))
}

func TestDriverRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id := testID("drv")
	if err := store.CreateDriver(ctx, &Driver{ID: id, Name: "Chen", IsAgent: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.GetDriver(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Chen" || !got.IsAgent {
		t.Fatalf("unexpected driver: %+v", got)
	}

	if _, err := store.GetDriver(ctx, testID("missing")); err != ErrNotFound {
		t.Fatalf("missing driver: got %v, want ErrNotFound", err)
	}
}

func TestVehicleStatusUpdate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id := testID("veh")
	if err := store.CreateVehicle(ctx, &Vehicle{ID: id, Plate: "XYZ-0001", Capacity: 7, Status: VehicleAvailable}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.SetVehicleStatus(ctx, id, VehicleMaintenance); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, err := store.GetVehicle(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != VehicleMaintenance {
		t.Fatalf("status = %s, want maintenance", got.Status)
	}

	if err := store.SetVehicleStatus(ctx, testID("missing"), VehicleAvailable); err != ErrNotFound {
		t.Fatalf("missing vehicle: got %v, want ErrNotFound", err)
	}
}
