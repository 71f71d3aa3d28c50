// README: Trip request lifecycle tests.
package trip_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet/internal/modules/trip"
	"fleet/internal/store/memory"
	"fleet/internal/types"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to trip.Status
		want     bool
	}{
		{trip.StatusPending, trip.StatusApproved, true},
		{trip.StatusPending, trip.StatusRejected, true},
		{trip.StatusApproved, trip.StatusCompleted, true},
		{trip.StatusPending, trip.StatusCompleted, false},
		{trip.StatusApproved, trip.StatusRejected, false},
		{trip.StatusRejected, trip.StatusApproved, false},
		{trip.StatusCompleted, trip.StatusApproved, false},
		{trip.StatusApproved, trip.StatusApproved, false},
	}
	for _, c := range cases {
		if got := trip.CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func window(t *testing.T) types.Window {
	t.Helper()
	start := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	return types.Window{Start: start, End: start.Add(3 * time.Hour)}
}

func TestCreateValidation(t *testing.T) {
	svc := trip.NewService(memory.New().Trips(), nil)
	ctx := context.Background()

	cases := []trip.CreateCommand{
		{RequesterID: "", Passengers: 2, Window: window(t)},
		{RequesterID: "u1", Passengers: 0, Window: window(t)},
		{RequesterID: "u1", Passengers: 2},
	}
	for i, cmd := range cases {
		if _, err := svc.Create(ctx, cmd); !errors.Is(err, trip.ErrBadRequest) {
			t.Errorf("case %d: got %v, want ErrBadRequest", i, err)
		}
	}
}

type fixedEstimator struct {
	km  float64
	dur time.Duration
	err error
}

func (f fixedEstimator) Estimate(context.Context, string, string) (float64, time.Duration, error) {
	return f.km, f.dur, f.err
}

func TestCreateStampsEstimate(t *testing.T) {
	svc := trip.NewService(memory.New().Trips(), fixedEstimator{km: 12.5, dur: 25 * time.Minute})
	ctx := context.Background()

	id, err := svc.Create(ctx, trip.CreateCommand{
		RequesterID: "u1",
		Window:      window(t),
		Origin:      "HQ",
		Destination: "Airport",
		Passengers:  2,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	r, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r.EstimatedKm != 12.5 || r.EstimatedDur != 25*time.Minute {
		t.Fatalf("estimate not stamped: km=%v dur=%v", r.EstimatedKm, r.EstimatedDur)
	}
}

func TestCreateSurvivesEstimateFailure(t *testing.T) {
	svc := trip.NewService(memory.New().Trips(), fixedEstimator{err: errors.New("quota")})
	ctx := context.Background()

	id, err := svc.Create(ctx, trip.CreateCommand{
		RequesterID: "u1",
		Window:      window(t),
		Origin:      "HQ",
		Destination: "Airport",
		Passengers:  2,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	r, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r.EstimatedKm != 0 {
		t.Fatalf("expected zero estimate on failure, got %v", r.EstimatedKm)
	}
}

func TestReviewFlow(t *testing.T) {
	svc := trip.NewService(memory.New().Trips(), nil)
	ctx := context.Background()

	id, err := svc.Create(ctx, trip.CreateCommand{RequesterID: "u1", Window: window(t), Passengers: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Approve(ctx, id); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := svc.Approve(ctx, id); !errors.Is(err, trip.ErrInvalidState) {
		t.Fatalf("second Approve: got %v, want ErrInvalidState", err)
	}
	if err := svc.Reject(ctx, id, "late"); !errors.Is(err, trip.ErrInvalidState) {
		t.Fatalf("Reject after approve: got %v, want ErrInvalidState", err)
	}
	if err := svc.Complete(ctx, id); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	r, _ := svc.Get(ctx, id)
	if r.Status != trip.StatusCompleted {
		t.Fatalf("status = %s, want completed", r.Status)
	}
}

func TestRejectKeepsReason(t *testing.T) {
	svc := trip.NewService(memory.New().Trips(), nil)
	ctx := context.Background()

	id, err := svc.Create(ctx, trip.CreateCommand{RequesterID: "u1", Window: window(t), Passengers: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Reject(ctx, id, "no budget"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	r, _ := svc.Get(ctx, id)
	if r.Status != trip.StatusRejected {
		t.Fatalf("status = %s, want rejected", r.Status)
	}
	if r.RejectReason == nil || *r.RejectReason != "no budget" {
		t.Fatalf("reason = %v, want no budget", r.RejectReason)
	}
}

func TestGetMissing(t *testing.T) {
	svc := trip.NewService(memory.New().Trips(), nil)
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, trip.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
