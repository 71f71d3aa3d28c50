// README: Trip request service: creation with distance estimate, review transitions.
package trip

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"fleet/internal/types"
)

var (
	ErrBadRequest   = errors.New("trip: bad request")
	ErrNotFound     = errors.New("trip: request not found")
	ErrInvalidState = errors.New("trip: invalid state transition")
	ErrConflict     = errors.New("trip: request state conflict")
)

// Estimator is the distance/ETA collaborator. Implemented by
// maps.RouteService; nil disables estimation.
type Estimator interface {
	Estimate(ctx context.Context, origin, destination string) (km float64, dur time.Duration, err error)
}

type Service struct {
	store Store
	est   Estimator
}

func NewService(store Store, est Estimator) *Service {
	return &Service{store: store, est: est}
}

type CreateCommand struct {
	RequesterID types.ID
	Window      types.Window
	Origin      string
	Destination string
	Passengers  int
	VehicleID   *types.ID // optional pre-selection
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.RequesterID == "" || cmd.Passengers <= 0 || !cmd.Window.Valid() {
		return "", ErrBadRequest
	}

	r := &Request{
		ID:          newID(),
		RequesterID: cmd.RequesterID,
		Window:      cmd.Window,
		Origin:      cmd.Origin,
		Destination: cmd.Destination,
		Passengers:  cmd.Passengers,
		Status:      StatusPending,
		VehicleID:   cmd.VehicleID,
		CreatedAt:   time.Now(),
	}
	if s.est != nil && cmd.Origin != "" && cmd.Destination != "" {
		// Estimate failures leave the fields zero; the request is
		// still serviceable.
		if km, dur, err := s.est.Estimate(ctx, cmd.Origin, cmd.Destination); err == nil {
			r.EstimatedKm = km
			r.EstimatedDur = dur
		} else {
			log.Printf("trip: distance estimate failed: %v", err)
		}
	}
	if err := s.store.Create(ctx, r); err != nil {
		return "", err
	}
	return r.ID, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Request, error) {
	return s.store.Get(ctx, id)
}

// Approve advances a pending request. Allocation is a separate call so
// a failed allocation can be retried without re-reviewing.
func (s *Service) Approve(ctx context.Context, id types.ID) error {
	return s.transition(ctx, id, StatusApproved, nil)
}

func (s *Service) Reject(ctx context.Context, id types.ID, reason string) error {
	return s.transition(ctx, id, StatusRejected, &reason)
}

func (s *Service) Complete(ctx context.Context, id types.ID) error {
	return s.transition(ctx, id, StatusCompleted, nil)
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status, reason *string) error {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(r.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, id, r.Status, to, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
