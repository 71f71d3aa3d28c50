// README: Location service validates and forwards vehicle position updates.
package location

import (
	"context"
	"errors"

	"fleet/internal/types"
)

var ErrBadRequest = errors.New("location: bad request")

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

type Update struct {
	VehicleID types.ID
	Position  types.Point
}

func (s *Service) Update(ctx context.Context, u Update) error {
	if u.VehicleID == "" {
		return ErrBadRequest
	}
	if u.Position.Lat < -90 || u.Position.Lat > 90 || u.Position.Lng < -180 || u.Position.Lng > 180 {
		return ErrBadRequest
	}
	return s.store.Set(ctx, u.VehicleID, u.Position)
}

func (s *Service) Position(ctx context.Context, vehicleID types.ID) (types.Point, bool, error) {
	if vehicleID == "" {
		return types.Point{}, false, ErrBadRequest
	}
	return s.store.Get(ctx, vehicleID)
}

func (s *Service) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	if radiusKm <= 0 {
		return nil, ErrBadRequest
	}
	return s.store.Nearby(ctx, p, radiusKm)
}
