// README: Vehicle position cache backed by Redis GEO.
package location

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"fleet/internal/types"
)

const (
	vehicleGeoKey        = "location:vehicles"
	lastSeenKeyPrefix    = "location:vehicle:"
	// Positions older than this are considered stale and dropped from
	// reads.
	lastSeenTTL = 15 * time.Minute
)

// Store holds last-known vehicle positions. It replaces the old
// process-global position map: state lives in Redis with an explicit
// lifecycle and is injected wherever positions are needed.
type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) Set(ctx context.Context, vehicleID types.ID, pos types.Point) error {
	pipe := s.redis.Pipeline()
	pipe.GeoAdd(ctx, vehicleGeoKey, &redis.GeoLocation{
		Name:      string(vehicleID),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	})
	pipe.Set(ctx, lastSeenKey(vehicleID), time.Now().UTC().Format(time.RFC3339), lastSeenTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns the last-known position and whether one is present and
// fresh.
func (s *Store) Get(ctx context.Context, vehicleID types.ID) (types.Point, bool, error) {
	if _, err := s.redis.Get(ctx, lastSeenKey(vehicleID)).Result(); err == redis.Nil {
		return types.Point{}, false, nil
	} else if err != nil {
		return types.Point{}, false, err
	}
	positions, err := s.redis.GeoPos(ctx, vehicleGeoKey, string(vehicleID)).Result()
	if err != nil {
		return types.Point{}, false, err
	}
	if len(positions) == 0 || positions[0] == nil {
		return types.Point{}, false, nil
	}
	return types.Point{Lat: positions[0].Latitude, Lng: positions[0].Longitude}, true, nil
}

// Nearby returns vehicle ids within radiusKm of p, closest first.
func (s *Store) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, vehicleGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}

func (s *Store) Remove(ctx context.Context, vehicleID types.ID) error {
	pipe := s.redis.Pipeline()
	pipe.ZRem(ctx, vehicleGeoKey, string(vehicleID))
	pipe.Del(ctx, lastSeenKey(vehicleID))
	_, err := pipe.Exec(ctx)
	return err
}

func lastSeenKey(vehicleID types.ID) string {
	return lastSeenKeyPrefix + string(vehicleID)
}
