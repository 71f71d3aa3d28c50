// README: Publishes dispatch-assigned events for the external notifier (push/chat-bot).
package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"fleet/internal/modules/dispatch"
)

// Publisher emits assignment events on a Redis channel. The consumer
// (push gateway, chat-bot) is external; delivery is fire-and-forget
// and failures are logged, never propagated into the allocation path.
type Publisher struct {
	redis   *redis.Client
	channel string
}

func NewPublisher(redis *redis.Client, channel string) *Publisher {
	return &Publisher{redis: redis, channel: channel}
}

type assignedPayload struct {
	TripRequestID string `json:"trip_request_id"`
	DispatchID    string `json:"dispatch_id"`
	DriverID      string `json:"driver_id"`
	VehicleID     string `json:"vehicle_id"`
}

func (p *Publisher) DispatchAssigned(ctx context.Context, a dispatch.Assignment) {
	payload, err := json.Marshal(assignedPayload{
		TripRequestID: string(a.TripRequestID),
		DispatchID:    string(a.DispatchID),
		DriverID:      string(a.DriverID),
		VehicleID:     string(a.VehicleID),
	})
	if err != nil {
		log.Printf("notify: marshal assignment: %v", err)
		return
	}
	if err := p.redis.Publish(ctx, p.channel, payload).Err(); err != nil {
		log.Printf("notify: publish assignment: %v", err)
	}
}
