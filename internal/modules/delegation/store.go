// README: Delegation store interface.
package delegation

import (
	"context"
	"time"

	"fleet/internal/types"
)

type Store interface {
	Create(ctx context.Context, d *Delegation) error

	// ActiveByPrincipal returns delegations whose principal is driverID
	// and whose range covers date, newest first.
	ActiveByPrincipal(ctx context.Context, driverID types.ID, date time.Time) ([]Delegation, error)

	// ActiveOn returns all delegations covering date.
	ActiveOn(ctx context.Context, date time.Time) ([]Delegation, error)

	// OverlappingByDriver returns delegations in which driverID appears
	// as principal or agent and whose range intersects [start, end].
	OverlappingByDriver(ctx context.Context, driverID types.ID, start, end time.Time) ([]Delegation, error)
}
