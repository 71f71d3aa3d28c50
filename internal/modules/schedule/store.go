// README: Schedule store interface.
package schedule

import (
	"context"
	"time"

	"fleet/internal/types"
)

type Store interface {
	// SlotFor returns the slot for date+shift+line, or (nil, nil) when
	// no slot is planned.
	SlotFor(ctx context.Context, date time.Time, shift, line string) (*Slot, error)

	// SlotsOn returns every slot planned for the given day.
	SlotsOn(ctx context.Context, date time.Time) ([]Slot, error)

	// SetSlotDriver upserts the day-specific driver override.
	SetSlotDriver(ctx context.Context, date time.Time, shift, line string, driverID *types.ID) error

	// AssignmentFor returns the line assignment active on date, or
	// (nil, nil) when the line has no active default driver.
	AssignmentFor(ctx context.Context, line string, date time.Time) (*LineAssignment, error)

	// ReassignLine end-dates the currently open assignment for line at
	// the day before `from` and opens a new one starting at `from`.
	ReassignLine(ctx context.Context, line string, driverID types.ID, from time.Time) error
}
