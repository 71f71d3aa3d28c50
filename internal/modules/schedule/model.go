// README: Duty roster entities: per-day slots and historical line assignments.
package schedule

import (
	"time"

	"fleet/internal/types"
)

// Slot is the planned duty for one date + shift + line. DriverID is a
// day-specific override; nil means the line's standing assignment
// applies.
type Slot struct {
	Date     time.Time
	Shift    string
	Line     string
	DriverID *types.ID
}

// LineAssignment maps a line to its default driver over a date range.
// When a line's driver changes the old row is end-dated, never
// deleted, so historical slots still resolve correctly.
type LineAssignment struct {
	ID       int64
	Line     string
	DriverID types.ID
	Start    time.Time
	End      *time.Time // nil = open-ended
}

// ActiveOn reports whether the assignment covers the given day.
func (a LineAssignment) ActiveOn(date time.Time) bool {
	day := types.DateOf(date)
	if day.Before(types.DateOf(a.Start)) {
		return false
	}
	return a.End == nil || !day.After(types.DateOf(*a.End))
}
