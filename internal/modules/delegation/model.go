// README: Date-ranged principal-to-agent driver substitution.
package delegation

import (
	"time"

	"fleet/internal/types"
)

// Delegation substitutes an agent driver for a principal who is on
// leave between Start and End (inclusive, date-only). Delegations are
// never deleted; they expire past End.
type Delegation struct {
	ID          types.ID
	PrincipalID types.ID
	AgentID     types.ID
	Start       time.Time
	End         time.Time
	Reason      string
	CreatedAt   time.Time
}

// ActiveOn reports whether the delegation covers the given day.
func (d Delegation) ActiveOn(date time.Time) bool {
	day := types.DateOf(date)
	return !day.Before(types.DateOf(d.Start)) && !day.After(types.DateOf(d.End))
}

// OverlapsRange reports whether the delegation's date range intersects
// [start, end] (both inclusive, date-only).
func (d Delegation) OverlapsRange(start, end time.Time) bool {
	return !types.DateOf(d.Start).After(types.DateOf(end)) &&
		!types.DateOf(start).After(types.DateOf(d.End))
}
