// README: In-memory store implementing every module store interface; used by tests and local dev.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fleet/internal/modules/delegation"
	"fleet/internal/modules/dispatch"
	"fleet/internal/modules/fleet"
	"fleet/internal/modules/schedule"
	"fleet/internal/modules/trip"
	"fleet/internal/types"
)

// Store backs all module stores with maps behind one mutex. Transact
// runs under a separate coarse lock, which gives the same effect the
// Postgres store gets from advisory locks: allocation check-then-write
// sequences are serialized.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	drivers  map[types.ID]fleet.Driver
	vehicles map[types.ID]fleet.Vehicle

	delegations []delegation.Delegation

	slots       map[slotKey]schedule.Slot
	assignments []schedule.LineAssignment
	nextAssign  int64

	requests map[types.ID]trip.Request

	dispatches map[types.ID]dispatch.Dispatch
	links      []dispatch.Link
	events     []dispatch.Event
	nextEvent  int64
}

type slotKey struct {
	date  string
	shift string
	line  string
}

func New() *Store {
	return &Store{
		drivers:    map[types.ID]fleet.Driver{},
		vehicles:   map[types.ID]fleet.Vehicle{},
		slots:      map[slotKey]schedule.Slot{},
		requests:   map[types.ID]trip.Request{},
		dispatches: map[types.ID]dispatch.Dispatch{},
	}
}

func (s *Store) Fleet() *FleetStore           { return &FleetStore{s} }
func (s *Store) Delegations() *DelegationStore { return &DelegationStore{s} }
func (s *Store) Schedule() *ScheduleStore     { return &ScheduleStore{s} }
func (s *Store) Trips() *TripStore            { return &TripStore{s} }
func (s *Store) Dispatches() *DispatchStore   { return &DispatchStore{s} }

// Events returns a copy of the audit log; test helper.
func (s *Store) Events() []dispatch.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dispatch.Event, len(s.events))
	copy(out, s.events)
	return out
}

var (
	_ fleet.Store      = (*FleetStore)(nil)
	_ delegation.Store = (*DelegationStore)(nil)
	_ schedule.Store   = (*ScheduleStore)(nil)
	_ trip.Store       = (*TripStore)(nil)
	_ dispatch.Store   = (*DispatchStore)(nil)
)

// ----------------------------------------------------------------------------
// Fleet

type FleetStore struct{ s *Store }

func (f *FleetStore) CreateDriver(_ context.Context, d *fleet.Driver) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.drivers[d.ID] = *d
	return nil
}

func (f *FleetStore) GetDriver(_ context.Context, id types.ID) (*fleet.Driver, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	d, ok := f.s.drivers[id]
	if !ok {
		return nil, fleet.ErrNotFound
	}
	return &d, nil
}

func (f *FleetStore) ListDrivers(_ context.Context) ([]fleet.Driver, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	out := make([]fleet.Driver, 0, len(f.s.drivers))
	for _, d := range f.s.drivers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FleetStore) CreateVehicle(_ context.Context, v *fleet.Vehicle) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.vehicles[v.ID] = *v
	return nil
}

func (f *FleetStore) GetVehicle(_ context.Context, id types.ID) (*fleet.Vehicle, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	v, ok := f.s.vehicles[id]
	if !ok {
		return nil, fleet.ErrNotFound
	}
	return &v, nil
}

func (f *FleetStore) ListVehicles(_ context.Context) ([]fleet.Vehicle, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	out := make([]fleet.Vehicle, 0, len(f.s.vehicles))
	for _, v := range f.s.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Capacity != out[j].Capacity {
			return out[i].Capacity < out[j].Capacity
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *FleetStore) SetVehicleStatus(_ context.Context, id types.ID, status fleet.VehicleStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v, ok := f.s.vehicles[id]
	if !ok {
		return fleet.ErrNotFound
	}
	v.Status = status
	f.s.vehicles[id] = v
	return nil
}

// ----------------------------------------------------------------------------
// Delegations

type DelegationStore struct{ s *Store }

func (d *DelegationStore) Create(_ context.Context, del *delegation.Delegation) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.delegations = append(d.s.delegations, *del)
	return nil
}

func (d *DelegationStore) ActiveByPrincipal(_ context.Context, driverID types.ID, date time.Time) ([]delegation.Delegation, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var out []delegation.Delegation
	for _, del := range d.s.delegations {
		if del.PrincipalID == driverID && del.ActiveOn(date) {
			out = append(out, del)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (d *DelegationStore) ActiveOn(_ context.Context, date time.Time) ([]delegation.Delegation, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var out []delegation.Delegation
	for _, del := range d.s.delegations {
		if del.ActiveOn(date) {
			out = append(out, del)
		}
	}
	return out, nil
}

func (d *DelegationStore) OverlappingByDriver(_ context.Context, driverID types.ID, start, end time.Time) ([]delegation.Delegation, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var out []delegation.Delegation
	for _, del := range d.s.delegations {
		if (del.PrincipalID == driverID || del.AgentID == driverID) && del.OverlapsRange(start, end) {
			out = append(out, del)
		}
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// Schedule

type ScheduleStore struct{ s *Store }

func key(date time.Time, shift, line string) slotKey {
	return slotKey{date: types.DateOf(date).Format("2006-01-02"), shift: shift, line: line}
}

func (sc *ScheduleStore) SlotFor(_ context.Context, date time.Time, shift, line string) (*schedule.Slot, error) {
	sc.s.mu.RLock()
	defer sc.s.mu.RUnlock()
	slot, ok := sc.s.slots[key(date, shift, line)]
	if !ok {
		return nil, nil
	}
	return &slot, nil
}

func (sc *ScheduleStore) SlotsOn(_ context.Context, date time.Time) ([]schedule.Slot, error) {
	sc.s.mu.RLock()
	defer sc.s.mu.RUnlock()
	day := types.DateOf(date).Format("2006-01-02")
	var out []schedule.Slot
	for k, slot := range sc.s.slots {
		if k.date == day {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Shift != out[j].Shift {
			return out[i].Shift < out[j].Shift
		}
		return out[i].Line < out[j].Line
	})
	return out, nil
}

func (sc *ScheduleStore) SetSlotDriver(_ context.Context, date time.Time, shift, line string, driverID *types.ID) error {
	sc.s.mu.Lock()
	defer sc.s.mu.Unlock()
	sc.s.slots[key(date, shift, line)] = schedule.Slot{
		Date:     types.DateOf(date),
		Shift:    shift,
		Line:     line,
		DriverID: driverID,
	}
	return nil
}

func (sc *ScheduleStore) AssignmentFor(_ context.Context, line string, date time.Time) (*schedule.LineAssignment, error) {
	sc.s.mu.RLock()
	defer sc.s.mu.RUnlock()
	var best *schedule.LineAssignment
	for i := range sc.s.assignments {
		a := sc.s.assignments[i]
		if a.Line != line || !a.ActiveOn(date) {
			continue
		}
		if best == nil || a.Start.After(best.Start) {
			best = &a
		}
	}
	return best, nil
}

func (sc *ScheduleStore) ReassignLine(_ context.Context, line string, driverID types.ID, from time.Time) error {
	sc.s.mu.Lock()
	defer sc.s.mu.Unlock()
	day := types.DateOf(from)
	for i := range sc.s.assignments {
		if sc.s.assignments[i].Line == line && sc.s.assignments[i].End == nil {
			end := day.AddDate(0, 0, -1)
			sc.s.assignments[i].End = &end
		}
	}
	sc.s.nextAssign++
	sc.s.assignments = append(sc.s.assignments, schedule.LineAssignment{
		ID:       sc.s.nextAssign,
		Line:     line,
		DriverID: driverID,
		Start:    day,
	})
	return nil
}

// ----------------------------------------------------------------------------
// Trip requests

type TripStore struct{ s *Store }

func (t *TripStore) Create(_ context.Context, r *trip.Request) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.requests[r.ID] = *r
	return nil
}

func (t *TripStore) Get(_ context.Context, id types.ID) (*trip.Request, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	r, ok := t.s.requests[id]
	if !ok {
		return nil, trip.ErrNotFound
	}
	return &r, nil
}

func (t *TripStore) UpdateStatus(_ context.Context, id types.ID, from, to trip.Status, reason *string) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r, ok := t.s.requests[id]
	if !ok {
		return false, trip.ErrNotFound
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	if reason != nil {
		r.RejectReason = reason
	}
	t.s.requests[id] = r
	return true, nil
}

func (t *TripStore) SetAssignment(_ context.Context, id types.ID, driverID, vehicleID *types.ID) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r, ok := t.s.requests[id]
	if !ok {
		return trip.ErrNotFound
	}
	r.DriverID = driverID
	r.VehicleID = vehicleID
	t.s.requests[id] = r
	return nil
}

func (t *TripStore) HoldingVehicle(_ context.Context, vehicleID types.ID, win types.Window, exclude types.ID) ([]trip.Request, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	var out []trip.Request
	for _, r := range t.s.requests {
		if r.ID == exclude || r.VehicleID == nil || *r.VehicleID != vehicleID {
			continue
		}
		if r.Status != trip.StatusPending && r.Status != trip.StatusApproved {
			continue
		}
		if r.Window.Overlaps(win) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// Dispatches

type DispatchStore struct{ s *Store }

func (d *DispatchStore) Transact(_ context.Context, fn func(dispatch.Store) error) error {
	d.s.txMu.Lock()
	defer d.s.txMu.Unlock()
	return fn(d)
}

// LockResource is a no-op: Transact already serializes all writers.
func (d *DispatchStore) LockResource(_ context.Context, _ string) error { return nil }

func (d *DispatchStore) Get(_ context.Context, id types.ID) (*dispatch.Dispatch, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	dp, ok := d.s.dispatches[id]
	if !ok {
		return nil, dispatch.ErrNotFound
	}
	return &dp, nil
}

func (d *DispatchStore) ByTripRequest(_ context.Context, tripRequestID types.ID) (*dispatch.Dispatch, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	for _, dp := range d.s.dispatches {
		if dp.TripRequestID == tripRequestID {
			out := dp
			return &out, nil
		}
	}
	return nil, nil
}

func (d *DispatchStore) Create(_ context.Context, dp *dispatch.Dispatch) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.dispatches[dp.ID] = *dp
	return nil
}

func (d *DispatchStore) SetAssignment(_ context.Context, id types.ID, driverID, vehicleID *types.ID, status dispatch.Status) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	dp, ok := d.s.dispatches[id]
	if !ok {
		return dispatch.ErrNotFound
	}
	dp.DriverID = driverID
	dp.VehicleID = vehicleID
	dp.Status = status
	dp.UpdatedAt = time.Now()
	d.s.dispatches[id] = dp
	return nil
}

func (d *DispatchStore) SetProgress(_ context.Context, id types.ID, status dispatch.Status, odoStart, odoEnd *int) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	dp, ok := d.s.dispatches[id]
	if !ok {
		return dispatch.ErrNotFound
	}
	dp.Status = status
	dp.OdometerStart = odoStart
	dp.OdometerEnd = odoEnd
	dp.UpdatedAt = time.Now()
	d.s.dispatches[id] = dp
	return nil
}

func (d *DispatchStore) OverlappingVehicle(_ context.Context, vehicleID types.ID, win types.Window) ([]dispatch.Dispatch, error) {
	return d.overlapping(win, func(dp dispatch.Dispatch) bool {
		return dp.VehicleID != nil && *dp.VehicleID == vehicleID
	})
}

func (d *DispatchStore) OverlappingDriver(_ context.Context, driverID types.ID, win types.Window) ([]dispatch.Dispatch, error) {
	return d.overlapping(win, func(dp dispatch.Dispatch) bool {
		return dp.DriverID != nil && *dp.DriverID == driverID
	})
}

func (d *DispatchStore) overlapping(win types.Window, match func(dispatch.Dispatch) bool) ([]dispatch.Dispatch, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var out []dispatch.Dispatch
	for _, dp := range d.s.dispatches {
		if !match(dp) {
			continue
		}
		if dp.Status != dispatch.StatusAssigned && dp.Status != dispatch.StatusEnroute {
			continue
		}
		if d.isChildLocked(dp.ID) {
			continue
		}
		if dp.Window.Overlaps(win) {
			out = append(out, dp)
		}
	}
	return out, nil
}

func (d *DispatchStore) CountForDriverOn(_ context.Context, driverID types.ID, day time.Time) (int, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	n := 0
	for _, dp := range d.s.dispatches {
		if dp.DriverID == nil || *dp.DriverID != driverID {
			continue
		}
		if dp.Status != dispatch.StatusAssigned && dp.Status != dispatch.StatusEnroute {
			continue
		}
		if d.isChildLocked(dp.ID) {
			continue
		}
		if types.SameDate(dp.Window.Start, day) {
			n++
		}
	}
	return n, nil
}

func (d *DispatchStore) Within(_ context.Context, win types.Window) ([]dispatch.Dispatch, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var out []dispatch.Dispatch
	for _, dp := range d.s.dispatches {
		if win.Contains(dp.Window) {
			out = append(out, dp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *DispatchStore) CreateLink(_ context.Context, parentID, childID types.ID) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.links = append(d.s.links, dispatch.Link{ParentID: parentID, ChildID: childID, CreatedAt: time.Now()})
	return nil
}

func (d *DispatchStore) DeleteLink(_ context.Context, parentID, childID types.ID) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	for i, l := range d.s.links {
		if l.ParentID == parentID && l.ChildID == childID {
			d.s.links = append(d.s.links[:i], d.s.links[i+1:]...)
			return nil
		}
	}
	return dispatch.ErrNotFound
}

func (d *DispatchStore) LinksFrom(_ context.Context, parentID types.ID) ([]dispatch.Link, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var out []dispatch.Link
	for _, l := range d.s.links {
		if l.ParentID == parentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (d *DispatchStore) LinkTo(_ context.Context, childID types.ID) (*dispatch.Link, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	for _, l := range d.s.links {
		if l.ChildID == childID {
			out := l
			return &out, nil
		}
	}
	return nil, nil
}

func (d *DispatchStore) SetTripAssignment(_ context.Context, tripRequestID types.ID, driverID, vehicleID *types.ID) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	r, ok := d.s.requests[tripRequestID]
	if !ok {
		return dispatch.ErrNotFound
	}
	r.DriverID = driverID
	r.VehicleID = vehicleID
	d.s.requests[tripRequestID] = r
	return nil
}

func (d *DispatchStore) AppendEvent(_ context.Context, e *dispatch.Event) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.nextEvent++
	ev := *e
	ev.ID = d.s.nextEvent
	d.s.events = append(d.s.events, ev)
	return nil
}

// isChildLocked expects s.mu held.
func (d *DispatchStore) isChildLocked(id types.ID) bool {
	for _, l := range d.s.links {
		if l.ChildID == id {
			return true
		}
	}
	return false
}
