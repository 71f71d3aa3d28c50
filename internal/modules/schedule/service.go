// README: Schedule service resolves who staffs a slot: day override, then line roster, then nobody.
package schedule

import (
	"context"
	"errors"
	"time"

	"fleet/internal/types"
)

var ErrBadRequest = errors.New("schedule: bad request")

// DelegationResolver maps a nominal driver to whoever actually works
// that day. Implemented by delegation.Service.
type DelegationResolver interface {
	EffectiveDriver(ctx context.Context, nominal types.ID, date time.Time) (types.ID, error)
}

type Service struct {
	store Store
	deleg DelegationResolver
}

func NewService(store Store, deleg DelegationResolver) *Service {
	return &Service{store: store, deleg: deleg}
}

// DriverForSlot resolves the driver who should staff date+shift+line.
// Precedence: explicit slot override, else the line assignment active
// that day, else nil. The resolved id is always passed through the
// delegation resolver so leave substitution is transparent to callers.
func (s *Service) DriverForSlot(ctx context.Context, date time.Time, shift, line string) (*types.ID, error) {
	nominal, err := s.nominalDriver(ctx, date, shift, line)
	if err != nil || nominal == nil {
		return nil, err
	}
	effective, err := s.deleg.EffectiveDriver(ctx, *nominal, date)
	if err != nil {
		return nil, err
	}
	return &effective, nil
}

func (s *Service) nominalDriver(ctx context.Context, date time.Time, shift, line string) (*types.ID, error) {
	slot, err := s.store.SlotFor(ctx, date, shift, line)
	if err != nil {
		return nil, err
	}
	if slot != nil && slot.DriverID != nil {
		return slot.DriverID, nil
	}
	assignment, err := s.store.AssignmentFor(ctx, line, date)
	if err != nil {
		return nil, err
	}
	if assignment != nil {
		id := assignment.DriverID
		return &id, nil
	}
	return nil, nil
}

type SetSlotCommand struct {
	Date     time.Time
	Shift    string
	Line     string
	DriverID *types.ID // nil clears the override
}

func (s *Service) SetSlotDriver(ctx context.Context, cmd SetSlotCommand) error {
	if cmd.Shift == "" || cmd.Line == "" || cmd.Date.IsZero() {
		return ErrBadRequest
	}
	return s.store.SetSlotDriver(ctx, types.DateOf(cmd.Date), cmd.Shift, cmd.Line, cmd.DriverID)
}

type ReassignCommand struct {
	Line     string
	DriverID types.ID
	From     time.Time
}

// ReassignLine changes a line's default driver from a given day
// without rewriting history: the previous assignment is end-dated.
func (s *Service) ReassignLine(ctx context.Context, cmd ReassignCommand) error {
	if cmd.Line == "" || cmd.DriverID == "" || cmd.From.IsZero() {
		return ErrBadRequest
	}
	return s.store.ReassignLine(ctx, cmd.Line, cmd.DriverID, types.DateOf(cmd.From))
}
