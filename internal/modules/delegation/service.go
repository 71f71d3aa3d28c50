// README: Delegation service resolves effective drivers and guards against chained substitution.
package delegation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"fleet/internal/types"
)

var (
	ErrBadRequest = errors.New("delegation: bad request")
	ErrIntegrity  = errors.New("delegation: chained substitution")
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	PrincipalID types.ID
	AgentID     types.ID
	Start       time.Time
	End         time.Time
	Reason      string
}

// Create records a substitution for an approved leave. It enforces
// that neither party is already on the other side of an overlapping
// delegation, so an agent can never itself be substituted.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.PrincipalID == "" || cmd.AgentID == "" || cmd.PrincipalID == cmd.AgentID {
		return "", ErrBadRequest
	}
	if types.DateOf(cmd.Start).After(types.DateOf(cmd.End)) {
		return "", ErrBadRequest
	}

	for _, driverID := range []types.ID{cmd.PrincipalID, cmd.AgentID} {
		existing, err := s.store.OverlappingByDriver(ctx, driverID, cmd.Start, cmd.End)
		if err != nil {
			return "", err
		}
		for _, d := range existing {
			// New agent already covered as principal, or new principal
			// already standing in as agent: either would chain.
			if d.PrincipalID == cmd.AgentID || d.AgentID == cmd.PrincipalID {
				return "", ErrIntegrity
			}
			if d.PrincipalID == cmd.PrincipalID {
				return "", ErrIntegrity
			}
		}
	}

	d := &Delegation{
		ID:          newID(),
		PrincipalID: cmd.PrincipalID,
		AgentID:     cmd.AgentID,
		Start:       types.DateOf(cmd.Start),
		End:         types.DateOf(cmd.End),
		Reason:      cmd.Reason,
		CreatedAt:   time.Now(),
	}
	if err := s.store.Create(ctx, d); err != nil {
		return "", err
	}
	return d.ID, nil
}

// EffectiveDriver returns the driver that actually works on date when
// nominal is scheduled: the substituting agent inside an active
// delegation, otherwise nominal itself. Absence of a delegation is the
// common case, not an error.
func (s *Service) EffectiveDriver(ctx context.Context, nominal types.ID, date time.Time) (types.ID, error) {
	active, err := s.store.ActiveByPrincipal(ctx, nominal, date)
	if err != nil {
		return "", err
	}
	if len(active) == 0 {
		return nominal, nil
	}
	// Creation guards against overlaps, but data predating the check
	// may carry duplicates; the most recently created one wins.
	best := active[0]
	for _, d := range active[1:] {
		if d.CreatedAt.After(best.CreatedAt) {
			best = d
		}
	}
	return best.AgentID, nil
}

// ActiveAgents returns the agents substituting on date. They count as
// on-duty for availability even without a schedule slot of their own.
func (s *Service) ActiveAgents(ctx context.Context, date time.Time) ([]types.ID, error) {
	active, err := s.store.ActiveOn(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make([]types.ID, 0, len(active))
	for _, d := range active {
		out = append(out, d.AgentID)
	}
	return out, nil
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
