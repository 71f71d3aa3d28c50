// README: Delegation store backed by PostgreSQL.
package delegation

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleet/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, d *Delegation) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO delegations (id, principal_id, agent_id, start_date, end_date, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(d.ID), string(d.PrincipalID), string(d.AgentID),
		d.Start, d.End, d.Reason, d.CreatedAt,
	)
	return err
}

func (s *PGStore) ActiveByPrincipal(ctx context.Context, driverID types.ID, date time.Time) ([]Delegation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, principal_id, agent_id, start_date, end_date, reason, created_at
		FROM delegations
		WHERE principal_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY created_at DESC`,
		string(driverID), types.DateOf(date),
	)
	if err != nil {
		return nil, err
	}
	return scanDelegations(rows)
}

func (s *PGStore) ActiveOn(ctx context.Context, date time.Time) ([]Delegation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, principal_id, agent_id, start_date, end_date, reason, created_at
		FROM delegations
		WHERE start_date <= $1 AND end_date >= $1
		ORDER BY created_at DESC`,
		types.DateOf(date),
	)
	if err != nil {
		return nil, err
	}
	return scanDelegations(rows)
}

func (s *PGStore) OverlappingByDriver(ctx context.Context, driverID types.ID, start, end time.Time) ([]Delegation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, principal_id, agent_id, start_date, end_date, reason, created_at
		FROM delegations
		WHERE (principal_id = $1 OR agent_id = $1)
		  AND start_date <= $3 AND end_date >= $2`,
		string(driverID), types.DateOf(start), types.DateOf(end),
	)
	if err != nil {
		return nil, err
	}
	return scanDelegations(rows)
}

func scanDelegations(rows pgx.Rows) ([]Delegation, error) {
	defer rows.Close()
	var out []Delegation
	for rows.Next() {
		var d Delegation
		if err := rows.Scan(&d.ID, &d.PrincipalID, &d.AgentID, &d.Start, &d.End, &d.Reason, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
