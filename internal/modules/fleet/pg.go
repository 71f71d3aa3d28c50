// README: Fleet store backed by PostgreSQL.
package fleet

import (
	"context"
	"errors"

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

func (s *PGStore) CreateDriver(ctx context.Context, d *Driver) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO drivers (id, name, is_agent) VALUES ($1, $2, $3)`,
		string(d.ID), d.Name, d.IsAgent,
	)
	return err
}

func (s *PGStore) GetDriver(ctx context.Context, id types.ID) (*Driver, error) {
	var d Driver
	err := s.db.QueryRow(ctx, `
		SELECT id, name, is_agent FROM drivers WHERE id = $1`, string(id),
	).Scan(&d.ID, &d.Name, &d.IsAgent)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PGStore) ListDrivers(ctx context.Context) ([]Driver, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, is_agent FROM drivers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.IsAgent); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PGStore) CreateVehicle(ctx context.Context, v *Vehicle) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO vehicles (id, plate, capacity, status) VALUES ($1, $2, $3, $4)`,
		string(v.ID), v.Plate, v.Capacity, string(v.Status),
	)
	return err
}

func (s *PGStore) GetVehicle(ctx context.Context, id types.ID) (*Vehicle, error) {
	var v Vehicle
	err := s.db.QueryRow(ctx, `
		SELECT id, plate, capacity, status FROM vehicles WHERE id = $1`, string(id),
	).Scan(&v.ID, &v.Plate, &v.Capacity, &v.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *PGStore) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, plate, capacity, status FROM vehicles ORDER BY capacity, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.Plate, &v.Capacity, &v.Status); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PGStore) SetVehicleStatus(ctx context.Context, id types.ID, status VehicleStatus) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE vehicles SET status = $1 WHERE id = $2`, string(status), string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
