// README: Trip request store backed by PostgreSQL.
package trip

import (
	"context"
	"database/sql"
	"errors"
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

const requestColumns = `
	id, requester_id, start_time, end_time, origin, destination,
	passengers, status, driver_id, vehicle_id,
	estimated_km, estimated_secs, reject_reason, created_at`

func (s *PGStore) Create(ctx context.Context, r *Request) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trip_requests (
			id, requester_id, start_time, end_time, origin, destination,
			passengers, status, driver_id, vehicle_id,
			estimated_km, estimated_secs, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		string(r.ID), string(r.RequesterID),
		r.Window.Start, r.Window.End,
		r.Origin, r.Destination,
		r.Passengers, string(r.Status),
		idPtr(r.DriverID), idPtr(r.VehicleID),
		r.EstimatedKm, int64(r.EstimatedDur/time.Second),
		r.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Request, error) {
	row := s.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM trip_requests WHERE id = $1`, string(id))
	r, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trip_requests
		SET status = $1, reject_reason = COALESCE($2, reject_reason)
		WHERE id = $3 AND status = $4`,
		string(to), reason, string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) SetAssignment(ctx context.Context, id types.ID, driverID, vehicleID *types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE trip_requests SET driver_id = $1, vehicle_id = $2 WHERE id = $3`,
		idPtr(driverID), idPtr(vehicleID), string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) HoldingVehicle(ctx context.Context, vehicleID types.ID, win types.Window, exclude types.ID) ([]Request, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+requestColumns+`
		FROM trip_requests
		WHERE vehicle_id = $1
		  AND id <> $2
		  AND status IN ('pending', 'approved')
		  AND start_time < $4 AND $3 < end_time`,
		string(vehicleID), string(exclude), win.Start, win.End,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (*Request, error) {
	var r Request
	var driverID, vehicleID, rejectReason sql.NullString
	var estSecs int64
	err := row.Scan(
		&r.ID, &r.RequesterID, &r.Window.Start, &r.Window.End,
		&r.Origin, &r.Destination, &r.Passengers, &r.Status,
		&driverID, &vehicleID, &r.EstimatedKm, &estSecs,
		&rejectReason, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if driverID.Valid {
		id := types.ID(driverID.String)
		r.DriverID = &id
	}
	if vehicleID.Valid {
		id := types.ID(vehicleID.String)
		r.VehicleID = &id
	}
	if rejectReason.Valid {
		r.RejectReason = &rejectReason.String
	}
	r.EstimatedDur = time.Duration(estSecs) * time.Second
	return &r, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
