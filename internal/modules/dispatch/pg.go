// README: Dispatch store backed by PostgreSQL; advisory locks guard allocation.
package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleet/internal/types"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// store code serves inside and outside Transact.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGStore struct {
	pool *pgxpool.Pool
	q    querier
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, q: pool}
}

func (s *PGStore) Transact(ctx context.Context, fn func(Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&PGStore{pool: s.pool, q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// LockResource takes a transaction-scoped advisory lock; it is only
// meaningful inside Transact (the lock releases at commit/rollback).
func (s *PGStore) LockResource(ctx context.Context, key string) error {
	_, err := s.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	return err
}

const dispatchColumns = `
	id, trip_request_id, driver_id, vehicle_id, status,
	start_time, end_time, odometer_start, odometer_end,
	created_at, updated_at`

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Dispatch, error) {
	row := s.q.QueryRow(ctx, `SELECT `+dispatchColumns+` FROM dispatches WHERE id = $1`, string(id))
	d, err := scanDispatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (s *PGStore) ByTripRequest(ctx context.Context, tripRequestID types.ID) (*Dispatch, error) {
	row := s.q.QueryRow(ctx, `SELECT `+dispatchColumns+` FROM dispatches WHERE trip_request_id = $1`, string(tripRequestID))
	d, err := scanDispatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (s *PGStore) Create(ctx context.Context, d *Dispatch) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO dispatches (
			id, trip_request_id, driver_id, vehicle_id, status,
			start_time, end_time, odometer_start, odometer_end,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(d.ID), string(d.TripRequestID),
		idPtr(d.DriverID), idPtr(d.VehicleID), string(d.Status),
		d.Window.Start, d.Window.End,
		d.OdometerStart, d.OdometerEnd,
		d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (s *PGStore) SetAssignment(ctx context.Context, id types.ID, driverID, vehicleID *types.ID, status Status) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE dispatches
		SET driver_id = $1, vehicle_id = $2, status = $3, updated_at = NOW()
		WHERE id = $4`,
		idPtr(driverID), idPtr(vehicleID), string(status), string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) SetProgress(ctx context.Context, id types.ID, status Status, odoStart, odoEnd *int) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE dispatches
		SET status = $1, odometer_start = $2, odometer_end = $3, updated_at = NOW()
		WHERE id = $4`,
		string(status), odoStart, odoEnd, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) OverlappingVehicle(ctx context.Context, vehicleID types.ID, win types.Window) ([]Dispatch, error) {
	return s.overlapping(ctx, "vehicle_id", vehicleID, win)
}

func (s *PGStore) OverlappingDriver(ctx context.Context, driverID types.ID, win types.Window) ([]Dispatch, error) {
	return s.overlapping(ctx, "driver_id", driverID, win)
}

func (s *PGStore) overlapping(ctx context.Context, column string, resourceID types.ID, win types.Window) ([]Dispatch, error) {
	// Children merged under a parent are excluded: they are not
	// independently driven and must not register as conflicts.
	rows, err := s.q.Query(ctx, `
		SELECT `+dispatchColumns+`
		FROM dispatches d
		WHERE d.`+column+` = $1
		  AND d.status IN ('assigned', 'enroute')
		  AND d.start_time < $3 AND $2 < d.end_time
		  AND NOT EXISTS (
			SELECT 1 FROM dispatch_links l WHERE l.child_id = d.id
		  )`,
		string(resourceID), win.Start, win.End,
	)
	if err != nil {
		return nil, err
	}
	return scanDispatches(rows)
}

func (s *PGStore) CountForDriverOn(ctx context.Context, driverID types.ID, day time.Time) (int, error) {
	start := types.DateOf(day)
	var n int
	err := s.q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM dispatches d
		WHERE d.driver_id = $1
		  AND d.status IN ('assigned', 'enroute')
		  AND d.start_time >= $2 AND d.start_time < $3
		  AND NOT EXISTS (
			SELECT 1 FROM dispatch_links l WHERE l.child_id = d.id
		  )`,
		string(driverID), start, start.AddDate(0, 0, 1),
	).Scan(&n)
	return n, err
}

func (s *PGStore) Within(ctx context.Context, win types.Window) ([]Dispatch, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+dispatchColumns+`
		FROM dispatches
		WHERE start_time >= $1 AND end_time <= $2
		ORDER BY id`,
		win.Start, win.End,
	)
	if err != nil {
		return nil, err
	}
	return scanDispatches(rows)
}

func (s *PGStore) CreateLink(ctx context.Context, parentID, childID types.ID) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO dispatch_links (parent_id, child_id, created_at)
		VALUES ($1, $2, NOW())`,
		string(parentID), string(childID),
	)
	return err
}

func (s *PGStore) DeleteLink(ctx context.Context, parentID, childID types.ID) error {
	tag, err := s.q.Exec(ctx, `
		DELETE FROM dispatch_links WHERE parent_id = $1 AND child_id = $2`,
		string(parentID), string(childID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) LinksFrom(ctx context.Context, parentID types.ID) ([]Link, error) {
	rows, err := s.q.Query(ctx, `
		SELECT parent_id, child_id, created_at
		FROM dispatch_links WHERE parent_id = $1
		ORDER BY created_at`,
		string(parentID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ParentID, &l.ChildID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PGStore) LinkTo(ctx context.Context, childID types.ID) (*Link, error) {
	var l Link
	err := s.q.QueryRow(ctx, `
		SELECT parent_id, child_id, created_at
		FROM dispatch_links WHERE child_id = $1`,
		string(childID),
	).Scan(&l.ParentID, &l.ChildID, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// SetTripAssignment runs on s.q, so inside Transact it joins the
// dispatch transaction and rolls back with it.
func (s *PGStore) SetTripAssignment(ctx context.Context, tripRequestID types.ID, driverID, vehicleID *types.ID) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE trip_requests SET driver_id = $1, vehicle_id = $2 WHERE id = $3`,
		idPtr(driverID), idPtr(vehicleID), string(tripRequestID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO dispatch_events (
			dispatch_id, action,
			old_driver_id, new_driver_id, old_vehicle_id, new_vehicle_id,
			actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(e.DispatchID), string(e.Action),
		idPtr(e.OldDriverID), idPtr(e.NewDriverID),
		idPtr(e.OldVehicleID), idPtr(e.NewVehicleID),
		string(e.ActorID), e.CreatedAt,
	)
	return err
}

func scanDispatch(row pgx.Row) (*Dispatch, error) {
	var d Dispatch
	var driverID, vehicleID sql.NullString
	var odoStart, odoEnd sql.NullInt64
	err := row.Scan(
		&d.ID, &d.TripRequestID, &driverID, &vehicleID, &d.Status,
		&d.Window.Start, &d.Window.End, &odoStart, &odoEnd,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if driverID.Valid {
		id := types.ID(driverID.String)
		d.DriverID = &id
	}
	if vehicleID.Valid {
		id := types.ID(vehicleID.String)
		d.VehicleID = &id
	}
	if odoStart.Valid {
		v := int(odoStart.Int64)
		d.OdometerStart = &v
	}
	if odoEnd.Valid {
		v := int(odoEnd.Int64)
		d.OdometerEnd = &v
	}
	return &d, nil
}

func scanDispatches(rows pgx.Rows) ([]Dispatch, error) {
	defer rows.Close()
	var out []Dispatch
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
