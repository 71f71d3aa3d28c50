// README: Schedule store backed by PostgreSQL.
package schedule

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

func (s *PGStore) SlotFor(ctx context.Context, date time.Time, shift, line string) (*Slot, error) {
	var slot Slot
	var driverID sql.NullString
	err := s.db.QueryRow(ctx, `
		SELECT slot_date, shift, line, driver_id
		FROM schedule_slots
		WHERE slot_date = $1 AND shift = $2 AND line = $3`,
		types.DateOf(date), shift, line,
	).Scan(&slot.Date, &slot.Shift, &slot.Line, &driverID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if driverID.Valid {
		id := types.ID(driverID.String)
		slot.DriverID = &id
	}
	return &slot, nil
}

func (s *PGStore) SlotsOn(ctx context.Context, date time.Time) ([]Slot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT slot_date, shift, line, driver_id
		FROM schedule_slots
		WHERE slot_date = $1
		ORDER BY shift, line`,
		types.DateOf(date),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		var slot Slot
		var driverID sql.NullString
		if err := rows.Scan(&slot.Date, &slot.Shift, &slot.Line, &driverID); err != nil {
			return nil, err
		}
		if driverID.Valid {
			id := types.ID(driverID.String)
			slot.DriverID = &id
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

func (s *PGStore) SetSlotDriver(ctx context.Context, date time.Time, shift, line string, driverID *types.ID) error {
	var d *string
	if driverID != nil {
		v := string(*driverID)
		d = &v
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO schedule_slots (slot_date, shift, line, driver_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slot_date, shift, line) DO UPDATE SET driver_id = EXCLUDED.driver_id`,
		types.DateOf(date), shift, line, d,
	)
	return err
}

func (s *PGStore) AssignmentFor(ctx context.Context, line string, date time.Time) (*LineAssignment, error) {
	var a LineAssignment
	var end sql.NullTime
	err := s.db.QueryRow(ctx, `
		SELECT id, line, driver_id, start_date, end_date
		FROM line_assignments
		WHERE line = $1 AND start_date <= $2 AND (end_date IS NULL OR end_date >= $2)
		ORDER BY start_date DESC
		LIMIT 1`,
		line, types.DateOf(date),
	).Scan(&a.ID, &a.Line, &a.DriverID, &a.Start, &end)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if end.Valid {
		t := end.Time
		a.End = &t
	}
	return &a, nil
}

func (s *PGStore) ReassignLine(ctx context.Context, line string, driverID types.ID, from time.Time) error {
	day := types.DateOf(from)
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE line_assignments
		SET end_date = $1
		WHERE line = $2 AND end_date IS NULL`,
		day.AddDate(0, 0, -1), line,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO line_assignments (line, driver_id, start_date, end_date)
		VALUES ($1, $2, $3, NULL)`,
		line, string(driverID), day,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
