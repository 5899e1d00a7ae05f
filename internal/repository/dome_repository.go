package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/config"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
)

// DomeRepo provides CRUD operations for the planetarium_domes table.
// Deleting a dome cascades to its sessions and their tickets.
type DomeRepo struct {
	db     *sql.DB
	policy config.EmptyReservationPolicy
}

func NewDomeRepo(db *sql.DB, policy config.EmptyReservationPolicy) *DomeRepo {
	return &DomeRepo{db: db, policy: policy}
}

const domeColumns = "id, name, seat_rows, seats_in_row"

func scanDome(s interface{ Scan(...any) error }) (model.Dome, error) {
	var d model.Dome
	err := s.Scan(&d.ID, &d.Name, &d.Rows, &d.SeatsInRow)
	return d, err
}

// List returns every dome ordered by id.
func (r *DomeRepo) List(ctx context.Context) ([]model.Dome, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+domeColumns+" FROM planetarium_domes ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	domes := make([]model.Dome, 0)
	for rows.Next() {
		d, err := scanDome(rows)
		if err != nil {
			return nil, err
		}
		domes = append(domes, d)
	}
	return domes, rows.Err()
}

// Get returns the dome with the given id.
func (r *DomeRepo) Get(ctx context.Context, id uint64) (model.Dome, error) {
	d, err := scanDome(r.db.QueryRowContext(ctx, "SELECT "+domeColumns+" FROM planetarium_domes WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return d, notFound("planetarium dome", id)
	}
	return d, err
}

// Create inserts a dome and returns it with its id.
func (r *DomeRepo) Create(ctx context.Context, d model.Dome) (model.Dome, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO planetarium_domes (name, seat_rows, seats_in_row) VALUES (?,?,?)",
		d.Name, d.Rows, d.SeatsInRow)
	if err != nil {
		return model.Dome{}, fmt.Errorf("insert planetarium dome: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Dome{}, err
	}
	d.ID = uint64(id)
	return d, nil
}

// Update overwrites name and dimensions.  The grid may not shrink below
// a seat that is already booked in one of the dome's sessions.
func (r *DomeRepo) Update(ctx context.Context, d model.Dome) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if ok, err := exists(ctx, tx, "planetarium_domes", d.ID); err != nil {
		return err
	} else if !ok {
		return notFound("planetarium dome", d.ID)
	}
	maxRow, maxSeat, err := bookedExtent(ctx, tx,
		`SELECT COALESCE(MAX(t.row_num), 0), COALESCE(MAX(t.seat_num), 0) FROM tickets t
		 JOIN show_sessions s ON s.id = t.show_session_id
		 WHERE s.planetarium_dome_id = ?`, d.ID)
	if err != nil {
		return err
	}
	if d.Rows < maxRow {
		return gridTooSmall("rows", maxRow)
	}
	if d.SeatsInRow < maxSeat {
		return gridTooSmall("seats_in_row", maxSeat)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE planetarium_domes SET name = ?, seat_rows = ?, seats_in_row = ? WHERE id = ?",
		d.Name, d.Rows, d.SeatsInRow, d.ID); err != nil {
		return fmt.Errorf("update planetarium dome: %w", err)
	}
	return tx.Commit()
}

// Delete removes the dome together with its sessions and tickets.
func (r *DomeRepo) Delete(ctx context.Context, id uint64) error {
	return cascadeDelete(ctx, r.db, r.policy, "planetarium dome",
		`SELECT DISTINCT t.reservation_id FROM tickets t
		 JOIN show_sessions s ON s.id = t.show_session_id
		 WHERE s.planetarium_dome_id = ?`,
		"DELETE FROM planetarium_domes WHERE id = ?", id)
}
