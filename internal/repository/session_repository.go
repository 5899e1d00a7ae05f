package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/config"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
)

// SessionRepo manages show_sessions and computes seat availability.
// Availability is counted from tickets on every read and never stored.
type SessionRepo struct {
	db     *sql.DB
	policy config.EmptyReservationPolicy
}

func NewSessionRepo(db *sql.DB, policy config.EmptyReservationPolicy) *SessionRepo {
	return &SessionRepo{db: db, policy: policy}
}

// SessionFilter narrows List.  Nil fields apply no restriction.
type SessionFilter struct {
	Date   *time.Time // UTC calendar day of show_time
	ShowID *uint64
}

// SessionRow is a session joined with its show and dome plus the number of
// tickets booked for it.
type SessionRow struct {
	Session       model.Session
	ShowTitle     string
	ShowImage     *string
	Dome          model.Dome
	TicketsBooked int
}

// TicketsAvailable is the dome capacity minus the booked tickets.
func (r SessionRow) TicketsAvailable() int {
	return r.Dome.Capacity() - r.TicketsBooked
}

// SessionDetail is the full view of one session.
type SessionDetail struct {
	Session     model.Session
	Show        model.Show
	Dome        model.Dome
	TakenPlaces []model.Place
}

// List returns sessions matching f, newest first, with their booking
// counts.
func (r *SessionRepo) List(ctx context.Context, f SessionFilter) ([]SessionRow, error) {
	var (
		where []string
		args  []any
	)
	if f.Date != nil {
		day := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, time.UTC)
		where = append(where, "s.show_time >= ? AND s.show_time < ?")
		args = append(args, day, day.Add(24*time.Hour))
	}
	if f.ShowID != nil {
		where = append(where, "s.astronomy_show_id = ?")
		args = append(args, *f.ShowID)
	}
	q := `SELECT s.id, s.astronomy_show_id, s.planetarium_dome_id, s.show_time,
	             sh.title, sh.image, d.id, d.name, d.seat_rows, d.seats_in_row,
	             COUNT(t.id)
	      FROM show_sessions s
	      JOIN astronomy_shows sh ON sh.id = s.astronomy_show_id
	      JOIN planetarium_domes d ON d.id = s.planetarium_dome_id
	      LEFT JOIN tickets t ON t.show_session_id = s.id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += ` GROUP BY s.id, s.astronomy_show_id, s.planetarium_dome_id, s.show_time,
	                sh.title, sh.image, d.id, d.name, d.seat_rows, d.seats_in_row
	       ORDER BY s.show_time DESC, s.id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]SessionRow, 0)
	for rows.Next() {
		var (
			row SessionRow
			img sql.NullString
		)
		if err := rows.Scan(&row.Session.ID, &row.Session.ShowID, &row.Session.DomeID, &row.Session.ShowTime,
			&row.ShowTitle, &img, &row.Dome.ID, &row.Dome.Name, &row.Dome.Rows, &row.Dome.SeatsInRow,
			&row.TicketsBooked); err != nil {
			return nil, err
		}
		row.Session.ShowTime = row.Session.ShowTime.UTC()
		row.ShowImage = stringPtr(img)
		out = append(out, row)
	}
	return out, rows.Err()
}

// Get returns the bare session row.
func (r *SessionRepo) Get(ctx context.Context, id uint64) (model.Session, error) {
	return getSession(ctx, r.db, id)
}

func getSession(ctx context.Context, q queryer, id uint64) (model.Session, error) {
	var s model.Session
	err := q.QueryRowContext(ctx,
		"SELECT id, astronomy_show_id, planetarium_dome_id, show_time FROM show_sessions WHERE id = ?", id).
		Scan(&s.ID, &s.ShowID, &s.DomeID, &s.ShowTime)
	if err == sql.ErrNoRows {
		return s, notFound("show session", id)
	}
	s.ShowTime = s.ShowTime.UTC()
	return s, err
}

// GetDetail returns the session with its show, dome and every taken seat.
func (r *SessionRepo) GetDetail(ctx context.Context, id uint64) (SessionDetail, error) {
	var d SessionDetail
	s, err := r.Get(ctx, id)
	if err != nil {
		return d, err
	}
	d.Session = s
	if d.Show, err = getShow(ctx, r.db, s.ShowID); err != nil {
		return d, err
	}
	if d.Dome, err = scanDome(r.db.QueryRowContext(ctx,
		"SELECT "+domeColumns+" FROM planetarium_domes WHERE id = ?", s.DomeID)); err != nil {
		return d, err
	}
	if d.TakenPlaces, err = takenPlaces(ctx, r.db, id); err != nil {
		return d, err
	}
	return d, nil
}

func takenPlaces(ctx context.Context, q queryer, sessionID uint64) ([]model.Place, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT row_num, seat_num FROM tickets WHERE show_session_id = ? ORDER BY row_num, seat_num", sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	places := make([]model.Place, 0)
	for rows.Next() {
		var p model.Place
		if err := rows.Scan(&p.Row, &p.Seat); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// checkRefs reports a missing show or dome as ErrNotFound.
func checkRefs(ctx context.Context, q queryer, s model.Session) error {
	if ok, err := exists(ctx, q, "astronomy_shows", s.ShowID); err != nil {
		return err
	} else if !ok {
		return notFound("astronomy show", s.ShowID)
	}
	if ok, err := exists(ctx, q, "planetarium_domes", s.DomeID); err != nil {
		return err
	} else if !ok {
		return notFound("planetarium dome", s.DomeID)
	}
	return nil
}

// Create schedules a session.  The show time is stored in UTC with second
// precision.
func (r *SessionRepo) Create(ctx context.Context, s model.Session) (model.Session, error) {
	if err := checkRefs(ctx, r.db, s); err != nil {
		return model.Session{}, err
	}
	s.ShowTime = s.ShowTime.UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO show_sessions (astronomy_show_id, planetarium_dome_id, show_time) VALUES (?,?,?)",
		s.ShowID, s.DomeID, s.ShowTime)
	if err != nil {
		return model.Session{}, fmt.Errorf("insert show session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Session{}, err
	}
	s.ID = uint64(id)
	return s, nil
}

// Update overwrites show, dome and time of a session.  Moving it to a
// dome whose grid does not cover the booked tickets is rejected.
func (r *SessionRepo) Update(ctx context.Context, s model.Session) (model.Session, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Session{}, err
	}
	defer tx.Rollback()

	if ok, err := exists(ctx, tx, "show_sessions", s.ID); err != nil {
		return model.Session{}, err
	} else if !ok {
		return model.Session{}, notFound("show session", s.ID)
	}
	if err := checkRefs(ctx, tx, s); err != nil {
		return model.Session{}, err
	}
	dome, err := scanDome(tx.QueryRowContext(ctx,
		"SELECT "+domeColumns+" FROM planetarium_domes WHERE id = ?", s.DomeID))
	if err != nil {
		return model.Session{}, fmt.Errorf("load planetarium dome %d: %w", s.DomeID, err)
	}
	maxRow, maxSeat, err := bookedExtent(ctx, tx,
		"SELECT COALESCE(MAX(row_num), 0), COALESCE(MAX(seat_num), 0) FROM tickets WHERE show_session_id = ?", s.ID)
	if err != nil {
		return model.Session{}, err
	}
	if maxRow > dome.Rows || maxSeat > dome.SeatsInRow {
		return model.Session{}, &ValidationError{
			Field: "planetarium_dome",
			Message: fmt.Sprintf("dome %d has %d rows of %d seats; booked tickets reach row %d and seat %d.",
				dome.ID, dome.Rows, dome.SeatsInRow, maxRow, maxSeat),
		}
	}

	s.ShowTime = s.ShowTime.UTC().Truncate(time.Second)
	if _, err := tx.ExecContext(ctx,
		"UPDATE show_sessions SET astronomy_show_id = ?, planetarium_dome_id = ?, show_time = ? WHERE id = ?",
		s.ShowID, s.DomeID, s.ShowTime, s.ID); err != nil {
		return model.Session{}, fmt.Errorf("update show session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Session{}, err
	}
	return s, nil
}

// Delete removes a session and its tickets.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) error {
	return cascadeDelete(ctx, r.db, r.policy, "show session",
		"SELECT DISTINCT reservation_id FROM tickets WHERE show_session_id = ?",
		"DELETE FROM show_sessions WHERE id = ?", id)
}
