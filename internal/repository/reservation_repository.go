package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
)

// ReservationRepo handles persistence of reservations and their tickets.
// Writes go through the *Tx methods so that a reservation and all of its
// tickets are committed together by the caller.
type ReservationRepo struct{ db *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so that callers can open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// SessionSummary is the compact session view nested inside tickets.
type SessionSummary struct {
	ID        uint64
	ShowTime  time.Time
	ShowTitle string
	DomeName  string
}

// TicketView is a ticket together with the session it belongs to.
type TicketView struct {
	Ticket  model.Ticket
	Session SessionSummary
}

// ReservationView is a reservation with its tickets expanded.
type ReservationView struct {
	ID        uint64
	UserID    uint64
	CreatedAt time.Time
	Tickets   []TicketView
}

// SessionForBookingTx loads a session with its dome and show title inside
// tx.  A missing session is ErrNotFound.
func (r *ReservationRepo) SessionForBookingTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (SessionRow, error) {
	var row SessionRow
	err := tx.QueryRowContext(ctx,
		`SELECT s.id, s.astronomy_show_id, s.planetarium_dome_id, s.show_time,
		        sh.title, d.id, d.name, d.seat_rows, d.seats_in_row
		 FROM show_sessions s
		 JOIN astronomy_shows sh ON sh.id = s.astronomy_show_id
		 JOIN planetarium_domes d ON d.id = s.planetarium_dome_id
		 WHERE s.id = ?`, sessionID).
		Scan(&row.Session.ID, &row.Session.ShowID, &row.Session.DomeID, &row.Session.ShowTime,
			&row.ShowTitle, &row.Dome.ID, &row.Dome.Name, &row.Dome.Rows, &row.Dome.SeatsInRow)
	if err == sql.ErrNoRows {
		return row, notFound("show session", sessionID)
	}
	row.Session.ShowTime = row.Session.ShowTime.UTC()
	return row, err
}

// InsertReservationTx creates the reservation row and returns its id.
func (r *ReservationRepo) InsertReservationTx(ctx context.Context, tx *sql.Tx, userID uint64, createdAt time.Time) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (user_id, created_at) VALUES (?,?)", userID, createdAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// InsertTicketTx inserts t and sets its ID.  Driver errors are returned
// unwrapped so that the caller can classify constraint violations.
func (r *ReservationRepo) InsertTicketTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO tickets (row_num, seat_num, show_session_id, reservation_id) VALUES (?,?,?,?)",
		t.Row, t.Seat, t.SessionID, t.ReservationID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// CountByUser returns how many reservations the user owns.
func (r *ReservationRepo) CountByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservations WHERE user_id = ?", userID).Scan(&n)
	return n, err
}

// ListByUser returns one page of the user's reservations, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]ReservationView, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, created_at FROM reservations
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReservationView, 0)
	for rows.Next() {
		var v ReservationView
		if err := rows.Scan(&v.ID, &v.UserID, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.CreatedAt = v.CreatedAt.UTC()
		v.Tickets = []TicketView{}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachTickets(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetForUser returns the reservation only when userID owns it.
func (r *ReservationRepo) GetForUser(ctx context.Context, userID, id uint64) (ReservationView, error) {
	var v ReservationView
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, created_at FROM reservations WHERE id = ? AND user_id = ?", id, userID).
		Scan(&v.ID, &v.UserID, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return v, notFound("reservation", id)
	}
	if err != nil {
		return v, err
	}
	v.CreatedAt = v.CreatedAt.UTC()
	v.Tickets = []TicketView{}
	list := []ReservationView{v}
	if err := r.attachTickets(ctx, list); err != nil {
		return v, err
	}
	return list[0], nil
}

// TicketForUser returns one ticket of a reservation owned by userID.
func (r *ReservationRepo) TicketForUser(ctx context.Context, userID, reservationID, ticketID uint64) (TicketView, error) {
	v, err := r.GetForUser(ctx, userID, reservationID)
	if err != nil {
		return TicketView{}, err
	}
	for _, t := range v.Tickets {
		if t.Ticket.ID == ticketID {
			return t, nil
		}
	}
	return TicketView{}, notFound("ticket", ticketID)
}

func (r *ReservationRepo) attachTickets(ctx context.Context, list []ReservationView) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uint64, len(list))
	index := make(map[uint64]int, len(list))
	for i, v := range list {
		ids[i] = v.ID
		index[v.ID] = i
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.row_num, t.seat_num, t.show_session_id, t.reservation_id,
		        s.show_time, sh.title, d.name
		 FROM tickets t
		 JOIN show_sessions s ON s.id = t.show_session_id
		 JOIN astronomy_shows sh ON sh.id = s.astronomy_show_id
		 JOIN planetarium_domes d ON d.id = s.planetarium_dome_id
		 WHERE t.reservation_id IN (`+placeholders(len(ids))+`)
		 ORDER BY t.id`, uintArgs(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var tv TicketView
		if err := rows.Scan(&tv.Ticket.ID, &tv.Ticket.Row, &tv.Ticket.Seat, &tv.Ticket.SessionID, &tv.Ticket.ReservationID,
			&tv.Session.ShowTime, &tv.Session.ShowTitle, &tv.Session.DomeName); err != nil {
			return err
		}
		tv.Session.ID = tv.Ticket.SessionID
		tv.Session.ShowTime = tv.Session.ShowTime.UTC()
		i := index[tv.Ticket.ReservationID]
		list[i].Tickets = append(list[i].Tickets, tv)
	}
	return rows.Err()
}
