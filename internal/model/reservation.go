package model

import (
	"fmt"
	"time"
)

// Reservation groups one or more tickets bought by a user in a single
// request.  CreatedAt is assigned once on insert and never updated.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who owns the reservation.
//  CreatedAt – creation timestamp (UTC).
//  Tickets   – tickets owned by the reservation.
type Reservation struct {
	ID        uint64    // reservations.id
	UserID    uint64    // reservations.user_id
	CreatedAt time.Time // reservations.created_at
	Tickets   []Ticket  // tickets.reservation_id
}

// Ticket is a claim on one seat for one session.  The triple
// (SessionID, Row, Seat) is unique across all tickets.
type Ticket struct {
	ID            uint64 // tickets.id
	Row           int    // tickets.row_num
	Seat          int    // tickets.seat_num
	SessionID     uint64 // tickets.show_session_id
	ReservationID uint64 // tickets.reservation_id
}

// Label renders the seat position for messages, e.g. "row 1, seat 4".
func (t Ticket) Label() string {
	return fmt.Sprintf("row %d, seat %d", t.Row, t.Seat)
}
