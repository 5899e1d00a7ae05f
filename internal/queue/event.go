// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

import "time"

// ReservationCreatedQueue is the durable queue carrying ReservationCreatedEvent.
const ReservationCreatedQueue = "reservation.created"

// ReservationCreatedEvent is published after a reservation commits.  It
// carries enough information for downstream consumers to log or notify
// without querying the primary database.
type ReservationCreatedEvent struct {
	ReservationID uint64        `json:"reservation_id"`
	UserID        uint64        `json:"user_id"`
	CreatedAt     time.Time     `json:"created_at"`
	Tickets       []EventTicket `json:"tickets"`
}

// EventTicket describes one booked seat.
type EventTicket struct {
	TicketID  uint64    `json:"ticket_id"`
	SessionID uint64    `json:"session_id"`
	ShowTitle string    `json:"show_title"`
	DomeName  string    `json:"dome_name"`
	ShowTime  time.Time `json:"show_time"`
	Row       int       `json:"row"`
	Seat      int       `json:"seat"`
}
