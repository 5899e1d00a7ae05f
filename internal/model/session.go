package model

import "time"

// Session is a scheduled screening of a show in a dome.  ShowTime is
// always kept in UTC.  Sessions are listed newest first.
type Session struct {
	ID       uint64    // show_sessions.id
	ShowID   uint64    // show_sessions.astronomy_show_id
	DomeID   uint64    // show_sessions.planetarium_dome_id
	ShowTime time.Time // show_sessions.show_time (UTC)
}

// Place identifies a single seat inside a dome grid.
type Place struct {
	Row  int
	Seat int
}
