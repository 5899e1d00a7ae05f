package model

// Dome describes a physical venue with a fixed seating grid.  Rows are
// numbered 1..Rows and seats inside a row 1..SeatsInRow.  Capacity is
// never stored; it is always derived from the grid.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – display name of the dome.
//  Rows       – number of seating rows (positive).
//  SeatsInRow – number of seats in every row (positive).
type Dome struct {
	ID         uint64 // planetarium_domes.id
	Name       string // planetarium_domes.name
	Rows       int    // planetarium_domes.seat_rows
	SeatsInRow int    // planetarium_domes.seats_in_row
}

// Capacity returns the total number of seats in the dome.
func (d Dome) Capacity() int {
	return d.Rows * d.SeatsInRow
}

// Contains reports whether (row, seat) lies inside the seating grid.
func (d Dome) Contains(row, seat int) bool {
	return row >= 1 && row <= d.Rows && seat >= 1 && seat <= d.SeatsInRow
}
