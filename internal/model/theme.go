package model

// Theme is a named category attached to shows.  Names are unique
// across the whole catalog.
type Theme struct {
	ID   uint64 // show_themes.id
	Name string // show_themes.name (unique)
}
