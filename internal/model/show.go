package model

// Show represents an astronomy programme that can be screened in a
// dome.  A show carries a set of themes through the
// astronomy_show_themes join table and may have an image uploaded
// after creation.  Shows are listed ordered by title.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title of the show.
//  Description – free text description.
//  Image       – storage key or URL of the uploaded image (nil if none).
//  Themes      – themes attached to the show.
type Show struct {
	ID          uint64  // astronomy_shows.id
	Title       string  // astronomy_shows.title
	Description string  // astronomy_shows.description
	Image       *string // astronomy_shows.image (nullable)
	Themes      []Theme // astronomy_show_themes -> show_themes
}

// ThemeIDs returns the identifiers of the attached themes in order.
func (s Show) ThemeIDs() []uint64 {
	ids := make([]uint64, 0, len(s.Themes))
	for _, t := range s.Themes {
		ids = append(ids, t.ID)
	}
	return ids
}

// ThemeNames returns the names of the attached themes in order.
func (s Show) ThemeNames() []string {
	names := make([]string, 0, len(s.Themes))
	for _, t := range s.Themes {
		names = append(names, t.Name)
	}
	return names
}
