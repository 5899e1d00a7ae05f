package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/config"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
)

// ShowRepo encapsulates access to astronomy_shows and the
// astronomy_show_themes join table.
type ShowRepo struct {
	db     *sql.DB
	policy config.EmptyReservationPolicy
}

func NewShowRepo(db *sql.DB, policy config.EmptyReservationPolicy) *ShowRepo {
	return &ShowRepo{db: db, policy: policy}
}

// ShowFilter narrows List.  Empty fields apply no restriction.
type ShowFilter struct {
	Title    string   // case-insensitive substring of the title
	ThemeIDs []uint64 // show must carry at least one of these themes
}

// List returns the shows matching f ordered by title.  Each show appears
// once even when several of its themes match.
func (r *ShowRepo) List(ctx context.Context, f ShowFilter) ([]model.Show, error) {
	var (
		where []string
		args  []any
	)
	if t := strings.TrimSpace(f.Title); t != "" {
		where = append(where, "LOWER(title) LIKE ? ESCAPE '!'")
		args = append(args, likePattern(t))
	}
	if ids := dedupe(f.ThemeIDs); len(ids) > 0 {
		where = append(where, "id IN (SELECT astronomy_show_id FROM astronomy_show_themes WHERE show_theme_id IN ("+placeholders(len(ids))+"))")
		args = append(args, uintArgs(ids)...)
	}
	q := "SELECT id, title, description, image FROM astronomy_shows"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY title, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shows := make([]model.Show, 0)
	index := map[uint64]int{}
	for rows.Next() {
		var (
			s   model.Show
			img sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &img); err != nil {
			return nil, err
		}
		s.Image = stringPtr(img)
		s.Themes = []model.Theme{}
		index[s.ID] = len(shows)
		shows = append(shows, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(shows) == 0 {
		return shows, nil
	}

	ids := make([]uint64, len(shows))
	for i, s := range shows {
		ids[i] = s.ID
	}
	byShow, err := themesByShow(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for id, themes := range byShow {
		shows[index[id]].Themes = themes
	}
	return shows, nil
}

// themesByShow loads the themes of every show in ids.
func themesByShow(ctx context.Context, q queryer, ids []uint64) (map[uint64][]model.Theme, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT ast.astronomy_show_id, t.id, t.name
		 FROM astronomy_show_themes ast
		 JOIN show_themes t ON t.id = ast.show_theme_id
		 WHERE ast.astronomy_show_id IN (`+placeholders(len(ids))+`)
		 ORDER BY t.id`, uintArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[uint64][]model.Theme{}
	for rows.Next() {
		var (
			showID uint64
			t      model.Theme
		)
		if err := rows.Scan(&showID, &t.ID, &t.Name); err != nil {
			return nil, err
		}
		out[showID] = append(out[showID], t)
	}
	return out, rows.Err()
}

// Get returns a show with its themes.
func (r *ShowRepo) Get(ctx context.Context, id uint64) (model.Show, error) {
	return getShow(ctx, r.db, id)
}

func getShow(ctx context.Context, q queryer, id uint64) (model.Show, error) {
	var (
		s   model.Show
		img sql.NullString
	)
	err := q.QueryRowContext(ctx,
		"SELECT id, title, description, image FROM astronomy_shows WHERE id = ?", id).
		Scan(&s.ID, &s.Title, &s.Description, &img)
	if err == sql.ErrNoRows {
		return s, notFound("astronomy show", id)
	}
	if err != nil {
		return s, err
	}
	s.Image = stringPtr(img)
	byShow, err := themesByShow(ctx, q, []uint64{id})
	if err != nil {
		return s, err
	}
	s.Themes = byShow[id]
	if s.Themes == nil {
		s.Themes = []model.Theme{}
	}
	return s, nil
}

// Create inserts a show and links the given themes.  Unknown themes fail
// with ErrNotFound and nothing is written.
func (r *ShowRepo) Create(ctx context.Context, s model.Show, themeIDs []uint64) (model.Show, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Show{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	themes, err := getThemes(ctx, tx, themeIDs)
	if err != nil {
		return model.Show{}, err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO astronomy_shows (title, description, image) VALUES (?,?,?)",
		s.Title, s.Description, nullableString(s.Image))
	if err != nil {
		return model.Show{}, fmt.Errorf("insert astronomy show: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Show{}, err
	}
	s.ID = uint64(id)
	if err := linkThemesTx(ctx, tx, s.ID, themes); err != nil {
		return model.Show{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Show{}, err
	}
	committed = true
	s.Themes = themes
	return s, nil
}

// Update overwrites title and description and replaces the theme set.  The
// image is managed separately by SetImage.
func (r *ShowRepo) Update(ctx context.Context, s model.Show, themeIDs []uint64) (model.Show, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Show{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if ok, err := exists(ctx, tx, "astronomy_shows", s.ID); err != nil {
		return model.Show{}, err
	} else if !ok {
		return model.Show{}, notFound("astronomy show", s.ID)
	}
	themes, err := getThemes(ctx, tx, themeIDs)
	if err != nil {
		return model.Show{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE astronomy_shows SET title = ?, description = ? WHERE id = ?",
		s.Title, s.Description, s.ID); err != nil {
		return model.Show{}, fmt.Errorf("update astronomy show: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM astronomy_show_themes WHERE astronomy_show_id = ?", s.ID); err != nil {
		return model.Show{}, err
	}
	if err := linkThemesTx(ctx, tx, s.ID, themes); err != nil {
		return model.Show{}, err
	}
	updated, err := getShow(ctx, tx, s.ID)
	if err != nil {
		return model.Show{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Show{}, err
	}
	committed = true
	return updated, nil
}

func linkThemesTx(ctx context.Context, tx *sql.Tx, showID uint64, themes []model.Theme) error {
	for _, t := range themes {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO astronomy_show_themes (astronomy_show_id, show_theme_id) VALUES (?,?)",
			showID, t.ID); err != nil {
			return fmt.Errorf("link theme %d: %w", t.ID, err)
		}
	}
	return nil
}

// SetImage stores the image key for a show.
func (r *ShowRepo) SetImage(ctx context.Context, id uint64, image string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE astronomy_shows SET image = ? WHERE id = ?", image, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if ok, err := exists(ctx, r.db, "astronomy_shows", id); err != nil {
			return err
		} else if !ok {
			return notFound("astronomy show", id)
		}
	}
	return nil
}

// Delete removes a show together with its sessions and their tickets.
func (r *ShowRepo) Delete(ctx context.Context, id uint64) error {
	return cascadeDelete(ctx, r.db, r.policy, "astronomy show",
		`SELECT DISTINCT t.reservation_id FROM tickets t
		 JOIN show_sessions s ON s.id = t.show_session_id
		 WHERE s.astronomy_show_id = ?`,
		"DELETE FROM astronomy_shows WHERE id = ?", id)
}
