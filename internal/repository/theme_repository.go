package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/database"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
)

// ThemeRepo provides CRUD operations for the show_themes table.
type ThemeRepo struct{ db *sql.DB }

func NewThemeRepo(db *sql.DB) *ThemeRepo { return &ThemeRepo{db: db} }

func duplicateThemeName() error {
	return NewValidationError("name", "show theme with this name already exists.")
}

// List returns every theme ordered by id.
func (r *ThemeRepo) List(ctx context.Context) ([]model.Theme, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM show_themes ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	themes := make([]model.Theme, 0)
	for rows.Next() {
		var t model.Theme
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		themes = append(themes, t)
	}
	return themes, rows.Err()
}

// Get returns the theme with the given id.
func (r *ThemeRepo) Get(ctx context.Context, id uint64) (model.Theme, error) {
	var t model.Theme
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM show_themes WHERE id = ?", id).Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return t, notFound("show theme", id)
	}
	return t, err
}

// Create inserts a theme.  A duplicate name is a validation error on name.
func (r *ThemeRepo) Create(ctx context.Context, name string) (model.Theme, error) {
	name = strings.TrimSpace(name)
	res, err := r.db.ExecContext(ctx, "INSERT INTO show_themes (name) VALUES (?)", name)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return model.Theme{}, duplicateThemeName()
		}
		return model.Theme{}, fmt.Errorf("insert show theme: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Theme{}, err
	}
	return model.Theme{ID: uint64(id), Name: name}, nil
}

// Update renames a theme.
func (r *ThemeRepo) Update(ctx context.Context, t model.Theme) error {
	t.Name = strings.TrimSpace(t.Name)
	res, err := r.db.ExecContext(ctx, "UPDATE show_themes SET name = ? WHERE id = ?", t.Name, t.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return duplicateThemeName()
		}
		return fmt.Errorf("update show theme: %w", err)
	}
	// MySQL reports zero affected rows when the value is unchanged.
	if n, _ := res.RowsAffected(); n == 0 {
		if ok, err := exists(ctx, r.db, "show_themes", t.ID); err != nil {
			return err
		} else if !ok {
			return notFound("show theme", t.ID)
		}
	}
	return nil
}

// Delete removes a theme.  Show links go away through the cascade.
func (r *ThemeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM show_themes WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("show theme", id)
	}
	return nil
}

// getThemes loads the themes with the given ids.  Any missing id is reported
// as ErrNotFound.
func getThemes(ctx context.Context, q queryer, ids []uint64) ([]model.Theme, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []model.Theme{}, nil
	}
	rows, err := q.QueryContext(ctx,
		"SELECT id, name FROM show_themes WHERE id IN ("+placeholders(len(ids))+") ORDER BY id",
		uintArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	found := map[uint64]bool{}
	themes := make([]model.Theme, 0, len(ids))
	for rows.Next() {
		var t model.Theme
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		found[t.ID] = true
		themes = append(themes, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if !found[id] {
			return nil, notFound("show theme", id)
		}
	}
	return themes, nil
}
