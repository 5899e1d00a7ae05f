package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type themeBody struct {
	Name *string `json:"name" validate:"omitnil,min=1,max=255"`
}

func (h *CatalogHandler) ListThemes(c echo.Context) error {
	themes, err := h.Themes.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]themeOut, 0, len(themes))
	for _, t := range themes {
		out = append(out, h.ser.theme(t))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetTheme(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	t, err := h.Themes.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, h.ser.theme(t))
}

func (h *CatalogHandler) CreateTheme(c echo.Context) error {
	var req themeBody
	if err := bindValid(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if req.Name == nil {
		return writeError(c, h.log, required("name"))
	}
	if strings.TrimSpace(*req.Name) == "" {
		return writeError(c, h.log, blank("name"))
	}
	t, err := h.Themes.Create(c.Request().Context(), *req.Name)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, h.ser.theme(t))
}

// UpdateTheme serves PUT and PATCH.  A theme has a single field, so both
// need a name.
func (h *CatalogHandler) UpdateTheme(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req themeBody
	if err := bindValid(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	t, err := h.Themes.Get(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if req.Name == nil {
		if c.Request().Method == http.MethodPatch {
			return c.JSON(http.StatusOK, h.ser.theme(t))
		}
		return writeError(c, h.log, required("name"))
	}
	if t.Name = strings.TrimSpace(*req.Name); t.Name == "" {
		return writeError(c, h.log, blank("name"))
	}
	if err := h.Themes.Update(ctx, t); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, h.ser.theme(t))
}

func (h *CatalogHandler) DeleteTheme(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.Themes.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
