package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
)

type domeBody struct {
	Name       *string `json:"name" validate:"omitnil,min=1,max=255"`
	Rows       *int    `json:"rows" validate:"omitnil,min=1"`
	SeatsInRow *int    `json:"seats_in_row" validate:"omitnil,min=1"`
}

// complete reports the first field a full write is missing.
func (b domeBody) complete() error {
	switch {
	case b.Name == nil:
		return required("name")
	case b.Rows == nil:
		return required("rows")
	case b.SeatsInRow == nil:
		return required("seats_in_row")
	}
	return nil
}

func (b domeBody) applyTo(d *model.Dome) error {
	if b.Name != nil {
		if d.Name = strings.TrimSpace(*b.Name); d.Name == "" {
			return blank("name")
		}
	}
	if b.Rows != nil {
		d.Rows = *b.Rows
	}
	if b.SeatsInRow != nil {
		d.SeatsInRow = *b.SeatsInRow
	}
	return nil
}

func (h *CatalogHandler) ListDomes(c echo.Context) error {
	domes, err := h.Domes.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]domeOut, 0, len(domes))
	for _, d := range domes {
		out = append(out, h.ser.dome(d))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetDome(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	d, err := h.Domes.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, h.ser.dome(d))
}

func (h *CatalogHandler) CreateDome(c echo.Context) error {
	var req domeBody
	if err := bindValid(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if err := req.complete(); err != nil {
		return writeError(c, h.log, err)
	}
	var d model.Dome
	if err := req.applyTo(&d); err != nil {
		return writeError(c, h.log, err)
	}
	d, err := h.Domes.Create(c.Request().Context(), d)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, h.ser.dome(d))
}

// UpdateDome serves PUT (every field required) and PATCH.
func (h *CatalogHandler) UpdateDome(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req domeBody
	if err := bindValid(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if c.Request().Method != http.MethodPatch {
		if err := req.complete(); err != nil {
			return writeError(c, h.log, err)
		}
	}
	ctx := c.Request().Context()
	d, err := h.Domes.Get(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := req.applyTo(&d); err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.Domes.Update(ctx, d); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, h.ser.dome(d))
}

// DeleteDome removes the dome with its sessions and tickets.
func (h *CatalogHandler) DeleteDome(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.Domes.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
