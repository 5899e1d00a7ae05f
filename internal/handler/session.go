package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
)

type sessionBody struct {
	AstronomyShow   *uint64    `json:"astronomy_show" validate:"omitnil,min=1"`
	PlanetariumDome *uint64    `json:"planetarium_dome" validate:"omitnil,min=1"`
	ShowTime        *time.Time `json:"show_time"`
}

func (b sessionBody) complete() error {
	switch {
	case b.AstronomyShow == nil:
		return required("astronomy_show")
	case b.PlanetariumDome == nil:
		return required("planetarium_dome")
	case b.ShowTime == nil:
		return required("show_time")
	}
	return nil
}

func (b sessionBody) applyTo(s *model.Session) {
	if b.AstronomyShow != nil {
		s.ShowID = *b.AstronomyShow
	}
	if b.PlanetariumDome != nil {
		s.DomeID = *b.PlanetariumDome
	}
	if b.ShowTime != nil {
		s.ShowTime = *b.ShowTime
	}
}

// ListSessions returns sessions with fresh availability counts.  Filters:
// date=YYYY-MM-DD and astronomy_show=<id>.
func (h *CatalogHandler) ListSessions(c echo.Context) error {
	var (
		f   repository.SessionFilter
		err error
	)
	if f.Date, err = queryDate(c, "date"); err != nil {
		return writeError(c, h.log, err)
	}
	if f.ShowID, err = queryID(c, "astronomy_show"); err != nil {
		return writeError(c, h.log, err)
	}
	rows, err := h.Sessions.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]sessionListOut, 0, len(rows))
	for _, r := range rows {
		out = append(out, h.ser.sessionList(r))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetSession(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	d, err := h.Sessions.GetDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, h.ser.sessionDetail(d))
}

func (h *CatalogHandler) CreateSession(c echo.Context) error {
	var req sessionBody
	if err := bindValid(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if err := req.complete(); err != nil {
		return writeError(c, h.log, err)
	}
	var s model.Session
	req.applyTo(&s)
	s, err := h.Sessions.Create(c.Request().Context(), s)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, h.ser.sessionWrite(s))
}

func (h *CatalogHandler) UpdateSession(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req sessionBody
	if err := bindValid(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if c.Request().Method != http.MethodPatch {
		if err := req.complete(); err != nil {
			return writeError(c, h.log, err)
		}
	}
	ctx := c.Request().Context()
	s, err := h.Sessions.Get(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	req.applyTo(&s)
	s, err = h.Sessions.Update(ctx, s)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, h.ser.sessionWrite(s))
}

// DeleteSession removes a session and its tickets.
func (h *CatalogHandler) DeleteSession(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.Sessions.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
