package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/storage"
)

type showBody struct {
	Title       *string   `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string   `json:"description" validate:"omitnil,min=1"`
	ShowThemes  *[]uint64 `json:"show_themes" validate:"omitnil,dive,min=1"`
}

func (b showBody) complete() error {
	switch {
	case b.Title == nil:
		return required("title")
	case b.Description == nil:
		return required("description")
	}
	return nil
}

// applyTo copies the present fields onto s and returns the theme ids to
// store.  Absent show_themes keeps the current set.
func (b showBody) applyTo(s *model.Show) ([]uint64, error) {
	if b.Title != nil {
		if s.Title = strings.TrimSpace(*b.Title); s.Title == "" {
			return nil, blank("title")
		}
	}
	if b.Description != nil {
		s.Description = *b.Description
	}
	if b.ShowThemes != nil {
		return *b.ShowThemes, nil
	}
	return s.ThemeIDs(), nil
}

func (h *CatalogHandler) ListShows(c echo.Context) error {
	themeIDs, err := queryIDs(c, "show_themes")
	if err != nil {
		return writeError(c, h.log, err)
	}
	shows, err := h.Shows.List(c.Request().Context(), repository.ShowFilter{
		Title:    c.QueryParam("title"),
		ThemeIDs: themeIDs,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]any, 0, len(shows))
	for _, s := range shows {
		body, err := h.ser.shows.render(actionList, s)
		if err != nil {
			return writeError(c, h.log, err)
		}
		out = append(out, body)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetShow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	s, err := h.Shows.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, h.log, http.StatusOK, h.ser.shows, actionRetrieve, s)
}

func (h *CatalogHandler) CreateShow(c echo.Context) error {
	var req showBody
	if err := bindValid(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if err := req.complete(); err != nil {
		return writeError(c, h.log, err)
	}
	var s model.Show
	themeIDs, err := req.applyTo(&s)
	if err != nil {
		return writeError(c, h.log, err)
	}
	s, err = h.Shows.Create(c.Request().Context(), s, themeIDs)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, h.log, http.StatusCreated, h.ser.shows, actionWrite, s)
}

// UpdateShow serves PUT and PATCH.  The image cannot be changed here.
func (h *CatalogHandler) UpdateShow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req showBody
	if err := bindValid(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if c.Request().Method != http.MethodPatch {
		if err := req.complete(); err != nil {
			return writeError(c, h.log, err)
		}
	}
	ctx := c.Request().Context()
	s, err := h.Shows.Get(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	themeIDs, err := req.applyTo(&s)
	if err != nil {
		return writeError(c, h.log, err)
	}
	s, err = h.Shows.Update(ctx, s, themeIDs)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, h.log, http.StatusOK, h.ser.shows, actionWrite, s)
}

// DeleteShow removes the show, its sessions and their tickets.
func (h *CatalogHandler) DeleteShow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.Shows.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadShowImage stores the multipart "image" file and records it on the
// show.  The key is built from the show title and a random uuid.
func (h *CatalogHandler) UploadShowImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if h.Images == nil {
		return writeError(c, h.log, errors.New("image storage is not configured"))
	}
	ctx := c.Request().Context()
	s, err := h.Shows.Get(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}

	if h.MaxUploadBytes > 0 {
		c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.MaxUploadBytes)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return writeError(c, h.log, repository.NewValidationError("image",
				fmt.Sprintf("file is larger than %d MB.", h.MaxUploadBytes>>20)))
		}
		return writeError(c, h.log, repository.NewValidationError("image", "no file was submitted."))
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, h.log, fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()

	// The declared part type is not trusted; sniff the leading bytes.
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return writeError(c, h.log, fmt.Errorf("read upload: %w", err))
	}
	head = head[:n]
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		return writeError(c, h.log, repository.NewValidationError("image", "upload a valid image."))
	}

	body := io.MultiReader(bytes.NewReader(head), f)
	stored, err := h.Images.Save(ctx, storage.ShowImageKey(s.Title, fh.Filename), body)
	if err != nil {
		return writeError(c, h.log, fmt.Errorf("save show image: %w", err))
	}
	if err := h.Shows.SetImage(ctx, id, stored); err != nil {
		return writeError(c, h.log, err)
	}
	s.Image = &stored
	h.log.Info("STORAGE", fmt.Sprintf("show %d image stored as %s", id, stored))
	return c.JSON(http.StatusOK, h.ser.showImage(s))
}
