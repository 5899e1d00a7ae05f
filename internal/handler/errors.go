package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/logger"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
)

// writeError turns an error returned by a repository or the reservation
// service into a JSON response.  Unknown errors are logged and reported
// as a bare 500.
func writeError(c echo.Context, log *logger.Logger, err error) error {
	var ve *repository.ValidationError
	if errors.As(err, &ve) {
		body := echo.Map{"error": "validation_error", "field": ve.Field, "message": ve.Message}
		if ve.Range != nil {
			body["range"] = ve.Range
		}
		if ve.Index != nil {
			body["index"] = *ve.Index
		}
		return c.JSON(http.StatusBadRequest, body)
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": err.Error()})
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		return c.JSON(he.Code, echo.Map{"error": http.StatusText(he.Code), "message": fmt.Sprint(he.Message)})
	}
	log.Error("HTTP", fmt.Sprintf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
}

// badBody is returned when the request body cannot be decoded at all.
func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}
