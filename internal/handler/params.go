package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
)

// pathID parses a positive numeric path parameter.  A malformed id is
// reported as not found, the same as an id that does not exist.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%s %q: %w", name, c.Param(name), repository.ErrNotFound)
	}
	return id, nil
}

// queryIDs parses a comma separated id list such as "1,2,3".  An absent
// parameter yields nil.
func queryIDs(c echo.Context, name string) ([]uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, repository.NewValidationError(name, fmt.Sprintf("invalid id %q.", p))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func queryID(c echo.Context, name string) (*uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, repository.NewValidationError(name, fmt.Sprintf("invalid id %q.", raw))
	}
	return &id, nil
}

// queryDate parses YYYY-MM-DD as a UTC calendar day.
func queryDate(c echo.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
	if err != nil {
		return nil, repository.NewValidationError(name, "date has wrong format, use YYYY-MM-DD.")
	}
	return &d, nil
}
