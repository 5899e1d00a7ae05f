package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness together with the state of the
// database and the optional Redis connection.
type HealthHandler struct {
	DB    *sql.DB
	Redis *redis.Client
}

// Health returns 200 while the database answers a ping and 503 otherwise.
// Redis is informational because every Redis feature degrades to
// pass-through.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	db := "ok"
	if h.DB == nil || h.DB.PingContext(ctx) != nil {
		status, code, db = "degraded", http.StatusServiceUnavailable, "unavailable"
	}
	rdb := "disabled"
	if h.Redis != nil {
		rdb = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			rdb = "unavailable"
		}
	}
	return c.JSON(code, echo.Map{"status": status, "database": db, "redis": rdb})
}
