// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/handler"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/middleware"
)

// Handlers is everything RegisterRoutes mounts.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Catalog      *handler.CatalogHandler
	Reservations *handler.ReservationHandler
}

// Options configures the cross-cutting middleware.
type Options struct {
	JWTSecret string
	Cache     *middleware.ResponseCache // nil disables response caching
	RateLimit echo.MiddlewareFunc     // nil disables rate limiting
	MediaURL  string                  // served from MediaDir when both are set
	MediaDir  string
}

func (o Options) rateLimit() echo.MiddlewareFunc {
	if o.RateLimit == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return o.RateLimit
}

// RegisterRoutes mounts every endpoint:
//
//	/healthz                     liveness
//	/api/user/...                accounts and tokens
//	/api/planetarium/...         catalog and reservations (JWT)
//	<MediaURL>/...               locally stored show images
func RegisterRoutes(e *echo.Echo, h Handlers, o Options) {
	if h.Health != nil {
		e.GET("/healthz", h.Health.Health)
	}
	if o.MediaURL != "" && o.MediaDir != "" {
		e.Static(o.MediaURL, o.MediaDir)
	}

	registerAuth(e, h.Auth, o)
	registerPlanetarium(e, h, o)
}

// registerAuth mounts the account endpoints under /api/user.  Only /me sits
// behind JWTAuth; logout checks the bearer itself.
func registerAuth(e *echo.Echo, a *handler.AuthHandler, o Options) {
	g := e.Group("/api/user", o.rateLimit())
	g.POST("/register", a.Register)
	g.POST("/token", a.Login)
	g.POST("/token/refresh", a.Refresh)
	g.POST("/token/access", a.RefreshAccess)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.JWTAuth(o.JWTSecret))
}

func registerPlanetarium(e *echo.Echo, h Handlers, o Options) {
	g := e.Group("/api/planetarium",
		middleware.JWTAuth(o.JWTSecret),
		o.rateLimit(),
		middleware.AdminOrReadOnly(),
	)

	// Theme, dome and show reads go through the response cache; any
	// successful catalog write invalidates it.
	cached := []echo.MiddlewareFunc{}
	invalidate := []echo.MiddlewareFunc{}
	if o.Cache != nil {
		cached = append(cached, o.Cache.Middleware())
		invalidate = append(invalidate, o.Cache.Invalidate())
	}

	c := h.Catalog
	crud(g, "/show_themes", cached, invalidate, c.ListThemes, c.GetTheme, c.CreateTheme, c.UpdateTheme, c.DeleteTheme)
	crud(g, "/planetarium_domes", cached, invalidate, c.ListDomes, c.GetDome, c.CreateDome, c.UpdateDome, c.DeleteDome)
	crud(g, "/astronomy_shows", cached, invalidate, c.ListShows, c.GetShow, c.CreateShow, c.UpdateShow, c.DeleteShow)
	g.POST("/astronomy_shows/:id/upload-image", c.UploadShowImage, invalidate...)

	// Sessions carry live availability and are never cached.  Their writes
	// still invalidate, since cascades can drop tickets shown elsewhere.
	crud(g, "/show_sessions", nil, invalidate, c.ListSessions, c.GetSession, c.CreateSession, c.UpdateSession, c.DeleteSession)

	r := h.Reservations
	res := e.Group("/api/planetarium/reservations", middleware.JWTAuth(o.JWTSecret), o.rateLimit())
	res.GET("", r.ListReservations)
	res.POST("", r.CreateReservation)
	res.GET("/:id", r.GetReservation)
	res.GET("/:id/tickets/:ticket_id/qr", r.TicketQR)
}

func crud(g *echo.Group, path string, read, write []echo.MiddlewareFunc, list, get, create, update, del echo.HandlerFunc) {
	g.GET(path, list, read...)
	g.GET(path+"/:id", get, read...)
	g.POST(path, create, write...)
	g.PUT(path+"/:id", update, write...)
	g.PATCH(path+"/:id", update, write...)
	g.DELETE(path+"/:id", del, write...)
}

