// Package router defines how HTTP routes are registered for the app.
package router

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/gateway"
	"github.com/parkease/parkease/internal/handler"
	"github.com/parkease/parkease/internal/middleware"
	"github.com/parkease/parkease/internal/model"
)

// RegisterShell registers the navigations and static surface behind the
// gateway's fetch policies: the app shell is network-first with an
// offline fallback, /data and tiles are cache-first.
func RegisterShell(e *echo.Echo, g *gateway.Gateway, publicDir string) {
	e.GET("/offline", g.Offline)

	// Navigations all render the app shell; client-side routing takes
	// it from there.
	index := func(c echo.Context) error {
		return c.File(filepath.Join(publicDir, "index.html"))
	}
	shell := e.Group("", g.ShellPolicy)
	shell.GET("/", index)
	shell.GET("/login", index)
	shell.GET("/dashboard", index)

	files := echo.WrapHandler(http.FileServer(http.Dir(publicDir)))
	assets := e.Group("", g.AssetPolicy)
	assets.GET("/manifest.json", files)
	assets.GET("/icons/*", files)

	data := e.Group("/data", g.DataPolicy)
	data.GET("/*", echo.WrapHandler(http.FileServer(http.Dir(publicDir))))

	e.GET("/tiles/:z/:x/:y", g.Tile)
}

// RegisterAuth registers the auth endpoints.  Register, login and
// refresh are open; logout and the profile sit behind the JWT check.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleUser, model.RolePremium, model.RoleOwner, model.RoleAdmin))
	auth.POST("/auth/logout", a.Logout)
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints: spot
// listing, search and filter, and the city list.  These read the local
// store directly, so no caching policy sits in front of them; a cached
// response here would keep serving availability counts that bookings
// have since changed.
func RegisterPublic(e *echo.Echo, s *handler.SpotHandler, c *handler.CityHandler, h *handler.HealthHandler, g *gateway.Gateway) {
	e.GET("/healthz", h.Health)

	pub := e.Group("/v1")
	pub.GET("/spots", s.List)
	pub.GET("/spots/search", s.Search)
	pub.GET("/spots/term", s.SearchTerm)
	pub.GET("/spots/filter", s.Filter)
	pub.GET("/spots/nearby", s.Nearby)
	pub.GET("/spots/:id", s.Get)
	pub.GET("/cities", c.List)
	pub.GET("/cities/:id", c.Get)

	// Geocoding manages its own caching.
	e.GET("/v1/geocode", g.Geocode)
	e.GET("/v1/geocode/reverse", g.ReverseGeocode)
}

// RegisterBookings registers the booking and payment endpoints behind
// JWT auth.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, g *gateway.Gateway, jwtSecret string) {
	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.POST("/bookings", b.Create)
	auth.GET("/bookings", b.ListMine)
	auth.GET("/bookings/:id", b.Get)
	auth.POST("/payments", p.Create)
	auth.GET("/bookings/:id/payments", p.ListByBooking)
	auth.POST("/notifications/push", g.Push)
}
