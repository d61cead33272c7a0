package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/geo"
	"github.com/parkease/parkease/internal/repository"
	"github.com/parkease/parkease/internal/search"
)

// SpotHandler serves parking spot reads.  List endpoints degrade to an
// empty result rather than an error so the UI always renders, matching
// the store's read policy.
type SpotHandler struct {
	Spots  *repository.SpotRepo
	Engine *search.Engine
}

func NewSpotHandler(spots *repository.SpotRepo, engine *search.Engine) *SpotHandler {
	return &SpotHandler{Spots: spots, Engine: engine}
}

// List returns every stored spot.
func (h *SpotHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Spots.GetAll(c.Request().Context()))
}

// Get returns a single spot by id.
func (h *SpotHandler) Get(c echo.Context) error {
	s, err := h.Spots.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "spot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// Search runs a substring search over name, address and description.
func (h *SpotHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	return c.JSON(http.StatusOK, h.Engine.SearchByText(c.Request().Context(), q))
}

// SearchTerm resolves a single term through the prefix index.
func (h *SpotHandler) SearchTerm(c echo.Context) error {
	term := c.QueryParam("term")
	spots, err := h.Engine.SearchByIndexedTerm(c.Request().Context(), term)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "index lookup failed"})
	}
	return c.JSON(http.StatusOK, spots)
}

// Filter applies the structured filters from the query string.
func (h *SpotHandler) Filter(c echo.Context) error {
	var f search.Filters
	if v := c.QueryParam("minPrice"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinPrice = &n
		}
	}
	if v := c.QueryParam("maxPrice"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = &n
		}
	}
	f.Type = c.QueryParam("type")
	if v := c.QueryParam("covered"); v != "" {
		b := v == "true" || v == "1"
		f.Covered = &b
	}
	if v := c.QueryParam("ev"); v != "" {
		b := v == "true" || v == "1"
		f.EV = &b
	}
	if v := c.QueryParam("security"); v != "" {
		b := v == "true" || v == "1"
		f.Security = &b
	}
	if v := c.QueryParam("minAvailable"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MinAvailable = &n
		}
	}
	return c.JSON(http.StatusOK, h.Engine.Filter(c.Request().Context(), f))
}

// Nearby returns spots within a radius of a point, sorted by distance.
// Missing coordinates fall back to the default map center.
func (h *SpotHandler) Nearby(c echo.Context) error {
	lat := queryFloat(c, "lat", geo.DefaultLat)
	lng := queryFloat(c, "lng", geo.DefaultLng)
	radius := queryFloat(c, "radius", 5)

	spots := h.Spots.GetAll(c.Request().Context())
	return c.JSON(http.StatusOK, search.Nearby(spots, lat, lng, radius))
}

func queryFloat(c echo.Context, name string, def float64) float64 {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return n
}
