package gateway

import (
	"io"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

// geocodeCacheTTL of zero keeps resolved answers forever; place names do
// not move.
const geocodeCacheTTL = 0

// Geocode forward-resolves a free-text place query through the upstream
// geocoder.  Answers are cached by query, and while offline a previously
// resolved query is served from cache; an unresolved one reports the
// offline condition instead of a transport error.
func (g *Gateway) Geocode(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q required"})
	}
	upstream := g.cfg.GeocodeURL + "/search?format=json&limit=5&q=" + url.QueryEscape(q)
	return g.geocodeThrough(c, "geocode:"+q, upstream)
}

// ReverseGeocode resolves coordinates to an address, with the same
// cache-then-upstream behavior as Geocode.
func (g *Gateway) ReverseGeocode(c echo.Context) error {
	lat, lng := c.QueryParam("lat"), c.QueryParam("lng")
	if lat == "" || lng == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lat and lng required"})
	}
	upstream := g.cfg.GeocodeURL + "/reverse?format=json&lat=" + url.QueryEscape(lat) + "&lon=" + url.QueryEscape(lng)
	return g.geocodeThrough(c, "reverse:"+lat+","+lng, upstream)
}

func (g *Gateway) geocodeThrough(c echo.Context, key, upstream string) error {
	ctx := c.Request().Context()

	if cached, ok := g.cache.Get(ctx, g.cfg.PrimaryCache, key); ok {
		return c.JSONBlob(http.StatusOK, cached)
	}
	if !g.status.Online() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "geocoding needs a network connection"})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, upstream, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "geocode request failed"})
	}
	req.Header.Set("User-Agent", "parkease/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "geocoder unreachable"})
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "geocoder error"})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(g.cfg.MaxBodyBytes)))
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "geocoder error"})
	}
	g.cache.Set(ctx, g.cfg.PrimaryCache, key, body, geocodeCacheTTL)
	return c.JSONBlob(http.StatusOK, body)
}
