package gateway

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/config"
	"github.com/parkease/parkease/internal/connectivity"
	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/repository"
	"github.com/parkease/parkease/internal/syncq"
)

// Gateway intercepts requests and applies a per-class fetch policy.
// Tiles and bulk data are cache-first, navigations are network-first
// with an offline page as the last resort, and generic assets are
// cache-first with a TTL.
type Gateway struct {
	cfg    config.GatewayConfig
	cache  Cache
	tiles  *repository.TileRepo
	status *connectivity.Status
	tasks  syncq.Registrar
	client *http.Client

	fallbackOnce sync.Once
	fallbackPNG  []byte
}

// New builds a Gateway.  status and tasks may not be nil; pass a
// MemoryCache when redis is unavailable.
func New(cfg config.GatewayConfig, cache Cache, tiles *repository.TileRepo, status *connectivity.Status, tasks syncq.Registrar, client *http.Client) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: cfg.UpstreamTimeout}
	}
	return &Gateway{
		cfg:    cfg,
		cache:  cache,
		tiles:  tiles,
		status: status,
		tasks:  tasks,
		client: client,
	}
}

// routeKey identifies a request inside a named cache.  The raw request
// URI keeps query-distinct responses distinct.
func routeKey(c echo.Context) string {
	return c.Request().Method + " " + c.Request().URL.RequestURI()
}

// replay writes a cached payload back to the client.
func replay(c echo.Context, payload []byte) bool {
	status, hdr, body, ok := decodePayload(payload)
	if !ok {
		return false
	}
	for k, vals := range hdr {
		if http.CanonicalHeaderKey(k) == "Content-Length" {
			continue
		}
		for _, v := range vals {
			c.Response().Header().Add(k, v)
		}
	}
	c.Response().Header().Set("X-Cache", "HIT")
	c.Response().WriteHeader(status)
	if len(body) > 0 {
		_, _ = c.Response().Write(body)
	}
	return true
}

// bufferWriter holds the response back until the policy decides whether
// to deliver it or substitute a cached one.  Unlike a tee it never
// forwards while capturing.
type bufferWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (bw *bufferWriter) WriteHeader(code int)        { bw.status = code }
func (bw *bufferWriter) Write(b []byte) (int, error) { return bw.buf.Write(b) }

// runBuffered executes next with the response buffered and reports the
// captured status and body.  The real writer is restored before return.
func runBuffered(c echo.Context, next echo.HandlerFunc) (status int, body []byte, err error) {
	orig := c.Response().Writer
	bw := &bufferWriter{ResponseWriter: orig, status: http.StatusOK}
	c.Response().Writer = bw
	err = next(c)
	c.Response().Writer = orig
	c.Response().Committed = false
	return bw.status, bw.buf.Bytes(), err
}

// deliver flushes a buffered response to the client.
func deliver(c echo.Context, status int, body []byte) error {
	c.Response().WriteHeader(status)
	if len(body) > 0 {
		_, _ = c.Response().Write(body)
	}
	return nil
}

// snapshot copies the response headers accumulated so far.
func snapshot(c echo.Context) http.Header {
	src := c.Response().Header()
	hdr := make(http.Header, len(src))
	for k, vals := range src {
		vv := make([]string, len(vals))
		copy(vv, vals)
		hdr[k] = vv
	}
	return hdr
}

func (g *Gateway) store(c echo.Context, cacheName string, status int, body []byte, ttl time.Duration) {
	if g.cfg.MaxBodyBytes > 0 && len(body) > g.cfg.MaxBodyBytes {
		return
	}
	payload, err := encodePayload(status, snapshot(c), body)
	if err != nil {
		return
	}
	g.cache.Set(c.Request().Context(), cacheName, routeKey(c), payload, ttl)
}

// ShellPolicy serves navigations network-first.  A failed or 5xx
// render falls back to the cached copy of the same route and finally
// to the offline page.  Successful renders refresh the cache.
func (g *Gateway) ShellPolicy(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		key := routeKey(c)

		if g.status.Online() {
			status, body, err := runBuffered(c, next)
			if err == nil && status < http.StatusInternalServerError {
				if status == http.StatusOK {
					g.store(c, g.cfg.PrimaryCache, status, body, 0)
				}
				return deliver(c, status, body)
			}
		}
		if payload, ok := g.cache.Get(ctx, g.cfg.PrimaryCache, key); ok && replay(c, payload) {
			return nil
		}
		if payload, ok := g.cache.Get(ctx, g.cfg.PrimaryCache, "GET "+g.cfg.OfflinePath); ok && replay(c, payload) {
			return nil
		}
		return c.HTML(http.StatusOK, offlinePage)
	}
}

// DataPolicy serves bulk data cache-first.  Entries never expire; once
// a dataset has been downloaded it stays available offline until a new
// cache generation evicts it.
func (g *Gateway) DataPolicy(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if payload, ok := g.cache.Get(c.Request().Context(), g.cfg.PrimaryCache, routeKey(c)); ok && replay(c, payload) {
			return nil
		}
		status, body, err := runBuffered(c, next)
		if err != nil {
			return err
		}
		if status == http.StatusOK {
			g.store(c, g.cfg.PrimaryCache, status, body, 0)
		}
		return deliver(c, status, body)
	}
}

// AssetPolicy serves generic assets cache-first with a TTL, caching
// only successful responses.
func (g *Gateway) AssetPolicy(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if payload, ok := g.cache.Get(c.Request().Context(), g.cfg.PrimaryCache, routeKey(c)); ok && replay(c, payload) {
			return nil
		}
		status, body, err := runBuffered(c, next)
		if err != nil {
			return err
		}
		if status == http.StatusOK {
			g.store(c, g.cfg.PrimaryCache, status, body, g.cfg.AssetTTL)
		}
		return deliver(c, status, body)
	}
}

// Tile proxies a map tile.  Lookup order is tile cache, persisted tile
// store, upstream fetch; when everything fails the client still gets a
// valid placeholder tile with status 200, never an error.
func (g *Gateway) Tile(c echo.Context) error {
	ctx := c.Request().Context()

	z, errZ := strconv.Atoi(c.Param("z"))
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(strings.TrimSuffix(c.Param("y"), ".png"))
	if errZ != nil || errX != nil || errY != nil {
		return servePNG(c, g.fallbackTile())
	}
	id := model.TileID(z, x, y)

	if bs, ok := g.cache.Get(ctx, g.cfg.TileCache, id); ok {
		return servePNG(c, bs)
	}
	if tile, err := g.tiles.Get(ctx, id); err == nil {
		g.cache.Set(ctx, g.cfg.TileCache, id, tile.Payload, 0)
		return servePNG(c, tile.Payload)
	}

	if g.status.Online() {
		if bs, err := g.fetchTile(ctx, z, x, y); err == nil {
			g.cache.Set(ctx, g.cfg.TileCache, id, bs, 0)
			if err := g.tiles.Put(ctx, model.MapTile{ID: id, Zoom: z, X: x, Y: y, Payload: bs}); err != nil {
				log.Printf("gateway: persist tile %s: %v", id, err)
			}
			return servePNG(c, bs)
		}
	}

	// Remember that tiles are missing so they get fetched when the
	// network returns.
	_ = g.tasks.Register(ctx, syncq.TaskSyncMapTiles)
	return servePNG(c, g.fallbackTile())
}

func servePNG(c echo.Context, data []byte) error {
	return c.Blob(http.StatusOK, "image/png", data)
}

// fetchTile downloads one tile from the upstream server, rotating
// subdomains the way slippy-map clients do.
func (g *Gateway) fetchTile(ctx context.Context, z, x, y int) ([]byte, error) {
	sub := "a"
	if n := len(g.cfg.TileSubdomains); n > 0 {
		sub = g.cfg.TileSubdomains[(x+y)%n]
	}
	url := fmt.Sprintf(g.cfg.TileURLPattern, sub, z, x, y)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "parkease/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile upstream status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, int64(g.cfg.MaxBodyBytes)))
}

// fallbackTile renders the neutral placeholder tile once and reuses the
// encoded bytes.
func (g *Gateway) fallbackTile() []byte {
	g.fallbackOnce.Do(func() {
		const size = 256
		img := image.NewRGBA(image.Rect(0, 0, size, size))
		bg := color.RGBA{R: 0xEE, G: 0xEE, B: 0xEE, A: 0xFF}
		grid := color.RGBA{R: 0xD4, G: 0xD4, B: 0xD4, A: 0xFF}
		for yy := 0; yy < size; yy++ {
			for xx := 0; xx < size; xx++ {
				if xx == 0 || yy == 0 || xx%64 == 0 || yy%64 == 0 {
					img.Set(xx, yy, grid)
				} else {
					img.Set(xx, yy, bg)
				}
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			// A 1x1 transparent PNG, pre-encoded, in case encoding the
			// placeholder ever fails.
			g.fallbackPNG = []byte{
				0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D,
				0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
				0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4, 0x89, 0x00, 0x00, 0x00,
				0x0A, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
				0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00, 0x00, 0x00, 0x00, 0x49,
				0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82,
			}
			return
		}
		g.fallbackPNG = buf.Bytes()
	})
	return g.fallbackPNG
}

// Offline renders the offline page.
func (g *Gateway) Offline(c echo.Context) error {
	return c.HTML(http.StatusOK, offlinePage)
}

// pushPayload is the body of a push notification request.
type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Push accepts a notification payload and records the display intent.
func (g *Gateway) Push(c echo.Context) error {
	var p pushPayload
	if err := c.Bind(&p); err != nil || p.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid notification payload"})
	}
	if p.URL == "" {
		p.URL = "/"
	}
	log.Printf("notification: title=%q body=%q url=%q", p.Title, p.Body, p.URL)
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

const offlinePage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>ParkEase - Offline</title>
<style>
body { font-family: system-ui, sans-serif; display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; background: #f4f4f5; color: #18181b; }
.card { text-align: center; padding: 2rem; }
h1 { font-size: 1.5rem; }
p { color: #52525b; }
</style>
</head>
<body>
<div class="card">
<h1>You are offline</h1>
<p>ParkEase could not reach the network. Saved spots, bookings and downloaded map areas are still available.</p>
</div>
</body>
</html>
`
