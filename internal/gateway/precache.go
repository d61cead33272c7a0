package gateway

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/parkease/parkease/internal/geo"
	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/syncq"
)

// Precache warms the primary cache with the app-shell routes so that
// navigations keep working after connectivity drops.  baseURL is the
// server's own address; failures are logged per route and do not abort
// the rest of the warm-up.
func (g *Gateway) Precache(ctx context.Context, baseURL string) {
	for _, route := range g.cfg.PrecacheRoutes {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+route, nil)
		if err != nil {
			log.Printf("gateway: precache %s: %v", route, err)
			continue
		}
		resp, err := g.client.Do(req)
		if err != nil {
			log.Printf("gateway: precache %s: %v", route, err)
			continue
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, int64(g.cfg.MaxBodyBytes)))
		resp.Body.Close()
		if readErr != nil || resp.StatusCode != http.StatusOK {
			log.Printf("gateway: precache %s: status=%d err=%v", route, resp.StatusCode, readErr)
			continue
		}
		payload, err := encodePayload(resp.StatusCode, resp.Header, body)
		if err != nil {
			continue
		}
		g.cache.Set(ctx, g.cfg.PrimaryCache, "GET "+route, payload, 0)
	}
}

// Activate drops every cache generation except the current primary and
// tile caches.  Run after a successful warm-up so a version bump evicts
// the previous generation's entries in one sweep.
func (g *Gateway) Activate(ctx context.Context) error {
	return g.cache.DropExcept(ctx, g.cfg.PrimaryCache, g.cfg.TileCache)
}

// PrecacheTiles downloads the tiles covering the configured radius
// around a point at each configured zoom level.  Already-cached tiles
// are skipped.  Returns how many tiles were fetched; a tile that fails
// to download registers a deferred tile sync and does not abort the
// rest of the area.
func (g *Gateway) PrecacheTiles(ctx context.Context, lat, lng float64) (int, error) {
	fetched := 0
	failed := false
	for zoom := g.cfg.TileZoomMin; zoom <= g.cfg.TileZoomMax; zoom++ {
		for _, t := range geo.TilesCoveringRadius(lat, lng, zoom, g.cfg.TilePrecacheKm) {
			if err := ctx.Err(); err != nil {
				return fetched, err
			}
			id := model.TileID(t.Zoom, t.X, t.Y)
			if _, ok := g.cache.Get(ctx, g.cfg.TileCache, id); ok {
				continue
			}
			bs, err := g.fetchTile(ctx, t.Zoom, t.X, t.Y)
			if err != nil {
				failed = true
				continue
			}
			g.cache.Set(ctx, g.cfg.TileCache, id, bs, 0)
			if err := g.tiles.Put(ctx, model.MapTile{ID: id, Zoom: t.Zoom, X: t.X, Y: t.Y, Payload: bs}); err != nil {
				log.Printf("gateway: persist tile %s: %v", id, err)
			}
			fetched++
		}
	}
	if failed {
		_ = g.tasks.Register(ctx, syncq.TaskSyncMapTiles)
	}
	return fetched, nil
}
