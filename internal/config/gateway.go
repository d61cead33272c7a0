package config

import "time"

// GatewayConfig defines the named caches and fetch policies of the
// offline gateway.  PrimaryCache holds app-shell routes and data
// responses; TileCache holds map tiles and is versioned separately so
// an app-shell release does not throw away downloaded map areas.
type GatewayConfig struct {
	PrimaryCache    string
	TileCache       string
	PrecacheRoutes  []string
	OfflinePath     string
	TileURLPattern  string
	TileSubdomains  []string
	AssetTTL        time.Duration
	MaxBodyBytes    int
	GeocodeURL      string
	TilePrecacheKm  float64
	TileZoomMin     int
	TileZoomMax     int
	UpstreamTimeout time.Duration
}

func LoadGatewayConfig() GatewayConfig {
	cfg := GatewayConfig{
		PrimaryCache: getenv("GATEWAY_PRIMARY_CACHE", "parkease-v1"),
		TileCache:    getenv("GATEWAY_TILE_CACHE", "parkease-maps-v1"),
		PrecacheRoutes: envList("GATEWAY_PRECACHE_ROUTES", []string{
			"/",
			"/offline",
			"/login",
			"/dashboard",
			"/manifest.json",
			"/icons/icon-192.png",
			"/icons/icon-512.png",
		}),
		OfflinePath:     getenv("GATEWAY_OFFLINE_PATH", "/offline"),
		TileURLPattern:  getenv("GATEWAY_TILE_URL_PATTERN", "https://%s.tile.openstreetmap.org/%d/%d/%d.png"),
		TileSubdomains:  envList("GATEWAY_TILE_SUBDOMAINS", []string{"a", "b", "c"}),
		AssetTTL:        envDur("GATEWAY_ASSET_TTL", 24*time.Hour),
		MaxBodyBytes:    envInt("GATEWAY_MAX_BODY_BYTES", 1<<20),
		GeocodeURL:      getenv("GATEWAY_GEOCODE_URL", "https://nominatim.openstreetmap.org"),
		TilePrecacheKm:  1.0,
		TileZoomMin:     envInt("GATEWAY_TILE_ZOOM_MIN", 13),
		TileZoomMax:     envInt("GATEWAY_TILE_ZOOM_MAX", 15),
		UpstreamTimeout: envDur("GATEWAY_UPSTREAM_TIMEOUT", 10*time.Second),
	}
	if cfg.TileZoomMax < cfg.TileZoomMin {
		cfg.TileZoomMax = cfg.TileZoomMin
	}
	return cfg
}
