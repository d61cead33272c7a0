package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/config"
	"github.com/parkease/parkease/internal/connectivity"
	"github.com/parkease/parkease/internal/database"
	"github.com/parkease/parkease/internal/repository"
)

type fakeRegistrar struct {
	tasks []string
}

func (f *fakeRegistrar) Register(_ context.Context, task string) error {
	f.tasks = append(f.tasks, task)
	return nil
}

func testConfig() config.GatewayConfig {
	return config.GatewayConfig{
		PrimaryCache:    "parkease-v1",
		TileCache:       "parkease-maps-v1",
		OfflinePath:     "/offline",
		TileURLPattern:  "https://%s.tile.invalid/%d/%d/%d.png",
		TileSubdomains:  []string{"a"},
		AssetTTL:        time.Hour,
		MaxBodyBytes:    1 << 20,
		TilePrecacheKm:  1,
		TileZoomMin:     14,
		TileZoomMax:     14,
		UpstreamTimeout: time.Second,
	}
}

func testGateway(t *testing.T, online bool) (*Gateway, *MemoryCache, *fakeRegistrar) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "gw.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cache := NewMemoryCache()
	reg := &fakeRegistrar{}
	gw := New(testConfig(), cache, repository.NewTileRepo(db), connectivity.New(online), reg, &http.Client{Timeout: time.Second})
	return gw, cache, reg
}

func tileContext(e *echo.Echo, z, x, y string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/tiles/"+z+"/"+x+"/"+y+".png", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("z", "x", "y")
	c.SetParamValues(z, x, y+".png")
	return c, rec
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	cache.Set(ctx, "a", "k", []byte("v"), 0)
	if got, ok := cache.Get(ctx, "a", "k"); !ok || string(got) != "v" {
		t.Errorf("Get = %q, %v", got, ok)
	}

	// Expired entries stop being served.
	cache.Set(ctx, "a", "short", []byte("x"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	if _, ok := cache.Get(ctx, "a", "short"); ok {
		t.Error("expired entry still served")
	}

	// DropExcept removes whole cache generations.
	cache.Set(ctx, "old-v0", "k", []byte("stale"), 0)
	if err := cache.DropExcept(ctx, "a"); err != nil {
		t.Fatalf("DropExcept: %v", err)
	}
	if _, ok := cache.Get(ctx, "old-v0", "k"); ok {
		t.Error("dropped cache generation still served")
	}
	if _, ok := cache.Get(ctx, "a", "k"); !ok {
		t.Error("kept cache generation was evicted")
	}
}

func TestTileOfflineFallback(t *testing.T) {
	gw, _, reg := testGateway(t, false)
	e := echo.New()

	// Offline with nothing cached: a placeholder tile, never an error.
	c, rec := tileContext(e, "14", "11722", "7632")
	if err := gw.Tile(c); err != nil {
		t.Fatalf("Tile: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
		t.Errorf("content type = %q, want image/png", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty tile body")
	}

	// The miss queues a deferred tile sync.
	if len(reg.tasks) != 1 || reg.tasks[0] != "sync-map-tiles" {
		t.Errorf("registered tasks = %v, want [sync-map-tiles]", reg.tasks)
	}
}

func TestTileCacheHit(t *testing.T) {
	gw, cache, reg := testGateway(t, false)
	e := echo.New()

	payload := []byte("png-bytes")
	cache.Set(context.Background(), testConfig().TileCache, "14/1/2", payload, 0)

	c, rec := tileContext(e, "14", "1", "2")
	if err := gw.Tile(c); err != nil {
		t.Fatalf("Tile: %v", err)
	}
	if rec.Body.String() != "png-bytes" {
		t.Errorf("body = %q, want cached payload", rec.Body.String())
	}
	if len(reg.tasks) != 0 {
		t.Errorf("cache hit registered sync tasks: %v", reg.tasks)
	}
}

func TestDataPolicyCachesForever(t *testing.T) {
	gw, _, _ := testGateway(t, true)
	e := echo.New()

	calls := 0
	h := gw.DataPolicy(func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, map[string]string{"hello": "world"})
	})

	run := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/data/parking-spots.json", nil)
		rec := httptest.NewRecorder()
		if err := h(e.NewContext(req, rec)); err != nil {
			t.Fatalf("handler: %v", err)
		}
		return rec
	}

	first := run()
	if calls != 1 || first.Code != http.StatusOK {
		t.Fatalf("first call: calls=%d status=%d", calls, first.Code)
	}

	// The second request replays the cached body without running the
	// handler again.
	second := run()
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replayed body differs: %q vs %q", second.Body.String(), first.Body.String())
	}
	if second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("X-Cache = %q, want HIT", second.Header().Get("X-Cache"))
	}
}

func TestShellPolicyOfflineFallsBackToOfflinePage(t *testing.T) {
	gw, _, _ := testGateway(t, false)
	e := echo.New()

	h := gw.ShellPolicy(func(c echo.Context) error {
		t.Fatal("handler must not run while offline")
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "offline") {
		t.Errorf("offline page not served: %q", rec.Body.String())
	}
}

func TestShellPolicyServesCachedRouteWhenOffline(t *testing.T) {
	gw, cache, _ := testGateway(t, false)
	e := echo.New()

	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"text/html"}}, []byte("cached dashboard"))
	if err != nil {
		t.Fatalf("encodePayload: %v", err)
	}
	cache.Set(context.Background(), testConfig().PrimaryCache, "GET /dashboard", payload, 0)

	h := gw.ShellPolicy(func(c echo.Context) error {
		t.Fatal("handler must not run while offline")
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Body.String() != "cached dashboard" {
		t.Errorf("body = %q, want cached route", rec.Body.String())
	}
}

func TestGeocodeOffline(t *testing.T) {
	gw, cache, _ := testGateway(t, false)
	e := echo.New()

	// Offline without a cached answer reports the condition.
	req := httptest.NewRequest(http.MethodGet, "/v1/geocode?q=MG+Road", nil)
	rec := httptest.NewRecorder()
	if err := gw.Geocode(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("uncached offline status = %d, want 503", rec.Code)
	}

	// A previously resolved query keeps answering offline.
	cache.Set(context.Background(), testConfig().PrimaryCache, "geocode:MG Road", []byte(`[{"display_name":"MG Road"}]`), 0)
	req = httptest.NewRequest(http.MethodGet, "/v1/geocode?q=MG+Road", nil)
	rec = httptest.NewRecorder()
	if err := gw.Geocode(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "display_name") {
		t.Errorf("cached offline answer = %d %q", rec.Code, rec.Body.String())
	}

	// Missing query is a client error, not a lookup.
	req = httptest.NewRequest(http.MethodGet, "/v1/geocode", nil)
	rec = httptest.NewRecorder()
	if err := gw.Geocode(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing q status = %d, want 400", rec.Code)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	payload, err := encodePayload(http.StatusCreated, hdr, []byte(`{"ok":true}`))
	if err != nil {
		t.Fatalf("encodePayload: %v", err)
	}

	status, gotHdr, body, ok := decodePayload(payload)
	if !ok {
		t.Fatal("decodePayload failed")
	}
	if status != http.StatusCreated || gotHdr.Get("Content-Type") != "application/json" || string(body) != `{"ok":true}` {
		t.Errorf("round trip mismatch: %d %v %s", status, gotHdr, body)
	}

	// Truncated payloads are rejected, not misparsed.
	if _, _, _, ok := decodePayload(payload[:5]); ok {
		t.Error("truncated payload decoded")
	}
}
