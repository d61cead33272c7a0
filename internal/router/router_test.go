package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/config"
	"github.com/parkease/parkease/internal/connectivity"
	"github.com/parkease/parkease/internal/database"
	"github.com/parkease/parkease/internal/gateway"
	"github.com/parkease/parkease/internal/handler"
	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/repository"
	"github.com/parkease/parkease/internal/search"
)

func testApp(t *testing.T) (*echo.Echo, *repository.BookingRepo) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	index := repository.NewSearchIndexRepo(db)
	spots := repository.NewSpotRepo(db, index)
	if err := spots.SaveAll(context.Background(), []model.ParkingSpot{
		{ID: "p1", Name: "Station Parking", Address: "MG Road, Bangalore", Price: 20, Type: model.SpotTypeOutdoor, TotalSpots: 10, AvailableSpots: 5},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	bookings := repository.NewBookingRepo(db, spots, nil)

	cfg := config.GatewayConfig{
		PrimaryCache:    "parkease-v1",
		TileCache:       "parkease-maps-v1",
		OfflinePath:     "/offline",
		TileURLPattern:  "https://%s.tile.invalid/%d/%d/%d.png",
		TileSubdomains:  []string{"a"},
		AssetTTL:        time.Hour,
		MaxBodyBytes:    1 << 20,
		UpstreamTimeout: time.Second,
	}
	gw := gateway.New(cfg, gateway.NewMemoryCache(), repository.NewTileRepo(db), connectivity.New(true), nil, &http.Client{Timeout: time.Second})

	e := echo.New()
	RegisterPublic(e,
		handler.NewSpotHandler(spots, search.NewEngine(spots, index)),
		handler.NewCityHandler(repository.NewCityRepo(db)),
		handler.NewHealthHandler(connectivity.New(true)),
		gw)
	return e, bookings
}

func listSpots(t *testing.T, e *echo.Echo) []model.ParkingSpot {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/spots", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/spots = %d", rec.Code)
	}
	var out []model.ParkingSpot
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// Spot reads must reflect bookings committed after an earlier read; the
// availability count comes straight from the store on every request.
func TestSpotReadsStayFreshAfterBooking(t *testing.T) {
	e, bookings := testApp(t)

	before := listSpots(t, e)
	if len(before) != 1 || before[0].AvailableSpots != 5 {
		t.Fatalf("before = %+v, want p1 with 5 available", before)
	}

	b := &model.Booking{UserID: "u_1", SpotID: "p1", Date: "2026-09-01", StartTime: "10:00", EndTime: "12:00", Price: 40}
	if err := bookings.Create(context.Background(), b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	after := listSpots(t, e)
	if len(after) != 1 || after[0].AvailableSpots != 4 {
		t.Errorf("after booking = %+v, want 4 available", after)
	}
}
