package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/database"
	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/repository"
	"github.com/parkease/parkease/internal/search"
)

func testSpotHandler(t *testing.T) *SpotHandler {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "handler.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	index := repository.NewSearchIndexRepo(db)
	spots := repository.NewSpotRepo(db, index)
	if err := spots.SaveAll(context.Background(), []model.ParkingSpot{
		{ID: "p1", Name: "Station Parking", Address: "MG Road, Bangalore", Lat: 12.9716, Lng: 77.5946, Price: 20, Type: model.SpotTypeOutdoor, AvailableSpots: 12},
		{ID: "p2", Name: "Mall Parking", Address: "Koramangala, Bangalore", Lat: 12.9346, Lng: 77.6146, Price: 40, Type: model.SpotTypeIndoor, AvailableSpots: 45, Covered: true},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewSpotHandler(spots, search.NewEngine(spots, index))
}

func get(t *testing.T, h echo.HandlerFunc, target string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func decodeSpots(t *testing.T, rec *httptest.ResponseRecorder) []model.ParkingSpot {
	t.Helper()
	var out []model.ParkingSpot
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestSpotList(t *testing.T) {
	h := testSpotHandler(t)
	rec := get(t, h.List, "/v1/spots")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeSpots(t, rec); len(got) != 2 {
		t.Errorf("List = %d spots, want 2", len(got))
	}
}

func TestSpotGet(t *testing.T) {
	h := testSpotHandler(t)

	rec := get(t, h.Get, "/v1/spots/p1", "id", "p1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var spot model.ParkingSpot
	if err := json.Unmarshal(rec.Body.Bytes(), &spot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if spot.Name != "Station Parking" {
		t.Errorf("Get = %+v", spot)
	}

	rec = get(t, h.Get, "/v1/spots/nope", "id", "nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing spot status = %d, want 404", rec.Code)
	}
}

func TestSpotSearchAndFilter(t *testing.T) {
	h := testSpotHandler(t)

	rec := get(t, h.Search, "/v1/spots/search?q=Koramangala")
	if got := decodeSpots(t, rec); len(got) != 1 || got[0].ID != "p2" {
		t.Errorf("search = %v", got)
	}

	// Clearing the search box returns nothing, not everything.
	rec = get(t, h.Search, "/v1/spots/search?q=")
	if got := decodeSpots(t, rec); len(got) != 0 {
		t.Errorf("blank search = %d spots, want 0", len(got))
	}

	rec = get(t, h.Filter, "/v1/spots/filter?minPrice=30&maxPrice=50&covered=true")
	if got := decodeSpots(t, rec); len(got) != 1 || got[0].ID != "p2" {
		t.Errorf("filter = %v", got)
	}

	rec = get(t, h.Filter, "/v1/spots/filter?type=all")
	if got := decodeSpots(t, rec); len(got) != 2 {
		t.Errorf("wildcard filter = %d spots, want 2", len(got))
	}
}

func TestSpotNearby(t *testing.T) {
	h := testSpotHandler(t)

	// Origin on p1 with a tight radius excludes p2.
	rec := get(t, h.Nearby, "/v1/spots/nearby?lat=12.9716&lng=77.5946&radius=1")
	var got []search.SpotWithDistance
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" || got[0].DistanceKm != 0 {
		t.Errorf("nearby = %v", got)
	}

	// Bad coordinates fall back to the default center instead of erroring.
	rec = get(t, h.Nearby, "/v1/spots/nearby?lat=abc&lng=xyz&radius=50")
	if rec.Code != http.StatusOK {
		t.Errorf("nearby with bad coords status = %d, want 200", rec.Code)
	}
}
