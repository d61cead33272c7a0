package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/parkease/parkease/internal/database"
	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/repository"
)

func f64(v float64) *float64 { return &v }
func b(v bool) *bool         { return &v }
func i(v int) *int           { return &v }

// Two spots mirroring the fallback dataset shape: A is a cheap open-air
// lot at the origin used by distance tests, B a pricier covered one.
func testSpots() []model.ParkingSpot {
	return []model.ParkingSpot{
		{
			ID: "a", Name: "Station Parking", Address: "MG Road, Bangalore",
			Description: "Open lot next to the metro",
			Lat:         12.9716, Lng: 77.5946,
			Price: 20, Type: model.SpotTypeOutdoor,
			AvailableSpots: 12, Security: true,
		},
		{
			ID: "b", Name: "Mall Parking", Address: "Koramangala, Bangalore",
			Description: "Covered multi-level parking",
			Lat:         12.9346, Lng: 77.6146,
			Price: 40, Type: model.SpotTypeIndoor,
			AvailableSpots: 45, Security: true, Covered: true, EV: true,
		},
	}
}

func testEngine(t *testing.T) (*Engine, context.Context) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "search.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	index := repository.NewSearchIndexRepo(db)
	spots := repository.NewSpotRepo(db, index)
	ctx := context.Background()
	if err := spots.SaveAll(ctx, testSpots()); err != nil {
		t.Fatalf("seed spots: %v", err)
	}
	return NewEngine(spots, index), ctx
}

func ids(spots []model.ParkingSpot) []string {
	out := make([]string, len(spots))
	for i, s := range spots {
		out[i] = s.ID
	}
	return out
}

func TestSearchByText(t *testing.T) {
	e, ctx := testEngine(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"matches address", "Koramangala", []string{"b"}},
		{"case insensitive", "koramangala", []string{"b"}},
		{"matches description", "metro", []string{"a"}},
		{"matches both", "Parking", []string{"a", "b"}},
		{"no match", "Whitefield", []string{}},
		{"blank returns empty", "   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(e.SearchByText(ctx, tt.query))
			if len(got) != len(tt.want) {
				t.Fatalf("SearchByText(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SearchByText(%q) = %v, want %v", tt.query, got, tt.want)
				}
			}
		})
	}
}

func TestSearchByIndexedTerm(t *testing.T) {
	e, ctx := testEngine(t)

	got, err := e.SearchByIndexedTerm(ctx, "koramangala")
	if err != nil {
		t.Fatalf("SearchByIndexedTerm: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("indexed lookup = %v, want [b]", ids(got))
	}

	// Prefix lookup resolves partial tokens too.
	got, err = e.SearchByIndexedTerm(ctx, "kora")
	if err != nil {
		t.Fatalf("SearchByIndexedTerm: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("prefix lookup = %v, want [b]", ids(got))
	}

	// Terms under the indexing threshold return empty.
	got, err = e.SearchByIndexedTerm(ctx, "mg")
	if err != nil {
		t.Fatalf("SearchByIndexedTerm: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("short term lookup = %v, want empty", ids(got))
	}
}

func TestFilterSpots(t *testing.T) {
	spots := testSpots()

	tests := []struct {
		name string
		f    Filters
		want []string
	}{
		{"no predicates match all", Filters{}, []string{"a", "b"}},
		{"type all is wildcard", Filters{Type: model.SpotTypeAll}, []string{"a", "b"}},
		{"price band and covered", Filters{MinPrice: f64(30), MaxPrice: f64(50), Covered: b(true)}, []string{"b"}},
		{"min price excludes cheap", Filters{MinPrice: f64(30)}, []string{"b"}},
		{"max price excludes expensive", Filters{MaxPrice: f64(30)}, []string{"a"}},
		{"type narrows", Filters{Type: model.SpotTypeOutdoor}, []string{"a"}},
		{"ev only", Filters{EV: b(true)}, []string{"b"}},
		{"min available", Filters{MinAvailable: i(20)}, []string{"b"}},
		{"conjunction can empty", Filters{Type: model.SpotTypeIndoor, MaxPrice: f64(30)}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterSpots(spots, tt.f))
			if len(got) != len(tt.want) {
				t.Fatalf("filter = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("filter = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSortByDistance(t *testing.T) {
	spots := testSpots()

	// Origin on spot A: A sorts first at distance zero.
	got := SortByDistance(spots, 12.9716, 77.5946)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("order = %v, want [a b]", []string{got[0].ID, got[1].ID})
	}
	if got[0].DistanceKm != 0 {
		t.Errorf("distance to self = %v, want 0", got[0].DistanceKm)
	}
	if got[1].DistanceKm <= 0 {
		t.Errorf("distance to b = %v, want > 0", got[1].DistanceKm)
	}
}

func TestNearby(t *testing.T) {
	spots := testSpots()

	// 1 km around spot A excludes B (about 4.7 km away).
	got := Nearby(spots, 12.9716, 77.5946, 1.0)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("nearby(1km) = %v, want [a]", len(got))
	}

	// A radius covering the whole city includes both, nearest first.
	got = Nearby(spots, 12.9716, 77.5946, 50)
	if len(got) != 2 || got[0].ID != "a" {
		t.Errorf("nearby(50km) should include both spots nearest-first")
	}
}
