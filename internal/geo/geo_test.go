package geo

import (
	"math"
	"testing"
)

func TestHaversineDistanceKm(t *testing.T) {
	// Distance to the same point is zero.
	if d := HaversineDistanceKm(12.9716, 77.5946, 12.9716, 77.5946); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}

	// Distance is symmetric.
	a := HaversineDistanceKm(12.9716, 77.5946, 19.076, 72.8777)
	b := HaversineDistanceKm(19.076, 72.8777, 12.9716, 77.5946)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}

	// Bangalore to Mumbai is roughly 840 km.
	if a < 800 || a > 900 {
		t.Errorf("Bangalore-Mumbai distance = %v km, want ~840", a)
	}

	// Two points ~1.11 km apart (0.01 degrees of latitude).
	d := HaversineDistanceKm(12.97, 77.59, 12.98, 77.59)
	if d < 1.0 || d > 1.2 {
		t.Errorf("0.01deg lat distance = %v km, want ~1.11", d)
	}
}

func TestTileForCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		zoom     int
		want     Tile
	}{
		{"origin at zoom 0", 0, 0, 0, Tile{Zoom: 0, X: 0, Y: 0}},
		{"origin at zoom 1", 0, 0, 1, Tile{Zoom: 1, X: 1, Y: 1}},
		{"date line clamps", 0, 180, 1, Tile{Zoom: 1, X: 1, Y: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TileForCoordinate(tt.lat, tt.lng, tt.zoom)
			if got != tt.want {
				t.Errorf("TileForCoordinate(%v, %v, %d) = %+v, want %+v", tt.lat, tt.lng, tt.zoom, got, tt.want)
			}
		})
	}
}

func TestTileForCoordinateInRange(t *testing.T) {
	for _, zoom := range []int{13, 14, 15} {
		tile := TileForCoordinate(DefaultLat, DefaultLng, zoom)
		max := 1 << zoom
		if tile.X < 0 || tile.X >= max || tile.Y < 0 || tile.Y >= max {
			t.Errorf("zoom %d: tile %+v out of range [0,%d)", zoom, tile, max)
		}
	}
}

func TestTilesCoveringRadius(t *testing.T) {
	tiles := TilesCoveringRadius(DefaultLat, DefaultLng, 14, 1.0)
	if len(tiles) == 0 {
		t.Fatal("no tiles returned")
	}

	center := TileForCoordinate(DefaultLat, DefaultLng, 14)
	found := false
	for _, tile := range tiles {
		if tile == center {
			found = true
		}
		if tile.Zoom != 14 {
			t.Errorf("tile %+v has wrong zoom", tile)
		}
	}
	if !found {
		t.Errorf("center tile %+v not in covering set", center)
	}

	// The block is square, so the count is a perfect square.
	n := int(math.Sqrt(float64(len(tiles))))
	if n*n != len(tiles) {
		t.Errorf("covering set size %d is not a square block", len(tiles))
	}
}
