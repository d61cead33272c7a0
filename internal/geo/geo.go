// Package geo provides pure coordinate math used by the search engine and
// the tile cache: great-circle distance, Web-Mercator tile addressing and
// enumeration of the tile block covering a caching radius.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used for haversine distances.
const earthRadiusKm = 6371

// tileSizePx is the pixel size of an OSM-compatible raster tile.
const tileSizePx = 256

// DefaultLat and DefaultLng locate the Bangalore city centre.  Callers fall
// back to this point whenever geolocation is denied, times out or is simply
// unavailable; "no location" is a normal input, never an error.
const (
	DefaultLat = 12.9716
	DefaultLng = 77.5946
)

// HaversineDistanceKm returns the great-circle distance in kilometres
// between two WGS84 coordinates.  The result is symmetric and is zero
// exactly when both coordinates are equal.
func HaversineDistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLng := deg2rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func deg2rad(deg float64) float64 { return deg * (math.Pi / 180) }

// Tile identifies a slippy-map raster tile in standard XYZ addressing.
type Tile struct {
	Zoom int `json:"zoom"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

// TileForCoordinate converts a WGS84 coordinate to the XYZ tile containing
// it at the given zoom.  The scheme matches OpenStreetMap-compatible tile
// servers exactly, since cached tile URLs are constructed from the result.
// X and Y are clamped into [0, 2^zoom) so extreme latitudes and the 180th
// meridian still address a valid tile.
func TileForCoordinate(lat, lng float64, zoom int) Tile {
	n := math.Pow(2, float64(zoom))
	x := int(math.Floor((lng + 180) / 360 * n))
	latRad := deg2rad(lat)
	y := int(math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n))
	max := int(n) - 1
	if x < 0 {
		x = 0
	} else if x > max {
		x = max
	}
	if y < 0 {
		y = 0
	} else if y > max {
		y = max
	}
	return Tile{Zoom: zoom, X: x, Y: y}
}

// TilesCoveringRadius enumerates the square block of tiles whose pixel
// footprint at the given zoom covers at least radiusKm around the centre.
// The square over-covers the circle; the extra tiles are cheap and keep
// the enumeration trivial.  The returned tiles are clamped to the valid
// range so the block never wraps around the antimeridian.
func TilesCoveringRadius(lat, lng float64, zoom int, radiusKm float64) []Tile {
	center := TileForCoordinate(lat, lng, zoom)

	// Metres per pixel at this latitude and zoom, per the Web-Mercator
	// ground-resolution formula.
	metersPerPixel := 156543.03392 * math.Cos(deg2rad(lat)) / math.Pow(2, float64(zoom))
	pixelsForRadius := radiusKm * 1000 / metersPerPixel
	span := int(math.Ceil(pixelsForRadius / tileSizePx))

	max := int(math.Pow(2, float64(zoom))) - 1
	tiles := make([]Tile, 0, (2*span+1)*(2*span+1))
	for x := center.X - span; x <= center.X+span; x++ {
		if x < 0 || x > max {
			continue
		}
		for y := center.Y - span; y <= center.Y+span; y++ {
			if y < 0 || y > max {
				continue
			}
			tiles = append(tiles, Tile{Zoom: zoom, X: x, Y: y})
		}
	}
	return tiles
}
