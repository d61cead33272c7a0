package model

import (
	"fmt"
	"time"
)

// MapTile is an opaque cached raster tile keyed by its XYZ address.
// Tiles are written by the precache routine and read by tile serving.
type MapTile struct {
	ID        string    `json:"id"` // "zoom/x/y"
	Zoom      int       `json:"zoom"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Payload   []byte    `json:"-"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// TileID builds the store key for an XYZ tile address.
func TileID(zoom, x, y int) string {
	return fmt.Sprintf("%d/%d/%d", zoom, x, y)
}
