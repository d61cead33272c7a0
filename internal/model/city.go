package model

// City is a seed-only record describing a supported city and its default
// map viewport.  Cities are written once by the seed import and read-only
// at runtime.
type City struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	State string  `json:"state"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Zoom  int     `json:"zoom"`
}
