package model

// ParkingSpot is a single parking location with capacity, pricing and
// amenity information.  Spots are created by the bulk seed import and
// mutated only by booking creation, which decrements AvailableSpots
// (floored at zero).  They are never deleted in normal operation.
//
// Fields:
//  ID             – unique identifier (seed-assigned string).
//  Name           – display name, indexed for search.
//  Address        – street address, indexed for search.
//  Description    – free text, matched by substring search only.
//  Lat, Lng       – WGS84 coordinates.
//  Price          – non-negative amount per PriceUnit.
//  PriceUnit      – "hour" or "day".
//  Currency       – display symbol, e.g. "₹".
//  TotalSpots     – capacity; 0 <= AvailableSpots <= TotalSpots.
//  AvailableSpots – current free capacity.
//  Type           – "outdoor", "indoor", "underground" or "rooftop".
//  Security, CCTV, Covered, Handicapped, EV – amenity flags.
//  Hours          – display string, e.g. "24/7".
//  Rating         – 0–5 average.
//  Reviews        – non-negative review count.
//  Images         – ordered image URIs.
type ParkingSpot struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Description    string   `json:"description"`
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
	Price          float64  `json:"price"`
	PriceUnit      string   `json:"priceUnit"`
	Currency       string   `json:"currency"`
	TotalSpots     int      `json:"totalSpots"`
	AvailableSpots int      `json:"availableSpots"`
	Type           string   `json:"type"`
	Security       bool     `json:"security"`
	CCTV           bool     `json:"cctv"`
	Covered        bool     `json:"covered"`
	Handicapped    bool     `json:"handicapped"`
	EV             bool     `json:"ev"`
	Hours          string   `json:"hours"`
	Rating         float64  `json:"rating"`
	Reviews        int      `json:"reviews"`
	Images         []string `json:"images"`
}

// SpotType values accepted by the filter engine.  "all" is the wildcard.
const (
	SpotTypeAll         = "all"
	SpotTypeOutdoor     = "outdoor"
	SpotTypeIndoor      = "indoor"
	SpotTypeUnderground = "underground"
	SpotTypeRooftop     = "rooftop"
)
