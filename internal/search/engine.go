// Package search answers substring search and multi-predicate filter
// queries over the full parking-spot snapshot, entirely on-device.  The
// dataset is sized for an offline cache (tens to low hundreds of
// records), so there is no query planner and no pagination.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/parkease/parkease/internal/geo"
	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/repository"
)

// Engine runs search and filter queries against the local store.
type Engine struct {
	spots *repository.SpotRepo
	index *repository.SearchIndexRepo
}

// NewEngine returns an Engine over the given repositories.
func NewEngine(spots *repository.SpotRepo, index *repository.SearchIndexRepo) *Engine {
	return &Engine{spots: spots, index: index}
}

// SearchByText returns spots whose name, address or description contains
// the query, case-insensitively.  An empty or whitespace-only query
// returns an empty result set, not "match all": clearing a search box
// must never flood the caller.
//
// This is live substring matching over the snapshot.  It can disagree
// with SearchByIndexedTerm, which only does whole-token prefix lookup;
// the two paths are deliberately kept separate.
func (e *Engine) SearchByText(ctx context.Context, query string) []model.ParkingSpot {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []model.ParkingSpot{}
	}
	out := make([]model.ParkingSpot, 0)
	for _, s := range e.spots.GetAll(ctx) {
		if strings.Contains(strings.ToLower(s.Name), q) ||
			strings.Contains(strings.ToLower(s.Address), q) ||
			strings.Contains(strings.ToLower(s.Description), q) {
			out = append(out, s)
		}
	}
	return out
}

// SearchByIndexedTerm resolves a pre-tokenized term (>= 3 characters)
// through the derived inverted index, unions the matching spot ids and
// rehydrates full records.  Shorter terms return empty: they are never
// indexed, so there is nothing to fall back to.
func (e *Engine) SearchByIndexedTerm(ctx context.Context, term string) ([]model.ParkingSpot, error) {
	ids, err := e.index.LookupTerm(ctx, term)
	if err != nil {
		return nil, err
	}
	out := make([]model.ParkingSpot, 0, len(ids))
	for _, id := range ids {
		spot, err := e.spots.GetByID(ctx, id)
		if err == repository.ErrNotFound {
			// Stale index entry; the index is disposable.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, spot)
	}
	return out, nil
}

// Filters is the conjunctive predicate set understood by Filter.  Nil
// pointer fields are unset and never exclude anything; Type "" or "all"
// is the wildcard.
type Filters struct {
	MinPrice     *float64
	MaxPrice     *float64
	Type         string
	Covered      *bool
	EV           *bool
	Security     *bool
	MinAvailable *int
}

// Matches reports whether a single spot satisfies every set predicate.
func (f Filters) Matches(s model.ParkingSpot) bool {
	if f.MinPrice != nil && s.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && s.Price > *f.MaxPrice {
		return false
	}
	if f.Type != "" && f.Type != model.SpotTypeAll && s.Type != f.Type {
		return false
	}
	if f.Covered != nil && s.Covered != *f.Covered {
		return false
	}
	if f.EV != nil && s.EV != *f.EV {
		return false
	}
	if f.Security != nil && s.Security != *f.Security {
		return false
	}
	if f.MinAvailable != nil && s.AvailableSpots < *f.MinAvailable {
		return false
	}
	return true
}

// Filter evaluates the predicate set over the full snapshot, preserving
// the snapshot's relative order (stable filter, no re-sort).
func (e *Engine) Filter(ctx context.Context, f Filters) []model.ParkingSpot {
	return FilterSpots(e.spots.GetAll(ctx), f)
}

// FilterSpots is the pure form of Filter over an explicit snapshot.
func FilterSpots(spots []model.ParkingSpot, f Filters) []model.ParkingSpot {
	out := make([]model.ParkingSpot, 0, len(spots))
	for _, s := range spots {
		if f.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}

// SpotWithDistance augments a spot with its computed distance from a
// query origin.
type SpotWithDistance struct {
	model.ParkingSpot
	DistanceKm float64 `json:"distanceKm"`
}

// SortByDistance returns the spots ordered by ascending haversine
// distance from the origin, each annotated with that distance.  Ties
// keep the original relative order.
func SortByDistance(spots []model.ParkingSpot, lat, lng float64) []SpotWithDistance {
	out := make([]SpotWithDistance, 0, len(spots))
	for _, s := range spots {
		out = append(out, SpotWithDistance{
			ParkingSpot: s,
			DistanceKm:  geo.HaversineDistanceKm(lat, lng, s.Lat, s.Lng),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}

// Nearby returns the spots within radiusKm of the origin, ordered by
// ascending distance.
func Nearby(spots []model.ParkingSpot, lat, lng, radiusKm float64) []SpotWithDistance {
	sorted := SortByDistance(spots, lat, lng)
	out := make([]SpotWithDistance, 0, len(sorted))
	for _, s := range sorted {
		if s.DistanceKm <= radiusKm {
			out = append(out, s)
		}
	}
	return out
}
