// Package seed populates the on-device store on first run.  Datasets
// are fetched from the configured bulk endpoints; when a fetch fails or
// returns something that is not the expected JSON, a baked-in fallback
// dataset is imported instead so the app is usable before any network
// round trip ever succeeds.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/repository"
)

const maxSeedBytes = 4 << 20

// Bulk datasets arrive wrapped in a single-key envelope, matching the
// published data file shape.
type spotsEnvelope struct {
	Spots []model.ParkingSpot `json:"spots"`
}

type citiesEnvelope struct {
	Cities []model.City `json:"cities"`
}

// Seeder imports the initial spot and city datasets.
type Seeder struct {
	Spots     *repository.SpotRepo
	Cities    *repository.CityRepo
	Client    *http.Client
	SpotsURL  string
	CitiesURL string
}

// Initialize imports both datasets.  Each dataset independently falls
// back to the embedded copy; only a failed store write is returned as
// an error.
func (s *Seeder) Initialize(ctx context.Context) error {
	spots := fallbackSpots()
	if doc, err := fetchJSON[spotsEnvelope](ctx, s.Client, s.SpotsURL); err != nil {
		log.Printf("seed: fetch spots: %v (using fallback dataset)", err)
	} else {
		spots = doc.Spots
	}
	if err := s.Spots.SaveAll(ctx, spots); err != nil {
		return fmt.Errorf("seed spots: %w", err)
	}

	cities := fallbackCities()
	if doc, err := fetchJSON[citiesEnvelope](ctx, s.Client, s.CitiesURL); err != nil {
		log.Printf("seed: fetch cities: %v (using fallback dataset)", err)
	} else {
		cities = doc.Cities
	}
	if err := s.Cities.SaveAll(ctx, cities); err != nil {
		return fmt.Errorf("seed cities: %w", err)
	}
	return nil
}

// fetchJSON downloads and decodes a dataset.  A non-200 status or a
// non-JSON content type is reported as ErrSeedDataInvalid so callers
// can distinguish a bad dataset from a transport failure.
func fetchJSON[T any](ctx context.Context, client *http.Client, url string) (T, error) {
	var zero T
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return zero, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("%w: status %d from %s", repository.ErrSeedDataInvalid, resp.StatusCode, url)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "json") {
		return zero, fmt.Errorf("%w: content type %q from %s", repository.ErrSeedDataInvalid, ct, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSeedBytes))
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return zero, fmt.Errorf("%w: %v", repository.ErrSeedDataInvalid, err)
	}
	return out, nil
}

// fallbackSpots is the minimal dataset shipped with the app.
func fallbackSpots() []model.ParkingSpot {
	return []model.ParkingSpot{
		{
			ID:             "p1",
			Name:           "MG Road Parking",
			Address:        "MG Road, Bangalore",
			Description:    "Open parking near MG Road metro station",
			Lat:            12.9747,
			Lng:            77.6138,
			Price:          20,
			PriceUnit:      "hour",
			Currency:       "₹",
			TotalSpots:     50,
			AvailableSpots: 12,
			Type:           model.SpotTypeOutdoor,
			Security:       true,
			CCTV:           true,
			Handicapped:    true,
			Hours:          "24/7",
			Rating:         4.2,
			Reviews:        120,
		},
		{
			ID:             "p2",
			Name:           "Forum Mall Parking",
			Address:        "Koramangala, Bangalore",
			Description:    "Multi-level covered parking at Forum Mall",
			Lat:            12.9346,
			Lng:            77.6146,
			Price:          40,
			PriceUnit:      "hour",
			Currency:       "₹",
			TotalSpots:     200,
			AvailableSpots: 45,
			Type:           model.SpotTypeIndoor,
			Security:       true,
			CCTV:           true,
			Covered:        true,
			Handicapped:    true,
			EV:             true,
			Hours:          "10:00 AM - 10:00 PM",
			Rating:         4.5,
			Reviews:        230,
		},
	}
}

// fallbackCities covers the launch cities.
func fallbackCities() []model.City {
	return []model.City{
		{ID: "bangalore", Name: "Bangalore", State: "Karnataka", Lat: 12.9716, Lng: 77.5946, Zoom: 12},
		{ID: "mumbai", Name: "Mumbai", State: "Maharashtra", Lat: 19.076, Lng: 72.8777, Zoom: 12},
	}
}
