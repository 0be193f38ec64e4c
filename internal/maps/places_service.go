package maps

import (
	"context"
	"fmt"
	"math"
	"time"

	"googlemaps.github.io/maps"
)

// Place represents a simplified Places API result.
type Place struct {
	Name             string
	Address          string
	Vicinity         string
	Location         LatLng
	PlaceID          string
	Rating           *float64 // nil when the place has no rating
	PriceLevel       int
	UserRatingsTotal int
}

// PlacesService handles interactions with Google Places API.
type PlacesService struct {
	client   *maps.Client
	timeout  time.Duration
	language string
}

// NewPlacesService creates a new PlacesService with the given API Key.
// Every request is bounded by timeout.
func NewPlacesService(apiKey string, timeout time.Duration) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client, timeout: timeout, language: "ja"}, nil
}

// TextSearch runs a Places text search biased towards the given point.
// Results keep the ranking returned by the API.
func (s *PlacesService) TextSearch(ctx context.Context, query string, bias LatLng, radiusM uint) ([]Place, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    query,
		Location: &maps.LatLng{Lat: bias.Lat, Lng: bias.Lng},
		Radius:   radiusM,
		Language: s.language,
	})
	if err != nil {
		return nil, fmt.Errorf("places text search: %w", err)
	}
	return toPlaces(resp.Results), nil
}

// NearbySearch lists places of one category within radiusM metres of center.
func (s *PlacesService) NearbySearch(ctx context.Context, center LatLng, radiusM uint, category string) ([]Place, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: center.Lat, Lng: center.Lng},
		Radius:   radiusM,
		Type:     maps.PlaceType(category),
		Language: s.language,
	})
	if err != nil {
		return nil, fmt.Errorf("places nearby search: %w", err)
	}
	return toPlaces(resp.Results), nil
}

func toPlaces(results []maps.PlacesSearchResult) []Place {
	out := make([]Place, 0, len(results))
	for _, r := range results {
		out = append(out, Place{
			Name:             r.Name,
			Address:          r.FormattedAddress,
			Vicinity:         r.Vicinity,
			Location:         LatLng{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
			PlaceID:          r.PlaceID,
			Rating:           ratingOf(r.Rating),
			PriceLevel:       r.PriceLevel,
			UserRatingsTotal: r.UserRatingsTotal,
		})
	}
	return out
}

// The API omits rating for unrated places, which decodes as 0; ratings start at 1.0.
func ratingOf(r float32) *float64 {
	if r <= 0 {
		return nil
	}
	v := math.Round(float64(r)*10) / 10
	return &v
}
