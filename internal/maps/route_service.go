package maps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"googlemaps.github.io/maps"
)

var ErrNoRoute = errors.New("no route found")

// Directions is the first route returned for a request.
type Directions struct {
	Polyline string
	Duration time.Duration
	Distance string
}

// RouteService handles interactions with Google Maps API.
type RouteService struct {
	client   *maps.Client
	timeout  time.Duration
	language string
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string, timeout time.Duration) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client, timeout: timeout, language: "ja"}, nil
}

// WalkingRoute returns the overview polyline of a walking route between two points.
// Intermediate stops are intentionally not sent.
func (s *RouteService) WalkingRoute(ctx context.Context, origin, destination LatLng) (Directions, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	routes, _, err := s.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      origin.String(),
		Destination: destination.String(),
		Mode:        maps.TravelModeWalking,
		Language:    s.language,
	})
	if err != nil {
		return Directions{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 {
		return Directions{}, ErrNoRoute
	}

	d := Directions{Polyline: routes[0].OverviewPolyline.Points}
	if len(routes[0].Legs) > 0 {
		leg := routes[0].Legs[0]
		d.Duration = leg.Duration
		d.Distance = leg.Distance.HumanReadable
	}
	return d, nil
}
