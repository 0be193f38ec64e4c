// README: Itinerary types: parsed locations, resolved places, restaurants and walking route.
package itinerary

import (
	"context"
	"time"

	"tabi/internal/maps"
)

const (
	// perLocationRestaurants caps how many nearby results are considered per location.
	perLocationRestaurants = 5
	minRestaurantRating    = 3.0
	maxRestaurants         = 8
)

// PlacesLookup is the subset of the places API the itinerary needs.
type PlacesLookup interface {
	TextSearch(ctx context.Context, query string, bias maps.LatLng, radiusM uint) ([]maps.Place, error)
	NearbySearch(ctx context.Context, center maps.LatLng, radiusM uint, category string) ([]maps.Place, error)
}

// DirectionsLookup returns a walking route between two points.
type DirectionsLookup interface {
	WalkingRoute(ctx context.Context, origin, destination maps.LatLng) (maps.Directions, error)
}

// Location is a place named by the model, before any lookup.
type Location struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SearchQuery string `json:"search_query"`
}

type ResolvedLocation struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     string  `json:"address"`
	PlaceID     string  `json:"place_id"`
}

func (r ResolvedLocation) Point() maps.LatLng {
	return maps.LatLng{Lat: r.Lat, Lng: r.Lng}
}

type Restaurant struct {
	Name       string   `json:"name"`
	Rating     *float64 `json:"rating"`
	PriceLevel int      `json:"price_level"`
	Vicinity   string   `json:"vicinity"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	PlaceID    string   `json:"place_id"`
}

// rank is the sort key; unrated restaurants rank as 0.
func (r Restaurant) rank() float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

type Route struct {
	Polyline    string `json:"polyline"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	// Duration and Distance describe the walk; empty when the API omitted the leg.
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Distance        string `json:"distance,omitempty"`
}

// Source tells which parser stage produced a ParseResult.
type Source string

const (
	SourceStructured Source = "structured"
	SourceBracket    Source = "bracket"
)

type ParseResult struct {
	Source       Source
	Locations    []Location
	RouteSummary string
	TravelInfo   string
}

// Options tunes the lookups. Zero values are replaced by DefaultOptions.
type Options struct {
	Bias           maps.LatLng
	SearchRadiusM  uint
	NearbyRadiusM  uint
	NearbyCategory string
	// MaxLocations bounds the per-turn fan-out of places calls.
	MaxLocations int
	Concurrency  int
}

func DefaultOptions() Options {
	return Options{
		Bias:           maps.LatLng{Lat: 35.6762, Lng: 139.6503},
		SearchRadiusM:  5000,
		NearbyRadiusM:  2000,
		NearbyCategory: "restaurant",
		MaxLocations:   10,
		Concurrency:    4,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Bias == (maps.LatLng{}) {
		o.Bias = def.Bias
	}
	if o.SearchRadiusM == 0 {
		o.SearchRadiusM = def.SearchRadiusM
	}
	if o.NearbyRadiusM == 0 {
		o.NearbyRadiusM = def.NearbyRadiusM
	}
	if o.NearbyCategory == "" {
		o.NearbyCategory = def.NearbyCategory
	}
	if o.MaxLocations <= 0 {
		o.MaxLocations = def.MaxLocations
	}
	if o.Concurrency <= 0 {
		o.Concurrency = def.Concurrency
	}
	return o
}

func minutes(d time.Duration) int {
	return int(d.Round(time.Minute) / time.Minute)
}
