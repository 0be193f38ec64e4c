package itinerary

import (
	"sort"

	"github.com/samber/lo"
)

// AggregateRestaurants merges per-location candidate lists into one ranked list.
//
// Only the first perLocationRestaurants entries of each list are considered.
// Entries rated below minRestaurantRating are dropped, and so are unrated
// ones. Duplicates by place id keep their first occurrence. The result is
// sorted by rating descending with ties in encounter order, capped at
// maxRestaurants.
func AggregateRestaurants(perLocation [][]Restaurant) []Restaurant {
	heads := lo.Map(perLocation, func(list []Restaurant, _ int) []Restaurant {
		return lo.Subset(list, 0, perLocationRestaurants)
	})

	candidates := lo.Filter(lo.Flatten(heads), func(r Restaurant, _ int) bool {
		return r.Rating != nil && *r.Rating >= minRestaurantRating
	})

	unique := lo.UniqBy(candidates, func(r Restaurant) string {
		return r.PlaceID
	})

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].rank() > unique[j].rank()
	})

	if len(unique) > maxRestaurants {
		unique = unique[:maxRestaurants]
	}
	return unique
}
