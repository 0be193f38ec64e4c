package itinerary

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tabi/internal/maps"
	"tabi/internal/metrics"
)

// Service turns parsed locations into map-ready data. Lookup failures are
// logged and degrade to empty results; none of its methods return errors.
type Service struct {
	places     PlacesLookup
	directions DirectionsLookup
	opts       Options
	logger     *zap.Logger
}

// NewService accepts nil lookups; the matching operations then return nothing.
func NewService(places PlacesLookup, directions DirectionsLookup, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{places: places, directions: directions, opts: opts.withDefaults(), logger: logger}
}

// ResolveLocations geocodes each location with a biased text search and keeps
// the top hit. Unresolved locations are dropped; input order is preserved.
func (s *Service) ResolveLocations(ctx context.Context, locs []Location) []ResolvedLocation {
	if s.places == nil || len(locs) == 0 {
		return nil
	}
	if len(locs) > s.opts.MaxLocations {
		s.logger.Info("truncating locations",
			zap.Int("requested", len(locs)), zap.Int("max", s.opts.MaxLocations))
		locs = locs[:s.opts.MaxLocations]
	}

	slots := make([]*ResolvedLocation, len(locs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, loc := range locs {
		g.Go(func() error {
			slots[i] = s.resolveOne(gctx, loc)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]ResolvedLocation, 0, len(locs))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (s *Service) resolveOne(ctx context.Context, loc Location) *ResolvedLocation {
	query := loc.SearchQuery
	if query == "" {
		query = loc.Name
	}
	results, err := s.places.TextSearch(ctx, query, s.opts.Bias, s.opts.SearchRadiusM)
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("text_search").Inc()
		s.logger.Warn("location lookup failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	if len(results) == 0 {
		s.logger.Debug("location not found", zap.String("query", query))
		return nil
	}
	top := results[0]
	return &ResolvedLocation{
		Name:        loc.Name,
		Description: loc.Description,
		Lat:         top.Location.Lat,
		Lng:         top.Location.Lng,
		Address:     top.Address,
		PlaceID:     top.PlaceID,
	}
}

// NearbyRestaurants searches around each resolved location and returns the
// aggregated, ranked list.
func (s *Service) NearbyRestaurants(ctx context.Context, locs []ResolvedLocation) []Restaurant {
	if s.places == nil || len(locs) == 0 {
		return nil
	}

	perLocation := make([][]Restaurant, len(locs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, loc := range locs {
		g.Go(func() error {
			results, err := s.places.NearbySearch(gctx, loc.Point(), s.opts.NearbyRadiusM, s.opts.NearbyCategory)
			if err != nil {
				metrics.UpstreamFailures.WithLabelValues("nearby_search").Inc()
				s.logger.Warn("restaurant lookup failed", zap.String("location", loc.Name), zap.Error(err))
				return nil
			}
			perLocation[i] = toRestaurants(results)
			return nil
		})
	}
	_ = g.Wait()

	return AggregateRestaurants(perLocation)
}

// BuildRoute asks for a walking route between the first and last location.
// It returns nil for fewer than two locations or on any lookup failure.
func (s *Service) BuildRoute(ctx context.Context, locs []ResolvedLocation) *Route {
	if s.directions == nil || len(locs) < 2 {
		return nil
	}
	first, last := locs[0], locs[len(locs)-1]

	d, err := s.directions.WalkingRoute(ctx, first.Point(), last.Point())
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("directions").Inc()
		s.logger.Warn("route lookup failed",
			zap.String("origin", first.Name), zap.String("destination", last.Name), zap.Error(err))
		return nil
	}
	return &Route{
		Polyline:        d.Polyline,
		Origin:          first.Name,
		Destination:     last.Name,
		DurationMinutes: minutes(d.Duration),
		Distance:        d.Distance,
	}
}

func toRestaurants(places []maps.Place) []Restaurant {
	out := make([]Restaurant, 0, len(places))
	for _, p := range places {
		out = append(out, Restaurant{
			Name:       p.Name,
			Rating:     p.Rating,
			PriceLevel: p.PriceLevel,
			Vicinity:   p.Vicinity,
			Lat:        p.Location.Lat,
			Lng:        p.Location.Lng,
			PlaceID:    p.PlaceID,
		})
	}
	return out
}
