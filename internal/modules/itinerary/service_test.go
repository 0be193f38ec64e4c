package itinerary

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabi/internal/maps"
	"tabi/internal/metrics"
)

type fakePlaces struct {
	mu         sync.Mutex
	text       map[string][]maps.Place
	nearby     map[maps.LatLng][]maps.Place
	fail       map[string]bool
	nearbyDown bool
	queries    []string
}

func (f *fakePlaces) TextSearch(_ context.Context, query string, _ maps.LatLng, _ uint) ([]maps.Place, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.fail[query] {
		return nil, errors.New("upstream down")
	}
	return f.text[query], nil
}

func (f *fakePlaces) NearbySearch(_ context.Context, center maps.LatLng, _ uint, category string) ([]maps.Place, error) {
	if category != "restaurant" {
		return nil, errors.New("unexpected category " + category)
	}
	if f.nearbyDown {
		return nil, errors.New("upstream down")
	}
	return f.nearby[center], nil
}

type fakeDirections struct {
	calls       int
	origin, dst maps.LatLng
	err         error
}

func (f *fakeDirections) WalkingRoute(_ context.Context, origin, destination maps.LatLng) (maps.Directions, error) {
	f.calls++
	f.origin, f.dst = origin, destination
	if f.err != nil {
		return maps.Directions{}, f.err
	}
	return maps.Directions{Polyline: "abc", Duration: 42 * time.Minute, Distance: "3.1 km"}, nil
}

func rating(v float64) *float64 { return &v }

func place(name, id string, lat, lng float64) maps.Place {
	return maps.Place{Name: name, PlaceID: id, Address: name + "の住所", Location: maps.LatLng{Lat: lat, Lng: lng}}
}

func TestResolveLocations_KeepsOrderAndDropsUnresolved(t *testing.T) {
	places := &fakePlaces{
		text: map[string][]maps.Place{
			"金閣寺 京都": {place("金閣寺", "kinkaku", 35.0394, 135.7292), place("別の寺", "other", 1, 1)},
			"清水寺":    {place("清水寺", "kiyomizu", 34.9949, 135.7850)},
		},
		fail: map[string]bool{"伏見稲荷": true},
	}
	svc := NewService(places, nil, Options{}, nil)

	got := svc.ResolveLocations(context.Background(), []Location{
		{Name: "金閣寺", Description: "黄金", SearchQuery: "金閣寺 京都"},
		{Name: "存在しない場所", SearchQuery: "存在しない場所"},
		{Name: "伏見稲荷", SearchQuery: "伏見稲荷"},
		{Name: "清水寺", SearchQuery: "清水寺"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, ResolvedLocation{
		Name: "金閣寺", Description: "黄金", Lat: 35.0394, Lng: 135.7292, Address: "金閣寺の住所", PlaceID: "kinkaku",
	}, got[0])
	assert.Equal(t, "清水寺", got[1].Name)
}

func TestResolveLocations_CapsFanOut(t *testing.T) {
	places := &fakePlaces{text: map[string][]maps.Place{}}
	svc := NewService(places, nil, Options{MaxLocations: 3}, nil)

	locs := make([]Location, 6)
	for i := range locs {
		locs[i] = Location{Name: string(rune('a' + i))}
	}
	svc.ResolveLocations(context.Background(), locs)

	assert.Len(t, places.queries, 3)
}

func TestAggregateRestaurants_FilterDedupSort(t *testing.T) {
	first := []Restaurant{
		{Name: "A", PlaceID: "a", Rating: rating(4.2)},
		{Name: "B", PlaceID: "b", Rating: rating(2.5)},
		{Name: "C", PlaceID: "c", Rating: rating(3.9)},
		{Name: "D", PlaceID: "d", Rating: rating(2.9)},
		{Name: "E", PlaceID: "e", Rating: rating(4.8)},
	}
	second := []Restaurant{
		{Name: "A again", PlaceID: "a", Rating: rating(4.2)},
		{Name: "F", PlaceID: "f", Rating: rating(1.0)},
		{Name: "G", PlaceID: "g", Rating: rating(3.0)},
		{Name: "H", PlaceID: "h", Rating: rating(4.5)},
		{Name: "I", PlaceID: "i", Rating: rating(3.5)},
	}

	got := AggregateRestaurants([][]Restaurant{first, second})

	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"E", "H", "A", "C", "I", "G"}, names)
	assert.LessOrEqual(t, len(got), maxRestaurants)
}

func TestAggregateRestaurants_Bounds(t *testing.T) {
	var lists [][]Restaurant
	for l := 0; l < 3; l++ {
		var list []Restaurant
		for i := 0; i < 7; i++ {
			id := string(rune('a'+l)) + string(rune('0'+i))
			list = append(list, Restaurant{Name: id, PlaceID: id, Rating: rating(4.0)})
		}
		lists = append(lists, list)
	}
	lists = append(lists, []Restaurant{{Name: "unrated", PlaceID: "u"}})

	got := AggregateRestaurants(lists)

	require.Len(t, got, maxRestaurants)
	// Ties keep encounter order, and only the first five of each list count.
	assert.Equal(t, "a0", got[0].PlaceID)
	assert.Equal(t, "a4", got[4].PlaceID)
	assert.Equal(t, "b0", got[5].PlaceID)
	for _, r := range got {
		assert.NotEqual(t, "u", r.PlaceID)
	}
}

func TestNearbyRestaurants(t *testing.T) {
	kinkaku := ResolvedLocation{Name: "金閣寺", Lat: 35.0394, Lng: 135.7292}
	kiyomizu := ResolvedLocation{Name: "清水寺", Lat: 34.9949, Lng: 135.7850}
	places := &fakePlaces{nearby: map[maps.LatLng][]maps.Place{
		kinkaku.Point(): {
			{Name: "そば処", PlaceID: "soba", Rating: rating(3.8), Vicinity: "北区"},
			{Name: "カフェ", PlaceID: "cafe", Rating: rating(4.4)},
		},
		kiyomizu.Point(): {
			{Name: "そば処", PlaceID: "soba", Rating: rating(3.8)},
			{Name: "無評価", PlaceID: "none"},
		},
	}}
	svc := NewService(places, nil, Options{}, nil)

	got := svc.NearbyRestaurants(context.Background(), []ResolvedLocation{kinkaku, kiyomizu})

	require.Len(t, got, 2)
	assert.Equal(t, "cafe", got[0].PlaceID)
	assert.Equal(t, "soba", got[1].PlaceID)
	assert.Equal(t, "北区", got[1].Vicinity)
}

func TestBuildRoute(t *testing.T) {
	a := ResolvedLocation{Name: "A", Lat: 1, Lng: 2}
	b := ResolvedLocation{Name: "B", Lat: 3, Lng: 4}
	c := ResolvedLocation{Name: "C", Lat: 5, Lng: 6}

	t.Run("single location has no route", func(t *testing.T) {
		dirs := &fakeDirections{}
		svc := NewService(nil, dirs, Options{}, nil)
		assert.Nil(t, svc.BuildRoute(context.Background(), []ResolvedLocation{a}))
		assert.Zero(t, dirs.calls)
	})

	t.Run("uses endpoints only", func(t *testing.T) {
		dirs := &fakeDirections{}
		svc := NewService(nil, dirs, Options{}, nil)
		got := svc.BuildRoute(context.Background(), []ResolvedLocation{a, b, c})
		require.NotNil(t, got)
		assert.Equal(t, a.Point(), dirs.origin)
		assert.Equal(t, c.Point(), dirs.dst)
		assert.Equal(t, &Route{
			Polyline: "abc", Origin: "A", Destination: "C", DurationMinutes: 42, Distance: "3.1 km",
		}, got)
	})

	t.Run("failure degrades to nil", func(t *testing.T) {
		dirs := &fakeDirections{err: maps.ErrNoRoute}
		svc := NewService(nil, dirs, Options{}, nil)
		assert.Nil(t, svc.BuildRoute(context.Background(), []ResolvedLocation{a, b}))
	})
}

func TestLookupFailuresAreCounted(t *testing.T) {
	textSearch := metrics.UpstreamFailures.WithLabelValues("text_search")
	nearbySearch := metrics.UpstreamFailures.WithLabelValues("nearby_search")
	directions := metrics.UpstreamFailures.WithLabelValues("directions")
	beforeText, beforeNearby, beforeDirs := testutil.ToFloat64(textSearch), testutil.ToFloat64(nearbySearch), testutil.ToFloat64(directions)

	places := &fakePlaces{fail: map[string]bool{"伏見稲荷": true}, nearbyDown: true}
	svc := NewService(places, &fakeDirections{err: errors.New("quota")}, Options{}, nil)
	ctx := context.Background()

	assert.Empty(t, svc.ResolveLocations(ctx, []Location{{Name: "伏見稲荷"}}))
	locs := []ResolvedLocation{{Name: "A", Lat: 1, Lng: 2}, {Name: "B", Lat: 3, Lng: 4}}
	assert.Empty(t, svc.NearbyRestaurants(ctx, locs))
	assert.Nil(t, svc.BuildRoute(ctx, locs))

	assert.Equal(t, beforeText+1, testutil.ToFloat64(textSearch))
	assert.Equal(t, beforeNearby+2, testutil.ToFloat64(nearbySearch))
	assert.Equal(t, beforeDirs+1, testutil.ToFloat64(directions))
}
