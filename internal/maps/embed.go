// README: Maps Embed API URL construction (no network calls).
package maps

import (
	"net/url"
	"strconv"
	"strings"
)

const embedBaseURL = "https://www.google.com/maps/embed/v1/"

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String formats the point as "lat,lng", the form every Maps endpoint accepts.
func (p LatLng) String() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// EmbedURL builds an embeddable map for the given points. Two or more points
// produce a walking "directions" map from the first to the last with the
// interior points as ordered waypoints; a single point produces a "place" map.
// ok is false when the key or the points are missing.
func EmbedURL(apiKey string, points []LatLng) (string, bool) {
	if apiKey == "" || len(points) == 0 {
		return "", false
	}

	q := url.Values{}
	q.Set("key", apiKey)

	if len(points) == 1 {
		q.Set("q", points[0].String())
		q.Set("zoom", "15")
		return embedBaseURL + "place?" + q.Encode(), true
	}

	q.Set("origin", points[0].String())
	q.Set("destination", points[len(points)-1].String())
	if interior := points[1 : len(points)-1]; len(interior) > 0 {
		waypoints := make([]string, len(interior))
		for i, p := range interior {
			waypoints[i] = p.String()
		}
		q.Set("waypoints", strings.Join(waypoints, "|"))
	}
	q.Set("mode", "walking")
	return embedBaseURL + "directions?" + q.Encode(), true
}
