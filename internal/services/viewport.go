package services

import (
	"directory-map-service/internal/domain"
	"math"
)

// Inputs to one viewport recompute.
type ViewportInput struct {
	Selected     *domain.Business
	Filtered     []domain.Business
	All          []domain.Business
	UserLocation *domain.Coordinate
	SearchActive bool
}

type viewportRule struct {
	name    string
	resolve func(in ViewportInput, fallback domain.Coordinate) (domain.Viewport, bool)
}

// Rules in priority order; the first that applies wins.
var viewportRules = []viewportRule{
	{name: "selected", resolve: selectedRule},
	{name: "search-centroid", resolve: searchCentroidRule},
	{name: "user-location", resolve: userLocationRule},
	{name: "all-centroid", resolve: allCentroidRule},
	{name: "default", resolve: defaultRule},
}

// RecomputeViewport evaluates the fallback chain and returns the viewport together
// with the name of the rule that produced it. The center is always valid.
func RecomputeViewport(in ViewportInput, fallback domain.Coordinate) (domain.Viewport, string) {
	if !fallback.Valid() {
		fallback = DefaultCenter
	}

	for _, r := range viewportRules {
		if vp, ok := r.resolve(in, fallback); ok && vp.Center.Valid() {
			return vp, r.name
		}
	}

	// Unreachable: the default rule always applies.
	return domain.Viewport{Center: fallback, Zoom: domain.ZoomDefault}, "default"
}

// DefaultCenter is used when no other center can be derived (Bogotá).
var DefaultCenter = domain.Coordinate{Lat: 4.7110, Lng: -74.0721}

func selectedRule(in ViewportInput, _ domain.Coordinate) (domain.Viewport, bool) {
	if in.Selected == nil {
		return domain.Viewport{}, false
	}
	c, ok := in.Selected.Coordinate()
	if !ok {
		return domain.Viewport{}, false
	}
	return domain.Viewport{Center: c, Zoom: domain.ZoomSelected}, true
}

func searchCentroidRule(in ViewportInput, _ domain.Coordinate) (domain.Viewport, bool) {
	if !in.SearchActive {
		return domain.Viewport{}, false
	}
	center, n, ok := Centroid(in.Filtered)
	if !ok {
		return domain.Viewport{}, false
	}

	zoom := domain.ZoomMany
	switch {
	case n == 1:
		zoom = domain.ZoomSelected
	case n < 5:
		zoom = domain.ZoomFew
	}
	return domain.Viewport{Center: center, Zoom: zoom}, true
}

func userLocationRule(in ViewportInput, _ domain.Coordinate) (domain.Viewport, bool) {
	if in.UserLocation == nil || !in.UserLocation.Valid() {
		return domain.Viewport{}, false
	}
	return domain.Viewport{Center: *in.UserLocation, Zoom: domain.ZoomNear}, true
}

func allCentroidRule(in ViewportInput, _ domain.Coordinate) (domain.Viewport, bool) {
	center, _, ok := Centroid(in.All)
	if !ok {
		return domain.Viewport{}, false
	}
	return domain.Viewport{Center: center, Zoom: domain.ZoomMany}, true
}

func defaultRule(_ ViewportInput, fallback domain.Coordinate) (domain.Viewport, bool) {
	return domain.Viewport{Center: fallback, Zoom: domain.ZoomDefault}, true
}

// Centroid returns the arithmetic mean of the valid coordinates in list and how
// many were used. ok is false when there are none or the mean is not finite.
func Centroid(list []domain.Business) (domain.Coordinate, int, bool) {
	var sumLat, sumLng float64
	n := 0
	for _, b := range list {
		c, ok := b.Coordinate()
		if !ok {
			continue
		}
		sumLat += c.Lat
		sumLng += c.Lng
		n++
	}
	if n == 0 {
		return domain.Coordinate{}, 0, false
	}

	center := domain.Coordinate{Lat: sumLat / float64(n), Lng: sumLng / float64(n)}
	if math.IsNaN(center.Lat) || math.IsNaN(center.Lng) || math.IsInf(center.Lat, 0) || math.IsInf(center.Lng, 0) {
		return domain.Coordinate{}, 0, false
	}
	return center, n, true
}
