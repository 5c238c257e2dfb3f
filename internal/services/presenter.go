package services

import (
	"directory-map-service/internal/domain"
	"math"
	"slices"
	"strings"
)

// Marker is one pin on the map.
type Marker struct {
	Business domain.Business
	Position domain.Coordinate
	Selected bool
}

// ListEntry is one row of the companion list. DistanceMeters is nil when the
// user location or the business coordinate is unknown.
type ListEntry struct {
	Business       domain.Business
	DistanceMeters *float64
	OnMap          bool
}

// What the map and its companion list render for the current results.
// The list may contain entries that have no marker.
type MapLayer struct {
	Markers    []Marker
	UserMarker *domain.Coordinate
	List       []ListEntry
}

// Present builds the map layer: one marker per result with a valid coordinate,
// one user marker when the user location is known, and the full result list.
func Present(results []domain.Business, userLocation *domain.Coordinate, selectedID string) MapLayer {
	layer := MapLayer{
		Markers: make([]Marker, 0, len(results)),
		List:    make([]ListEntry, 0, len(results)),
	}

	var user *domain.Coordinate
	if userLocation != nil && userLocation.Valid() {
		u := *userLocation
		user = &u
		layer.UserMarker = &u
	}

	for _, b := range results {
		c, ok := b.Coordinate()
		entry := ListEntry{Business: b, OnMap: ok}
		if ok {
			layer.Markers = append(layer.Markers, Marker{
				Business: b,
				Position: c,
				Selected: selectedID != "" && b.ID == selectedID,
			})
			if user != nil {
				d := domain.DistanceMeters(*user, c)
				entry.DistanceMeters = &d
			}
		}
		layer.List = append(layer.List, entry)
	}

	if user != nil {
		SortByProximity(layer.List)
	}
	return layer
}

// SortByProximity orders entries nearest first. Entries without a distance go
// last; ties are broken by name and then ID so the order is deterministic.
func SortByProximity(entries []ListEntry) {
	slices.SortStableFunc(entries, func(a, b ListEntry) int {
		da, db := math.Inf(1), math.Inf(1)
		if a.DistanceMeters != nil {
			da = *a.DistanceMeters
		}
		if b.DistanceMeters != nil {
			db = *b.DistanceMeters
		}
		if da < db {
			return -1
		}
		if da > db {
			return 1
		}
		if c := strings.Compare(a.Business.Name, b.Business.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Business.ID, b.Business.ID)
	})
}

// Select marks id as the selected business. It reports false when id is not in
// results; the selection is left unchanged in that case.
func Select(ui *domain.UIState, results []domain.Business, id string) bool {
	if _, ok := domain.FindBusiness(results, id); !ok {
		return false
	}
	ui.SelectedID = id
	return true
}
