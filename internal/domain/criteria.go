package domain

import "strings"

// Represents the combined text/category/location filter applied to the directory.
// LocationQuery is empty (no location filter), a free-text place name, or a
// serialised "lat,lng" pair produced by a near-me request.
type SearchCriteria struct {
	Text          string
	Category      string
	LocationQuery string
}

// Active reports whether a text or category filter is set.
// A location filter on its own does not make a search active.
func (c SearchCriteria) Active() bool {
	return strings.TrimSpace(c.Text) != "" || strings.TrimSpace(c.Category) != ""
}

// NearMe reports whether the location filter is a coordinate pair.
func (c SearchCriteria) NearMe() bool {
	return LooksLikeCoordinate(c.LocationQuery)
}
