package ports

import (
	"context"
	"directory-map-service/internal/domain"
)

// Parameters of one business search dispatch.
// Location is a place name, a "lat,lng" pair, or empty.
type SearchQuery struct {
	Text     string
	Category string
	Location string
	Limit    int
}

// Port: the external business directory search.
type BusinessSearcher interface {
	// Return the businesses matching the query. Optional fields may be absent.
	Search(ctx context.Context, q SearchQuery) ([]domain.Business, error)
}

// Port: the selectable category names.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]string, error)
}

// A directory backend implements both search and category listing.
type Directory interface {
	BusinessSearcher
	CategoryLister
}
