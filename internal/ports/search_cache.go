package ports

import (
	"context"
	"directory-map-service/internal/domain"
)

// Optional cache in front of a BusinessSearcher.
type SearchCache interface {
	// Return the cached results and true on a hit.
	Get(ctx context.Context, q SearchQuery) ([]domain.Business, bool, error)
	Put(ctx context.Context, q SearchQuery, results []domain.Business) error
}
