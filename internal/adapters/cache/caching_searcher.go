package cache

import (
	"context"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/ports"
	"log"
)

// CachingSearcher consults a SearchCache before delegating to the wrapped
// searcher. Cache failures are logged and never fail a search.
type CachingSearcher struct {
	next  ports.BusinessSearcher
	cache ports.SearchCache
}

func NewCachingSearcher(next ports.BusinessSearcher, cache ports.SearchCache) *CachingSearcher {
	return &CachingSearcher{next: next, cache: cache}
}

func (s *CachingSearcher) Search(ctx context.Context, q ports.SearchQuery) ([]domain.Business, error) {
	if s.cache != nil {
		hit, ok, err := s.cache.Get(ctx, q)
		if err != nil {
			log.Printf("search cache read failed: %v", err)
		} else if ok {
			return hit, nil
		}
	}

	results, err := s.next.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, q, results); err != nil {
			log.Printf("search cache write failed: %v", err)
		}
	}
	return results, nil
}
