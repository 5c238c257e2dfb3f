package cache

import (
	"context"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/platform/obs"
	"directory-map-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSearchCache stores search results in Redis under a key derived from the
// normalised query. Entries expire after TTL.
type RedisSearchCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisSearchCache(client *redis.Client, ttl time.Duration) *RedisSearchCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisSearchCache{client: client, ttl: ttl, prefix: "directory:search:"}
}

type cachedBusiness struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Address      string   `json:"address,omitempty"`
	City         string   `json:"city,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	OpeningHours string   `json:"opening_hours,omitempty"`
	Category     string   `json:"category,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
}

// Key returns the cache key for q. Text and location are compared
// case-insensitively and with collapsed whitespace.
func (c *RedisSearchCache) Key(q ports.SearchQuery) string {
	v := url.Values{}
	v.Set("q", normalize(q.Text))
	v.Set("c", normalize(q.Category))
	v.Set("l", normalize(q.Location))
	v.Set("n", strconv.Itoa(q.Limit))
	return c.prefix + v.Encode()
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func (c *RedisSearchCache) Get(ctx context.Context, q ports.SearchQuery) (_ []domain.Business, _ bool, err error) {
	defer obs.Time(ctx, "search.cache.Get")(&err)

	if c.client == nil {
		return nil, false, errors.New("search cache: redis client is nil")
	}

	raw, err := c.client.Get(ctx, c.Key(q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get search cache: %w", err)
	}

	var entries []cachedBusiness
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("get search cache: decode: %w", err)
	}

	out := make([]domain.Business, 0, len(entries))
	for _, e := range entries {
		b := domain.Business{
			ID:           e.ID,
			Name:         e.Name,
			Description:  e.Description,
			Address:      e.Address,
			City:         e.City,
			Phone:        e.Phone,
			OpeningHours: e.OpeningHours,
			Category:     e.Category,
			ImageURL:     e.ImageURL,
		}
		if e.Lat != nil && e.Lng != nil {
			b.Position = &domain.Coordinate{Lat: *e.Lat, Lng: *e.Lng}
		}
		out = append(out, b)
	}
	return out, true, nil
}

func (c *RedisSearchCache) Put(ctx context.Context, q ports.SearchQuery, results []domain.Business) error {
	if c.client == nil {
		return errors.New("search cache: redis client is nil")
	}

	entries := make([]cachedBusiness, 0, len(results))
	for _, b := range results {
		e := cachedBusiness{
			ID:           b.ID,
			Name:         b.Name,
			Description:  b.Description,
			Address:      b.Address,
			City:         b.City,
			Phone:        b.Phone,
			OpeningHours: b.OpeningHours,
			Category:     b.Category,
			ImageURL:     b.ImageURL,
		}
		if b.Position != nil {
			lat, lng := b.Position.Lat, b.Position.Lng
			e.Lat, e.Lng = &lat, &lng
		}
		entries = append(entries, e)
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("put search cache: encode: %w", err)
	}
	if err := c.client.Set(ctx, c.Key(q), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("put search cache: %w", err)
	}
	return nil
}
