package directory

import (
	"context"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/platform/obs"
	"directory-map-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPDirectory implements ports.Directory against the external business
// directory service.
//
//	GET {base}/businesses?q=&category=&location=&limit=  -> {"businesses": [...]}
//	GET {base}/categories                                 -> {"categories": [{"name": ...}]}
//
// The client is safe for concurrent use.
type HTTPDirectory struct {
	session     *http.Client
	baseURL     string
	apiKey      string
	maxAttempts int
	backoff     time.Duration
}

func NewHTTPDirectory(baseURL string, apiKey string) (*HTTPDirectory, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("directory base url is empty")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("directory base url %q: %w", baseURL, err)
	}

	return &HTTPDirectory{
		session:     &http.Client{Timeout: 10 * time.Second},
		baseURL:     baseURL,
		apiKey:      apiKey,
		maxAttempts: 3,
		backoff:     200 * time.Millisecond,
	}, nil
}

type wireBusiness struct {
	ID           json.RawMessage `json:"id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description"`
	Address      *string         `json:"address"`
	City         *string         `json:"city"`
	Phone        *string         `json:"phone"`
	OpeningHours *string         `json:"opening_hours"`
	Category     *struct {
		Name string `json:"name"`
	} `json:"category"`
	CategoryName *string   `json:"category_name"`
	Latitude     flexFloat `json:"latitude"`
	Longitude    flexFloat `json:"longitude"`
	ImageURL     *string   `json:"image_url"`
}

type searchResponse struct {
	Businesses []wireBusiness `json:"businesses"`
}

type categoriesResponse struct {
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
}

func (c *HTTPDirectory) Search(ctx context.Context, q ports.SearchQuery) (_ []domain.Business, err error) {
	defer obs.Time(ctx, "directory.Search")(&err)

	params := url.Values{}
	if q.Text != "" {
		params.Set("q", q.Text)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	endpoint := c.baseURL + "/businesses"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, endpoint)
	})
	if err != nil {
		return nil, fmt.Errorf("search businesses: %w", err)
	}
	defer resp.Body.Close()

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("search businesses: decode response: %w", err)
	}

	out := make([]domain.Business, 0, len(decoded.Businesses))
	for _, w := range decoded.Businesses {
		b, ok := w.toDomain()
		if !ok {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (c *HTTPDirectory) ListCategories(ctx context.Context) (_ []string, err error) {
	defer obs.Time(ctx, "directory.ListCategories")(&err)

	endpoint := c.baseURL + "/categories"
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, endpoint)
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer resp.Body.Close()

	var decoded categoriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("list categories: decode response: %w", err)
	}

	out := make([]string, 0, len(decoded.Categories))
	for _, cat := range decoded.Categories {
		if name := strings.TrimSpace(cat.Name); name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

// toDomain maps a wire record, tolerating absent optional fields. Records
// without an ID or name are dropped.
func (w wireBusiness) toDomain() (domain.Business, bool) {
	id := decodeID(w.ID)
	name := strings.TrimSpace(w.Name)
	if id == "" || name == "" {
		return domain.Business{}, false
	}

	b := domain.Business{
		ID:           id,
		Name:         name,
		Description:  deref(w.Description),
		Address:      deref(w.Address),
		City:         deref(w.City),
		Phone:        deref(w.Phone),
		OpeningHours: deref(w.OpeningHours),
		ImageURL:     deref(w.ImageURL),
	}
	switch {
	case w.Category != nil:
		b.Category = w.Category.Name
	case w.CategoryName != nil:
		b.Category = *w.CategoryName
	}
	if w.Latitude.ok && w.Longitude.ok {
		b.Position = &domain.Coordinate{Lat: w.Latitude.v, Lng: w.Longitude.v}
	}
	return b, true
}

// IDs arrive either as JSON strings or numbers.
func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// flexFloat accepts a JSON number, a numeric string, or null.
type flexFloat struct {
	v  float64
	ok bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = flexFloat{}
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unparseable coordinates are treated as absent rather than failing the batch.
		*f = flexFloat{}
		return nil
	}
	*f = flexFloat{v: v, ok: true}
	return nil
}
