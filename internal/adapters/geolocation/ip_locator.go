package geolocation

import (
	"context"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// IPLocator approximates the device position from the client's public IP using
// an ip-api compatible endpoint. Accuracy is city level, so the high-accuracy
// hint is ignored.
type IPLocator struct {
	session  *http.Client
	endpoint string
	clientIP string
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func NewIPLocator(endpoint string) (*IPLocator, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("ip locator endpoint is empty")
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return &IPLocator{
		session:  &http.Client{Timeout: 5 * time.Second},
		endpoint: endpoint,
	}, nil
}

// ForClient returns a copy that locates the given client IP instead of the
// caller's own address.
func (l *IPLocator) ForClient(ip string) *IPLocator {
	c := *l
	c.clientIP = strings.TrimSpace(ip)
	return &c
}

func (l *IPLocator) Locate(ctx context.Context, highAccuracy bool) (_ domain.Coordinate, err error) {
	defer obs.Time(ctx, "geo.IPLocator")(&err)

	endpoint := l.endpoint + l.clientIP + "?fields=status,message,lat,lon"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("ip locate: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.session.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Coordinate{}, fmt.Errorf("ip locate: %w", domain.ErrLocationTimeout)
		}
		return domain.Coordinate{}, fmt.Errorf("ip locate: %v: %w", err, domain.ErrLocationUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinate{}, fmt.Errorf("ip locate: unexpected status %d: %w", resp.StatusCode, domain.ErrLocationUnavailable)
	}

	var decoded ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinate{}, fmt.Errorf("ip locate: decode response: %v: %w", err, domain.ErrLocationUnavailable)
	}

	if decoded.Status != "success" {
		return domain.Coordinate{}, fmt.Errorf("ip locate: %s: %w", decoded.Message, domain.ErrLocationUnavailable)
	}

	pos := domain.Coordinate{Lat: decoded.Lat, Lng: decoded.Lon}
	if !pos.Valid() {
		return domain.Coordinate{}, fmt.Errorf("ip locate: %v: %w", pos, domain.ErrLocationUnavailable)
	}
	return pos, nil
}
