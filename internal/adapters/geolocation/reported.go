package geolocation

import (
	"context"
	"directory-map-service/internal/domain"
	"fmt"
)

// Error codes of the browser Geolocation API (GeolocationPositionError.code).
const (
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// Reported is a Locator that replays what the browser reported for this request:
// either a position or a Geolocation API error code. An empty report means the
// device offered no geolocation capability.
type Reported struct {
	Position  *domain.Coordinate
	ErrorCode int
}

func (r Reported) Locate(ctx context.Context, highAccuracy bool) (domain.Coordinate, error) {
	switch r.ErrorCode {
	case 0:
	case CodePermissionDenied:
		return domain.Coordinate{}, domain.ErrLocationDenied
	case CodePositionUnavailable:
		return domain.Coordinate{}, domain.ErrLocationUnavailable
	case CodeTimeout:
		return domain.Coordinate{}, domain.ErrLocationTimeout
	default:
		return domain.Coordinate{}, fmt.Errorf("reported error code %d: %w", r.ErrorCode, domain.ErrLocationUnavailable)
	}

	if r.Position == nil {
		return domain.Coordinate{}, domain.ErrLocationUnsupported
	}
	if !r.Position.Valid() {
		return domain.Coordinate{}, fmt.Errorf("reported position %v: %w", *r.Position, domain.ErrLocationUnavailable)
	}
	return *r.Position, nil
}
