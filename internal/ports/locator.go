package ports

import (
	"context"
	"directory-map-service/internal/domain"
)

// Port: a source of the device's current position.
//
// Implementations report failures with the domain location errors
// (ErrLocationDenied, ErrLocationTimeout, ErrLocationUnsupported,
// ErrLocationUnavailable) so callers can degrade gracefully.
type Locator interface {
	Locate(ctx context.Context, highAccuracy bool) (domain.Coordinate, error)
}
