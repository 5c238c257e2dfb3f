package geolocation

import (
	"context"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/ports"
	"errors"
)

// Chain tries each locator in order and returns the first answer that is not
// ErrLocationUnsupported. Denials and timeouts stop the chain: a user who
// refused permission is not silently located another way.
type Chain []ports.Locator

func (c Chain) Locate(ctx context.Context, highAccuracy bool) (domain.Coordinate, error) {
	for _, l := range c {
		if l == nil {
			continue
		}
		pos, err := l.Locate(ctx, highAccuracy)
		if errors.Is(err, domain.ErrLocationUnsupported) {
			continue
		}
		return pos, err
	}
	return domain.Coordinate{}, domain.ErrLocationUnsupported
}
