package geolocation

import (
	"context"
	"directory-map-service/internal/domain"
	"sync/atomic"
	"time"
)

// Static is a Locator with a fixed answer, optionally after a delay. It honours
// context cancellation while waiting. Used for demos and tests.
type Static struct {
	Position domain.Coordinate
	Err      error
	Delay    time.Duration

	calls atomic.Int32
}

func (s *Static) Locate(ctx context.Context, highAccuracy bool) (domain.Coordinate, error) {
	s.calls.Add(1)

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return domain.Coordinate{}, ctx.Err()
		case <-timer.C:
		}
	}

	if s.Err != nil {
		return domain.Coordinate{}, s.Err
	}
	return s.Position, nil
}

// Calls returns how many times Locate was invoked.
func (s *Static) Calls() int {
	return int(s.calls.Load())
}
