package services

import (
	"context"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/platform/obs"
	"directory-map-service/internal/ports"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultExplicitTimeout = 8 * time.Second
	DefaultProbeTimeout    = 4 * time.Second
)

// Options for one location resolution.
// Probe marks the automatic first-load request, which uses the shorter timeout.
type LocateRequest struct {
	HighAccuracy bool
	Probe        bool
}

// A successful resolution and the zoom level recommended for showing it.
type Fix struct {
	Position domain.Coordinate
	Zoom     int
}

// Resolver obtains the device position through a Locator.
//
// At most one request of each kind (probe or explicit) is in flight at a time:
// concurrent callers share the outcome of the outstanding request. Failures are never retried here.
type Resolver struct {
	locator         ports.Locator
	explicitTimeout time.Duration
	probeTimeout    time.Duration
	group           singleflight.Group
}

func NewResolver(locator ports.Locator, explicitTimeout, probeTimeout time.Duration) *Resolver {
	if explicitTimeout <= 0 {
		explicitTimeout = DefaultExplicitTimeout
	}
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	return &Resolver{
		locator:         locator,
		explicitTimeout: explicitTimeout,
		probeTimeout:    probeTimeout,
	}
}

// Resolve asks locator (or the resolver's default locator when nil) for the
// current position. Errors wrap one of the domain location errors.
func (r *Resolver) Resolve(ctx context.Context, locator ports.Locator, req LocateRequest) (_ Fix, err error) {
	defer obs.Time(ctx, "geo.Resolve")(&err)

	if locator == nil {
		locator = r.locator
	}
	if locator == nil {
		return Fix{}, fmt.Errorf("resolve location: no locator: %w", domain.ErrLocationUnsupported)
	}

	timeout := r.explicitTimeout
	if req.Probe {
		timeout = r.probeTimeout
	}

	// Probes and explicit requests do not share a flight: they differ in timeout.
	key := "locate"
	if req.Probe {
		key = "locate:probe"
	}

	ch := r.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return r.locate(lctx, locator, req.HighAccuracy)
	})

	// The shared request keeps running if this caller gives up first; its
	// outcome is then delivered to whoever is still waiting.
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Fix{}, fmt.Errorf("resolve location: %w", domain.ErrLocationTimeout)
		}
		return Fix{}, fmt.Errorf("resolve location: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Fix{}, res.Err
		}
		return res.Val.(Fix), nil
	}
}

func (r *Resolver) locate(ctx context.Context, locator ports.Locator, highAccuracy bool) (Fix, error) {
	type result struct {
		c   domain.Coordinate
		err error
	}

	done := make(chan result, 1)
	go func() {
		c, err := locator.Locate(ctx, highAccuracy)
		done <- result{c: c, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return Fix{}, fmt.Errorf("resolve location: %w", domain.ErrLocationTimeout)
	case res = <-done:
	}

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) {
			return Fix{}, fmt.Errorf("resolve location: %w", domain.ErrLocationTimeout)
		}
		if !domain.IsLocationError(res.err) {
			return Fix{}, fmt.Errorf("resolve location: %v: %w", res.err, domain.ErrLocationUnavailable)
		}
		return Fix{}, fmt.Errorf("resolve location: %w", res.err)
	}

	if !res.c.Valid() {
		return Fix{}, fmt.Errorf("resolve location: device returned %v: %w", res.c, domain.ErrLocationUnavailable)
	}

	return Fix{Position: res.c, Zoom: domain.ZoomNear}, nil
}
