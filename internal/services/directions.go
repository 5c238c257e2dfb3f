package services

import (
	"context"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/ports"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const DefaultDirectionsURL = "https://www.google.com/maps/dir/?api=1"

// DirectionsProvider builds deep links to an external directions service.
// Query parameters already present in the base URL are kept; only origin and
// destination are set by this package.
type DirectionsProvider struct {
	base *url.URL
}

func NewDirectionsProvider(rawURL string) (*DirectionsProvider, error) {
	if strings.TrimSpace(rawURL) == "" {
		rawURL = DefaultDirectionsURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("directions provider: parse %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("directions provider: %q must be an http(s) url", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("directions provider: %q has no host", rawURL)
	}
	return &DirectionsProvider{base: u}, nil
}

// URL returns the deep link. origin may be nil for a destination-only link.
func (p *DirectionsProvider) URL(origin *domain.Coordinate, destination string) string {
	u := *p.base
	q := u.Query()
	q.Del("origin")
	q.Del("destination")
	if origin != nil {
		q.Set("origin", origin.String())
	}
	q.Set("destination", destination)
	u.RawQuery = q.Encode()
	return u.String()
}

// Destination returns the destination parameter for a business: its address when
// present (more readable in the provider UI), else its coordinate pair.
func Destination(b domain.Business) (string, error) {
	if addr := strings.TrimSpace(b.Address); addr != "" {
		return addr, nil
	}
	if c, ok := b.Coordinate(); ok {
		return c.String(), nil
	}
	return "", fmt.Errorf("destination for %q: %w", b.ID, domain.ErrNoDestination)
}

// A built directions link. LocationErr records why a live origin was not used.
type Link struct {
	URL         string
	Origin      *domain.Coordinate
	LocationErr error
}

// Directions builds outbound navigation links, preferring the live device
// position as origin.
type Directions struct {
	provider *DirectionsProvider
	resolver *Resolver
}

func NewDirections(provider *DirectionsProvider, resolver *Resolver) *Directions {
	return &Directions{provider: provider, resolver: resolver}
}

// BuildLink returns a link to dest. With preferLiveOrigin the device position is
// resolved first (bounded by the resolver's timeout); any location failure falls
// back to a destination-only link instead of failing the action.
func (d *Directions) BuildLink(
	ctx context.Context,
	locator ports.Locator,
	dest domain.Business,
	preferLiveOrigin bool,
) (Link, error) {
	destination, err := Destination(dest)
	if err != nil {
		return Link{}, fmt.Errorf("build directions link: %w", err)
	}

	var link Link
	if preferLiveOrigin {
		if d.resolver == nil {
			link.LocationErr = domain.ErrLocationUnsupported
		} else if fix, err := d.resolver.Resolve(ctx, locator, LocateRequest{HighAccuracy: true}); err != nil {
			if !domain.IsLocationError(err) && !errors.Is(err, context.Canceled) {
				err = fmt.Errorf("%v: %w", err, domain.ErrLocationUnavailable)
			}
			link.LocationErr = err
		} else {
			origin := fix.Position
			link.Origin = &origin
		}
	}

	link.URL = d.provider.URL(link.Origin, destination)
	return link, nil
}
