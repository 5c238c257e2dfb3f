package ports

import (
	"context"
	"directory-map-service/internal/domain"
	"time"
)

const (
	EventSearchDispatched     = "search.dispatched"
	EventDirectionsDispatched = "directions.dispatched"
)

// DiscoveryEvent records a user action in a discovery session. Fields not
// relevant to Type are left zero.
type DiscoveryEvent struct {
	Type          string
	SessionID     string
	At            time.Time
	Criteria      domain.SearchCriteria
	ResultCount   int
	SearchFailed  bool
	BusinessID    string
	LiveOrigin    bool
	LocationError string
}

// Port: fire-and-forget publication of discovery events.
type EventPublisher interface {
	Publish(ctx context.Context, ev DiscoveryEvent) error
}
