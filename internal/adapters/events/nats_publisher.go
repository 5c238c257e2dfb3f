package events

import (
	"context"
	"directory-map-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

type NATSConfig struct {
	URL            string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// Connect opens a NATS connection that logs disconnects and reconnects.
func Connect(cfg NATSConfig) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("directory-map-service"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}
	return nc, nil
}

// Wire form of a discovery event.
type eventMessage struct {
	Type          string    `json:"type"`
	SessionID     string    `json:"session_id"`
	At            time.Time `json:"at"`
	Text          string    `json:"text,omitempty"`
	Category      string    `json:"category,omitempty"`
	Location      string    `json:"location,omitempty"`
	ResultCount   int       `json:"result_count"`
	SearchFailed  bool      `json:"search_failed,omitempty"`
	BusinessID    string    `json:"business_id,omitempty"`
	LiveOrigin    bool      `json:"live_origin,omitempty"`
	LocationError string    `json:"location_error,omitempty"`
}

// Subject returns "<prefix>.<type>", e.g. "directory.discovery.search.dispatched".
func Subject(prefix, eventType string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// Encode serialises an event for publication.
func Encode(ev ports.DiscoveryEvent) ([]byte, error) {
	return json.Marshal(eventMessage{
		Type:          ev.Type,
		SessionID:     ev.SessionID,
		At:            ev.At.UTC(),
		Text:          ev.Criteria.Text,
		Category:      ev.Criteria.Category,
		Location:      ev.Criteria.LocationQuery,
		ResultCount:   ev.ResultCount,
		SearchFailed:  ev.SearchFailed,
		BusinessID:    ev.BusinessID,
		LiveOrigin:    ev.LiveOrigin,
		LocationError: ev.LocationError,
	})
}

// NATSPublisher publishes discovery events as JSON on core NATS subjects.
// Publication is buffered by the client and does not wait for subscribers.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)

func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

func (p *NATSPublisher) Publish(ctx context.Context, ev ports.DiscoveryEvent) error {
	if p.conn == nil {
		return errors.New("nats publish: connection is nil")
	}

	data, err := Encode(ev)
	if err != nil {
		return fmt.Errorf("nats publish %s: encode: %w", ev.Type, err)
	}
	if err := p.conn.Publish(Subject(p.prefix, ev.Type), data); err != nil {
		return fmt.Errorf("nats publish %s: %w", ev.Type, err)
	}
	return nil
}
