package events

import (
	"context"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/ports"
	"encoding/json"
	"testing"
	"time"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "directory.discovery", want: "directory.discovery.search.dispatched"},
		{prefix: "directory.discovery.", want: "directory.discovery.search.dispatched"},
		{prefix: "", want: "search.dispatched"},
	}

	for _, tt := range tests {
		if got := Subject(tt.prefix, ports.EventSearchDispatched); got != tt.want {
			t.Fatalf("Subject(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestEncode(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("COT", -5*3600))

	data, err := Encode(ports.DiscoveryEvent{
		Type:        ports.EventSearchDispatched,
		SessionID:   "s1",
		At:          at,
		Criteria:    domain.SearchCriteria{Text: "café", LocationQuery: "4.6,-74.07"},
		ResultCount: 3,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got["type"] != "search.dispatched" || got["session_id"] != "s1" {
		t.Fatalf("unexpected envelope: %v", got)
	}
	if got["at"] != "2026-03-01T17:00:00Z" {
		t.Fatalf("expected UTC timestamp, got %v", got["at"])
	}
	if got["location"] != "4.6,-74.07" || got["result_count"] != 3.0 {
		t.Fatalf("unexpected payload: %v", got)
	}
	if _, ok := got["business_id"]; ok {
		t.Fatal("expected empty business_id to be omitted")
	}
}

func TestPublish_NilConnection(t *testing.T) {
	p := NewNATSPublisher(nil, "directory")
	if err := p.Publish(context.Background(), ports.DiscoveryEvent{Type: ports.EventDirectionsDispatched}); err == nil {
		t.Fatal("expected error")
	}
}
