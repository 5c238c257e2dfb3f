package services

import (
	"context"
	"directory-map-service/internal/adapters/geolocation"
	"directory-map-service/internal/domain"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestResolveSuccess(t *testing.T) {
	loc := &geolocation.Static{Position: domain.Coordinate{Lat: 10, Lng: 10}}
	r := NewResolver(loc, time.Second, time.Second)

	fix, err := r.Resolve(context.Background(), nil, LocateRequest{HighAccuracy: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fix.Position != (domain.Coordinate{Lat: 10, Lng: 10}) || fix.Zoom != domain.ZoomNear {
		t.Fatalf("fix = %+v", fix)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		locator *geolocation.Static
		want    error
	}{
		{name: "denied", locator: &geolocation.Static{Err: domain.ErrLocationDenied}, want: domain.ErrLocationDenied},
		{name: "unsupported", locator: &geolocation.Static{Err: domain.ErrLocationUnsupported}, want: domain.ErrLocationUnsupported},
		{name: "foreign error", locator: &geolocation.Static{Err: errors.New("gps chip on fire")}, want: domain.ErrLocationUnavailable},
		{name: "null island", locator: &geolocation.Static{Position: domain.Coordinate{}}, want: domain.ErrLocationUnavailable},
		{name: "timeout", locator: &geolocation.Static{Position: domain.Coordinate{Lat: 1, Lng: 1}, Delay: time.Second}, want: domain.ErrLocationTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.locator, 20*time.Millisecond, 20*time.Millisecond)

			_, err := r.Resolve(context.Background(), nil, LocateRequest{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.locator.Calls() != 1 {
				t.Fatalf("expected exactly one attempt, got %d", tt.locator.Calls())
			}
		})
	}
}

func TestResolveWithoutLocator(t *testing.T) {
	r := NewResolver(nil, time.Second, time.Second)

	if _, err := r.Resolve(context.Background(), nil, LocateRequest{}); !errors.Is(err, domain.ErrLocationUnsupported) {
		t.Fatalf("err = %v, want unsupported", err)
	}
}

func TestResolveProbeUsesShortTimeout(t *testing.T) {
	loc := &geolocation.Static{Position: domain.Coordinate{Lat: 1, Lng: 1}, Delay: 200 * time.Millisecond}
	r := NewResolver(loc, time.Second, 20*time.Millisecond)

	if _, err := r.Resolve(context.Background(), nil, LocateRequest{Probe: true}); !errors.Is(err, domain.ErrLocationTimeout) {
		t.Fatalf("probe err = %v, want timeout", err)
	}
	if _, err := r.Resolve(context.Background(), nil, LocateRequest{}); err != nil {
		t.Fatalf("explicit request should outlast the delay: %v", err)
	}
}

func TestResolveCoalescesConcurrentRequests(t *testing.T) {
	loc := &geolocation.Static{Position: domain.Coordinate{Lat: 4.6, Lng: -74.07}, Delay: 100 * time.Millisecond}
	r := NewResolver(loc, time.Second, time.Second)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fix, err := r.Resolve(context.Background(), nil, LocateRequest{})
			if err == nil && fix.Position.Lat != 4.6 {
				err = errors.New("wrong position")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if loc.Calls() != 1 {
		t.Fatalf("expected one device request in flight, got %d", loc.Calls())
	}
}

func TestResolveExplicitDoesNotJoinProbe(t *testing.T) {
	slow := &geolocation.Static{Position: domain.Coordinate{Lat: 1, Lng: 1}, Delay: 300 * time.Millisecond}
	fast := &geolocation.Static{Position: domain.Coordinate{Lat: 2, Lng: 2}}
	r := NewResolver(nil, time.Second, time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = r.Resolve(context.Background(), slow, LocateRequest{Probe: true})
	}()
	for slow.Calls() == 0 {
		time.Sleep(time.Millisecond)
	}

	start := time.Now()
	fix, err := r.Resolve(context.Background(), fast, LocateRequest{HighAccuracy: true})
	if err != nil {
		t.Fatalf("explicit resolve: %v", err)
	}
	if fix.Position != (domain.Coordinate{Lat: 2, Lng: 2}) || fast.Calls() != 1 {
		t.Fatalf("fix = %v calls = %d, want the explicit locator's answer", fix.Position, fast.Calls())
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatal("explicit request waited for the probe")
	}
	<-done
}

func TestResolveCallerCancellation(t *testing.T) {
	loc := &geolocation.Static{Position: domain.Coordinate{Lat: 1, Lng: 1}, Delay: time.Second}
	r := NewResolver(loc, 5*time.Second, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := r.Resolve(ctx, nil, LocateRequest{}); !errors.Is(err, domain.ErrLocationTimeout) {
		t.Fatalf("err = %v, want timeout when the caller's deadline passes", err)
	}
}
