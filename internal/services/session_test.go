package services

import (
	"context"
	"directory-map-service/internal/adapters/directory"
	"directory-map-service/internal/adapters/geolocation"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/ports"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.DiscoveryEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, ev ports.DiscoveryEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestStore(t *testing.T, dir ports.BusinessSearcher, events ports.EventPublisher) *SessionStore {
	t.Helper()

	st, err := NewSessionStore(SessionDeps{
		Searcher:        dir,
		Events:          events,
		ExplicitTimeout: 50 * time.Millisecond,
		ProbeTimeout:    20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	return st
}

func TestSessionMountWithoutLocation(t *testing.T) {
	dir := newDirectory()
	s := newTestStore(t, dir, nil).Create()

	v := s.Mount(context.Background(), &geolocation.Static{Err: domain.ErrLocationDenied})

	if !errors.Is(v.LocationErr, domain.ErrLocationDenied) {
		t.Fatalf("location err = %v", v.LocationErr)
	}
	if v.UserLocation != nil {
		t.Fatal("expected no user location")
	}
	if v.ViewportRule != "all-centroid" || v.Viewport.Center != (domain.Coordinate{Lat: 5, Lng: -74.5}) {
		t.Fatalf("viewport = %+v (%s)", v.Viewport, v.ViewportRule)
	}
	if v.ResultCount != 2 {
		t.Fatalf("result count = %d", v.ResultCount)
	}
}

func TestSessionMountEmptyDirectoryUsesDefault(t *testing.T) {
	dir := directory.NewMockDirectory()
	s := newTestStore(t, dir, nil).Create()

	v := s.Mount(context.Background(), nil)

	if v.ViewportRule != "default" || v.Viewport.Center != DefaultCenter || v.Viewport.Zoom != domain.ZoomDefault {
		t.Fatalf("viewport = %+v (%s)", v.Viewport, v.ViewportRule)
	}
	if !errors.Is(v.LocationErr, domain.ErrLocationUnsupported) {
		t.Fatalf("location err = %v", v.LocationErr)
	}
}

func TestSessionNearMeScenario(t *testing.T) {
	dir := newDirectory()
	dir.On("", "", "10,10", []domain.Business{})
	s := newTestStore(t, dir, nil).Create()
	ctx := context.Background()
	s.Mount(ctx, nil)

	v := s.NearMe(ctx, &geolocation.Static{Position: domain.Coordinate{Lat: 10, Lng: 10}}, true)

	if v.UserLocation == nil || *v.UserLocation != (domain.Coordinate{Lat: 10, Lng: 10}) {
		t.Fatalf("user location = %v", v.UserLocation)
	}
	if v.LocationErr != nil {
		t.Fatalf("location err = %v", v.LocationErr)
	}
	if v.Viewport != (domain.Viewport{Center: domain.Coordinate{Lat: 10, Lng: 10}, Zoom: domain.ZoomNear}) {
		t.Fatalf("viewport = %+v", v.Viewport)
	}
	if v.Criteria.LocationQuery != "10,10" {
		t.Fatalf("location query = %q", v.Criteria.LocationQuery)
	}
	if v.Layer.UserMarker == nil {
		t.Fatal("expected user marker")
	}
}

func TestSessionNearMeTimeout(t *testing.T) {
	dir := newDirectory()
	s := newTestStore(t, dir, nil).Create()
	ctx := context.Background()
	s.Mount(ctx, nil)
	calls := dir.CallCount()

	v := s.NearMe(ctx, &geolocation.Static{Position: domain.Coordinate{Lat: 10, Lng: 10}, Delay: time.Second}, false)

	if !errors.Is(v.LocationErr, domain.ErrLocationTimeout) {
		t.Fatalf("location err = %v, want timeout", v.LocationErr)
	}
	if v.UserLocation != nil {
		t.Fatalf("user location = %v, want none", v.UserLocation)
	}
	if dir.CallCount() != calls {
		t.Fatal("a failed resolution must not dispatch a search")
	}
}

func TestSessionNearMeFailureKeepsLastKnownLocation(t *testing.T) {
	dir := newDirectory()
	s := newTestStore(t, dir, nil).Create()
	ctx := context.Background()

	s.Mount(ctx, &geolocation.Static{Position: domain.Coordinate{Lat: 4.6, Lng: -74.07}})
	v := s.NearMe(ctx, &geolocation.Static{Err: domain.ErrLocationDenied}, true)

	if !errors.Is(v.LocationErr, domain.ErrLocationDenied) {
		t.Fatalf("location err = %v", v.LocationErr)
	}
	if v.UserLocation == nil || *v.UserLocation != (domain.Coordinate{Lat: 4.6, Lng: -74.07}) {
		t.Fatalf("expected last known location kept, got %v", v.UserLocation)
	}
}

func TestSessionStaleLocationDiscarded(t *testing.T) {
	dir := newDirectory()
	s := newTestStore(t, dir, nil).Create()
	ctx := context.Background()
	s.Mount(ctx, nil)

	s.resolver = NewResolver(nil, time.Second, time.Second)
	slow := &geolocation.Static{Position: domain.Coordinate{Lat: 1, Lng: 1}, Delay: 100 * time.Millisecond}
	fast := &geolocation.Static{Position: domain.Coordinate{Lat: 2, Lng: 2}}

	done := make(chan struct{})
	go func() {
		s.NearMe(ctx, slow, false)
		close(done)
	}()
	for slow.Calls() == 0 {
		time.Sleep(time.Millisecond)
	}
	// A different resolver keeps the fast request out of the slow one's flight.
	s.resolver = NewResolver(nil, time.Second, time.Second)
	s.NearMe(ctx, fast, false)
	<-done

	v := s.View()
	if v.UserLocation == nil || *v.UserLocation != (domain.Coordinate{Lat: 2, Lng: 2}) {
		t.Fatalf("user location = %v, want the newest fix", v.UserLocation)
	}
	if v.Criteria.LocationQuery != "2,2" {
		t.Fatalf("location query = %q, want 2,2", v.Criteria.LocationQuery)
	}
}

func TestSessionFailedLiveOriginKeepsPendingNearMe(t *testing.T) {
	dir := newDirectory()
	s := newTestStore(t, dir, nil).Create()
	ctx := context.Background()
	s.Mount(ctx, nil)

	s.resolver = NewResolver(nil, time.Second, time.Second)
	slow := &geolocation.Static{Position: domain.Coordinate{Lat: 1, Lng: 1}, Delay: 100 * time.Millisecond}

	done := make(chan struct{})
	go func() {
		s.NearMe(ctx, slow, false)
		close(done)
	}()
	for slow.Calls() == 0 {
		time.Sleep(time.Millisecond)
	}

	// A separate resolver so the directions lookup fails instead of joining the near-me flight.
	s.directions = NewDirections(s.directions.provider, NewResolver(nil, time.Second, time.Second))
	link, err := s.Directions(ctx, &geolocation.Static{Err: domain.ErrLocationDenied}, "a", true)
	if err != nil {
		t.Fatalf("directions: %v", err)
	}
	if link.Origin != nil {
		t.Fatal("expected a destination-only link")
	}
	<-done

	v := s.View()
	if v.UserLocation == nil || *v.UserLocation != (domain.Coordinate{Lat: 1, Lng: 1}) {
		t.Fatalf("user location = %v, want the near-me fix", v.UserLocation)
	}
	if v.Criteria.LocationQuery != "1,1" {
		t.Fatalf("location query = %q, want 1,1", v.Criteria.LocationQuery)
	}
}

func TestSessionRetrySearch(t *testing.T) {
	dir := newDirectory()
	events := &recordingPublisher{}
	s := newTestStore(t, dir, events).Create()
	ctx := context.Background()
	s.Mount(ctx, nil)

	dir.SetErr(errors.New("down"))
	if v := s.SetText(ctx, "a"); v.SearchErr == nil {
		t.Fatal("expected a search error")
	}

	dir.SetErr(nil)
	v := s.RetrySearch(ctx)
	if v.SearchErr != nil {
		t.Fatalf("search err = %v, want cleared", v.SearchErr)
	}
	if q := lastCall(t, dir); q.Text != "a" {
		t.Fatalf("retry sent %+v, want the current criteria", q)
	}

	events.mu.Lock()
	defer events.mu.Unlock()
	if len(events.events) != 2 || !events.events[0].SearchFailed || events.events[1].SearchFailed {
		t.Fatalf("events = %+v", events.events)
	}
}

func TestSessionSelection(t *testing.T) {
	dir := newDirectory()
	s := newTestStore(t, dir, nil).Create()
	ctx := context.Background()
	s.Mount(ctx, nil)

	if _, err := s.Select("zzz"); !errors.Is(err, domain.ErrBusinessUnknown) {
		t.Fatalf("err = %v, want unknown business", err)
	}

	v, err := s.Select("b")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if v.ViewportRule != "selected" || v.Viewport.Center != (domain.Coordinate{Lat: 6, Lng: -75}) {
		t.Fatalf("viewport = %+v (%s)", v.Viewport, v.ViewportRule)
	}

	// A search that drops the selected business clears the selection.
	dir.On("a", "", "", []domain.Business{biz("a", at(4, -74))})
	v = s.SetText(ctx, "a")
	if v.UI.SelectedID != "" {
		t.Fatalf("selected = %q, want cleared", v.UI.SelectedID)
	}
	if v.ViewportRule != "search-centroid" || v.Viewport.Zoom != domain.ZoomSelected {
		t.Fatalf("viewport = %+v (%s)", v.Viewport, v.ViewportRule)
	}
}

func TestSessionSearchPanelAndErrors(t *testing.T) {
	dir := newDirectory()
	s := newTestStore(t, dir, nil).Create()
	ctx := context.Background()
	s.Mount(ctx, nil)

	if v := s.ToggleSearchPanel(); !v.UI.SearchOpen {
		t.Fatal("expected panel open")
	}
	if v := s.SetSearchOpen(false); v.UI.SearchOpen {
		t.Fatal("expected panel closed")
	}

	dir.SetErr(errors.New("down"))
	v := s.SetCategory(ctx, "Cafés")
	if !errors.Is(v.SearchErr, domain.ErrSearchDispatchFailed) || v.ResultCount != 2 {
		t.Fatalf("search err = %v results = %d", v.SearchErr, v.ResultCount)
	}
	if v := s.DismissError(); v.SearchErr != nil {
		t.Fatal("expected banner dismissed")
	}
}

func TestSessionDirections(t *testing.T) {
	dir := newDirectory()
	events := &recordingPublisher{}
	s := newTestStore(t, dir, events).Create()
	ctx := context.Background()
	s.Mount(ctx, nil)

	link, err := s.Directions(ctx, &geolocation.Static{Err: domain.ErrLocationDenied}, "a", true)
	if err != nil {
		t.Fatalf("directions: %v", err)
	}
	u, _ := url.Parse(link.URL)
	if u.Query().Has("origin") || u.Query().Get("destination") != "4,-74" {
		t.Fatalf("expected destination-only link, got %s", link.URL)
	}
	if !errors.Is(link.LocationErr, domain.ErrLocationDenied) {
		t.Fatalf("location err = %v", link.LocationErr)
	}

	link, err = s.Directions(ctx, &geolocation.Static{Position: domain.Coordinate{Lat: 4.6, Lng: -74.07}}, "b", true)
	if err != nil {
		t.Fatalf("directions: %v", err)
	}
	if link.Origin == nil {
		t.Fatal("expected live origin")
	}
	if v := s.View(); v.UserLocation == nil || *v.UserLocation != *link.Origin {
		t.Fatalf("expected live origin applied as user location, got %v", v.UserLocation)
	}

	if _, err := s.Directions(ctx, nil, "zzz", false); !errors.Is(err, domain.ErrBusinessUnknown) {
		t.Fatalf("err = %v, want unknown business", err)
	}

	got := events.types()
	if len(got) != 2 || got[0] != ports.EventDirectionsDispatched || got[1] != ports.EventDirectionsDispatched {
		t.Fatalf("events = %v", got)
	}
}

func TestSessionPublishesOnlyDispatchedSearches(t *testing.T) {
	dir := newDirectory()
	events := &recordingPublisher{}
	s := newTestStore(t, dir, events).Create()
	ctx := context.Background()
	s.Mount(ctx, nil)

	s.SetCustomLocation(ctx, "bog")
	s.SelectSuggestion(ctx, "Bogotá")

	got := events.types()
	// The partial input only raised suggestions.
	if len(got) != 1 {
		t.Fatalf("events = %v, want one search event", got)
	}

	events.mu.Lock()
	ev := events.events[0]
	events.mu.Unlock()
	if ev.SessionID != s.ID || ev.Criteria.LocationQuery != "Bogotá" || ev.At.IsZero() {
		t.Fatalf("event = %+v", ev)
	}
}
