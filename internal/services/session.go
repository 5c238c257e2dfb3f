package services

import (
	"context"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/ports"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Everything a map UI needs to render one session.
type View struct {
	ID                 string
	Criteria           domain.SearchCriteria
	UI                 domain.UIState
	Suggestions        []string
	Viewport           domain.Viewport
	ViewportRule       string
	UserLocation       *domain.Coordinate
	LocationErr        error
	SearchErr          error
	Layer              MapLayer
	ResultCount        int
	CriteriaGeneration uint64
}

// Session is the explicit state object of one map discovery session. It owns
// the user location, the UI flags and the viewport, and composes the criteria
// manager, the geolocation resolver and the directions dispatcher.
//
// The lock is never held across I/O. Stale geolocation responses (a newer
// request was issued while one was in flight) are discarded.
type Session struct {
	ID string

	criteria      *CriteriaManager
	resolver      *Resolver
	directions    *Directions
	events        ports.EventPublisher
	defaultCenter domain.Coordinate

	mu           sync.Mutex
	userLocation *domain.Coordinate
	locationErr  error
	locGen       uint64
	ui           domain.UIState
	viewport     domain.Viewport
	viewportRule string
	lastSeen     time.Time
}

// Mount performs the first load: the unfiltered result set and an automatic,
// short location probe run concurrently. Neither failure is fatal.
func (s *Session) Mount(ctx context.Context, locator ports.Locator) View {
	var g errgroup.Group

	g.Go(func() error {
		if err := s.criteria.LoadBaseline(ctx); err != nil {
			log.Printf("session=%s op=mount.baseline err=%v", s.ID, err)
		}
		return nil
	})
	g.Go(func() error {
		s.locate(ctx, locator, LocateRequest{Probe: true})
		return nil
	})
	_ = g.Wait()

	return s.recompute()
}

// NearMe resolves the device position and, on success, filters the search by it.
// A failure keeps any previously known location.
func (s *Session) NearMe(ctx context.Context, locator ports.Locator, highAccuracy bool) View {
	fix, ok := s.locate(ctx, locator, LocateRequest{HighAccuracy: highAccuracy})
	if ok {
		s.search(ctx, "near_me", func() error { return s.criteria.SetNearMe(ctx, fix.Position) })
	}
	return s.recompute()
}

func (s *Session) SetText(ctx context.Context, text string) View {
	s.search(ctx, "set_text", func() error { return s.criteria.SetText(ctx, text) })
	return s.recompute()
}

func (s *Session) SetCategory(ctx context.Context, category string) View {
	s.search(ctx, "set_category", func() error { return s.criteria.SetCategory(ctx, category) })
	return s.recompute()
}

func (s *Session) SetCustomLocation(ctx context.Context, text string) View {
	s.search(ctx, "set_custom_location", func() error { return s.criteria.SetCustomLocation(ctx, text) })
	return s.recompute()
}

func (s *Session) ClearLocation(ctx context.Context) View {
	s.search(ctx, "clear_location", func() error { return s.criteria.ClearLocation(ctx) })
	return s.recompute()
}

func (s *Session) SelectSuggestion(ctx context.Context, name string) View {
	s.search(ctx, "select_suggestion", func() error { return s.criteria.SelectSuggestion(ctx, name) })
	return s.recompute()
}

// Select marks a business from the current results as selected, which centers
// the map on it.
func (s *Session) Select(id string) (View, error) {
	results := s.criteria.State().Results

	s.mu.Lock()
	ok := Select(&s.ui, results, id)
	s.mu.Unlock()

	if !ok {
		return View{}, fmt.Errorf("select %q: %w", id, domain.ErrBusinessUnknown)
	}
	return s.recompute(), nil
}

func (s *Session) ClearSelection() View {
	s.mu.Lock()
	s.ui.SelectedID = ""
	s.mu.Unlock()
	return s.recompute()
}

func (s *Session) SetSearchOpen(open bool) View {
	s.mu.Lock()
	s.ui.SearchOpen = open
	s.mu.Unlock()
	return s.recompute()
}

func (s *Session) ToggleSearchPanel() View {
	s.mu.Lock()
	s.ui.SearchOpen = !s.ui.SearchOpen
	s.mu.Unlock()
	return s.recompute()
}

// RetrySearch re-dispatches the current criteria, typically after a failure banner.
func (s *Session) RetrySearch(ctx context.Context) View {
	s.search(ctx, "retry_search", func() error { return s.criteria.Refresh(ctx) })
	return s.recompute()
}

func (s *Session) DismissError() View {
	s.criteria.DismissError()
	return s.recompute()
}

// Directions builds a directions link to a business in the current results.
// A live origin obtained on the way counts as a successful location resolution.
func (s *Session) Directions(ctx context.Context, locator ports.Locator, businessID string, liveOrigin bool) (Link, error) {
	state := s.criteria.State()
	b, ok := domain.FindBusiness(state.Results, businessID)
	if !ok {
		b, ok = domain.FindBusiness(state.Baseline, businessID)
	}
	if !ok {
		return Link{}, fmt.Errorf("directions to %q: %w", businessID, domain.ErrBusinessUnknown)
	}

	s.mu.Lock()
	gen := s.locGen
	s.mu.Unlock()

	link, err := s.directions.BuildLink(ctx, locator, b, liveOrigin)
	if err != nil {
		return Link{}, err
	}

	if link.Origin != nil {
		s.applyLiveOrigin(gen, *link.Origin)
		s.recompute()
	}

	ev := ports.DiscoveryEvent{
		Type:       ports.EventDirectionsDispatched,
		BusinessID: b.ID,
		LiveOrigin: link.Origin != nil,
	}
	if link.LocationErr != nil {
		ev.LocationError = link.LocationErr.Error()
	}
	s.publish(ctx, ev)

	return link, nil
}

func (s *Session) View() View {
	return s.recompute()
}

// LastSeen reports when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) locate(ctx context.Context, locator ports.Locator, req LocateRequest) (Fix, bool) {
	s.mu.Lock()
	s.locGen++
	gen := s.locGen
	s.mu.Unlock()

	fix, err := s.resolver.Resolve(ctx, locator, req)
	if err != nil {
		log.Printf("session=%s op=locate probe=%t err=%v", s.ID, req.Probe, err)
	}
	return fix, s.applyFix(gen, fix, err)
}

// applyFix stores a resolution outcome unless a newer request superseded it.
// It reports whether a new location was applied.
func (s *Session) applyFix(gen uint64, fix Fix, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.locGen {
		return false
	}
	if err != nil {
		s.locationErr = err
		return false
	}

	pos := fix.Position
	s.userLocation = &pos
	s.locationErr = nil
	return true
}

// applyLiveOrigin stores a directions origin as the user location unless a
// location request started after gen. Older requests still in flight are
// superseded.
func (s *Session) applyLiveOrigin(gen uint64, pos domain.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.locGen {
		return
	}
	s.locGen++
	s.userLocation = &pos
	s.locationErr = nil
}

// search runs one criteria mutation and, when it dispatched a search, publishes
// the outcome. Dispatch failures are already recorded in the criteria state.
func (s *Session) search(ctx context.Context, op string, mutate func() error) {
	before := s.criteria.State().Generation

	err := mutate()
	if err != nil {
		log.Printf("session=%s op=%s err=%v", s.ID, op, err)
	}

	state := s.criteria.State()
	if state.Generation == before {
		return
	}
	s.publish(ctx, ports.DiscoveryEvent{
		Type:         ports.EventSearchDispatched,
		Criteria:     state.Criteria,
		ResultCount:  len(state.Results),
		SearchFailed: err != nil,
	})
}

func (s *Session) publish(ctx context.Context, ev ports.DiscoveryEvent) {
	if s.events == nil {
		return
	}
	ev.SessionID = s.ID
	ev.At = time.Now()
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("session=%s op=publish type=%s err=%v", s.ID, ev.Type, err)
	}
}

// recompute re-derives the viewport from the current state and returns the view.
func (s *Session) recompute() View {
	state := s.criteria.State()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = time.Now()

	var selected *domain.Business
	if s.ui.SelectedID != "" {
		if b, ok := domain.FindBusiness(state.Results, s.ui.SelectedID); ok {
			selected = &b
		} else {
			s.ui.SelectedID = ""
		}
	}

	all := state.Baseline
	if len(all) == 0 {
		all = state.Results
	}

	s.viewport, s.viewportRule = RecomputeViewport(ViewportInput{
		Selected:     selected,
		Filtered:     state.Results,
		All:          all,
		UserLocation: s.userLocation,
		SearchActive: state.Criteria.Active(),
	}, s.defaultCenter)

	ui := s.ui
	ui.CustomLocation = state.CustomLocation
	ui.SuggestionsVisible = state.SuggestionsVisible

	var user *domain.Coordinate
	if s.userLocation != nil {
		u := *s.userLocation
		user = &u
	}

	return View{
		ID:                 s.ID,
		Criteria:           state.Criteria,
		UI:                 ui,
		Suggestions:        state.Suggestions,
		Viewport:           s.viewport,
		ViewportRule:       s.viewportRule,
		UserLocation:       user,
		LocationErr:        s.locationErr,
		SearchErr:          state.Err,
		Layer:              Present(state.Results, user, ui.SelectedID),
		ResultCount:        len(state.Results),
		CriteriaGeneration: state.Generation,
	}
}
