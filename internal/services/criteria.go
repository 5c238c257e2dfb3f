package services

import (
	"context"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/ports"
	"fmt"
	"slices"
	"strings"
	"sync"
)

const DefaultResultLimit = 60

// Snapshot of the criteria manager, safe to read after the lock is released.
type CriteriaState struct {
	Criteria           domain.SearchCriteria
	CustomLocation     bool
	Suggestions        []string
	SuggestionsVisible bool
	Results            []domain.Business
	Baseline           []domain.Business
	Err                error
	Generation         uint64
}

// CriteriaManager owns the search criteria of one session and the result set
// they produced.
//
// Every mutation dispatches a search with the full criteria. Dispatches are not
// cancelled; instead each one carries a generation number and only the response
// to the most recent dispatch is applied (last request wins). A failed dispatch
// keeps the previous results and raises a dismissible error.
type CriteriaManager struct {
	searcher  ports.BusinessSearcher
	gazetteer *Gazetteer
	limit     int

	mu                 sync.Mutex
	criteria           domain.SearchCriteria
	customLocation     bool
	suggestions        []string
	suggestionsVisible bool
	results            []domain.Business
	baseline           []domain.Business
	err                error
	gen                uint64
}

func NewCriteriaManager(searcher ports.BusinessSearcher, gazetteer *Gazetteer, limit int) *CriteriaManager {
	if gazetteer == nil {
		gazetteer = DefaultGazetteer()
	}
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	return &CriteriaManager{
		searcher:  searcher,
		gazetteer: gazetteer,
		limit:     limit,
	}
}

// LoadBaseline dispatches the current criteria and, on success, also records the
// results as the unfiltered baseline used when nothing else can center the map.
func (m *CriteriaManager) LoadBaseline(ctx context.Context) error {
	m.mu.Lock()
	gen, q := m.beginLocked()
	m.mu.Unlock()
	return m.finish(ctx, gen, q, true)
}

// Refresh re-dispatches the current criteria unchanged.
func (m *CriteriaManager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	gen, q := m.beginLocked()
	m.mu.Unlock()
	return m.finish(ctx, gen, q, false)
}

func (m *CriteriaManager) SetText(ctx context.Context, text string) error {
	m.mu.Lock()
	m.criteria.Text = text
	gen, q := m.beginLocked()
	m.mu.Unlock()
	return m.finish(ctx, gen, q, false)
}

// SetCategory sets the category filter; an empty name removes it.
func (m *CriteriaManager) SetCategory(ctx context.Context, category string) error {
	m.mu.Lock()
	m.criteria.Category = strings.TrimSpace(category)
	gen, q := m.beginLocked()
	m.mu.Unlock()
	return m.finish(ctx, gen, q, false)
}

// SetNearMe filters by a resolved device position and leaves custom-location mode.
func (m *CriteriaManager) SetNearMe(ctx context.Context, position domain.Coordinate) error {
	if !position.Valid() {
		return fmt.Errorf("set near me: %v: %w", position, domain.ErrInvalidCoordinate)
	}

	m.mu.Lock()
	m.criteria.LocationQuery = position.String()
	m.customLocation = false
	m.hideSuggestionsLocked()
	gen, q := m.beginLocked()
	m.mu.Unlock()
	return m.finish(ctx, gen, q, false)
}

// SetCustomLocation records typed place-name text and refreshes suggestions.
// A search is dispatched only when the text names a gazetteer entry exactly or
// nothing in the gazetteer matches; otherwise the user is expected to pick a
// suggestion first.
func (m *CriteriaManager) SetCustomLocation(ctx context.Context, text string) error {
	m.mu.Lock()
	m.customLocation = true
	m.criteria.LocationQuery = text
	m.suggestions = m.gazetteer.Suggest(text)

	_, exact := m.gazetteer.Match(text)
	if !exact && len(m.suggestions) > 0 {
		m.suggestionsVisible = true
		m.mu.Unlock()
		return nil
	}

	m.suggestionsVisible = false
	gen, q := m.beginLocked()
	m.mu.Unlock()
	return m.finish(ctx, gen, q, false)
}

// ClearLocation removes the location filter and leaves custom-location mode.
func (m *CriteriaManager) ClearLocation(ctx context.Context) error {
	m.mu.Lock()
	m.criteria.LocationQuery = ""
	m.customLocation = false
	m.hideSuggestionsLocked()
	gen, q := m.beginLocked()
	m.mu.Unlock()
	return m.finish(ctx, gen, q, false)
}

func (m *CriteriaManager) SelectSuggestion(ctx context.Context, name string) error {
	m.mu.Lock()
	m.criteria.LocationQuery = name
	m.hideSuggestionsLocked()
	gen, q := m.beginLocked()
	m.mu.Unlock()
	return m.finish(ctx, gen, q, false)
}

// DismissError clears the search error banner.
func (m *CriteriaManager) DismissError() {
	m.mu.Lock()
	m.err = nil
	m.mu.Unlock()
}

func (m *CriteriaManager) State() CriteriaState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return CriteriaState{
		Criteria:           m.criteria,
		CustomLocation:     m.customLocation,
		Suggestions:        slices.Clone(m.suggestions),
		SuggestionsVisible: m.suggestionsVisible,
		Results:            slices.Clone(m.results),
		Baseline:           slices.Clone(m.baseline),
		Err:                m.err,
		Generation:         m.gen,
	}
}

func (m *CriteriaManager) hideSuggestionsLocked() {
	m.suggestions = nil
	m.suggestionsVisible = false
}

func (m *CriteriaManager) beginLocked() (uint64, ports.SearchQuery) {
	m.gen++
	return m.gen, ports.SearchQuery{
		Text:     strings.TrimSpace(m.criteria.Text),
		Category: m.criteria.Category,
		Location: strings.TrimSpace(m.criteria.LocationQuery),
		Limit:    m.limit,
	}
}

// finish performs the dispatch outside the lock and applies the outcome only if
// no newer dispatch was started meanwhile.
func (m *CriteriaManager) finish(ctx context.Context, gen uint64, q ports.SearchQuery, baseline bool) error {
	results, err := m.searcher.Search(ctx, q)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return nil
	}

	if err != nil {
		m.err = fmt.Errorf("%w: %v", domain.ErrSearchDispatchFailed, err)
		if m.results == nil {
			m.results = []domain.Business{}
		}
		return m.err
	}

	if results == nil {
		results = []domain.Business{}
	}
	m.results = results
	if baseline {
		m.baseline = results
	}
	m.err = nil
	return nil
}
