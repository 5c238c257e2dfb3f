package services

import (
	"context"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/ports"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Collaborators shared by every session.
type SessionDeps struct {
	Searcher        ports.BusinessSearcher
	Gazetteer       *Gazetteer
	Locator         ports.Locator
	Directions      *DirectionsProvider
	Events          ports.EventPublisher
	ResultLimit     int
	ExplicitTimeout time.Duration
	ProbeTimeout    time.Duration
	DefaultCenter   domain.Coordinate
	IdleTTL         time.Duration
}

// SessionStore keeps discovery sessions in memory, keyed by a random UUID.
// Sessions idle for longer than IdleTTL are dropped by Sweep.
type SessionStore struct {
	deps SessionDeps

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore(deps SessionDeps) (*SessionStore, error) {
	if deps.Searcher == nil {
		return nil, fmt.Errorf("session store: searcher is nil")
	}
	if deps.Directions == nil {
		p, err := NewDirectionsProvider("")
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
		deps.Directions = p
	}
	if deps.Gazetteer == nil {
		deps.Gazetteer = DefaultGazetteer()
	}
	if !deps.DefaultCenter.Valid() {
		deps.DefaultCenter = DefaultCenter
	}
	if deps.IdleTTL <= 0 {
		deps.IdleTTL = 30 * time.Minute
	}

	return &SessionStore{
		deps:     deps,
		sessions: make(map[string]*Session),
	}, nil
}

// Create registers a new, unmounted session.
func (st *SessionStore) Create() *Session {
	resolver := NewResolver(st.deps.Locator, st.deps.ExplicitTimeout, st.deps.ProbeTimeout)

	s := &Session{
		ID:            uuid.NewString(),
		criteria:      NewCriteriaManager(st.deps.Searcher, st.deps.Gazetteer, st.deps.ResultLimit),
		resolver:      resolver,
		directions:    NewDirections(st.deps.Directions, resolver),
		events:        st.deps.Events,
		defaultCenter: st.deps.DefaultCenter,
		lastSeen:      time.Now(),
	}
	s.viewport, s.viewportRule = RecomputeViewport(ViewportInput{}, s.defaultCenter)

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	return s
}

func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("get session %q: %w", id, domain.ErrSessionNotFound)
	}
	return s, nil
}

func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *SessionStore) Gazetteer() *Gazetteer {
	return st.deps.Gazetteer
}

// Sweep drops sessions idle since before now-IdleTTL and returns how many.
func (st *SessionStore) Sweep(now time.Time) int {
	cutoff := now.Add(-st.deps.IdleTTL)

	st.mu.Lock()
	defer st.mu.Unlock()

	n := 0
	for id, s := range st.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (st *SessionStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := st.Sweep(now); n > 0 {
				log.Printf("sessions swept=%d remaining=%d", n, st.Len())
			}
		}
	}
}
