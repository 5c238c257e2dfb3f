package services

import (
	"context"
	"directory-map-service/internal/domain"
	"errors"
	"testing"
	"time"
)

func TestNewSessionStoreRequiresSearcher(t *testing.T) {
	if _, err := NewSessionStore(SessionDeps{}); err == nil {
		t.Fatal("expected error without a searcher")
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	st := newTestStore(t, newDirectory(), nil)

	s := st.Create()
	if s.ID == "" {
		t.Fatal("expected a session id")
	}
	if st.Len() != 1 {
		t.Fatalf("len = %d, want 1", st.Len())
	}

	got, err := st.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("get: %v", err)
	}

	v := got.View()
	if v.ViewportRule != "default" || v.Viewport.Center != DefaultCenter {
		t.Fatalf("unmounted viewport = %+v (%s)", v.Viewport, v.ViewportRule)
	}

	st.Delete(s.ID)
	if _, err := st.Get(s.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want session not found", err)
	}
}

func TestSessionStoreSweep(t *testing.T) {
	st, err := NewSessionStore(SessionDeps{Searcher: newDirectory(), IdleTTL: time.Minute})
	if err != nil {
		t.Fatalf("session store: %v", err)
	}

	idle := st.Create()
	active := st.Create()

	now := time.Now().Add(2 * time.Minute)
	active.mu.Lock()
	active.lastSeen = now
	active.mu.Unlock()

	if n := st.Sweep(now); n != 1 {
		t.Fatalf("swept = %d, want 1", n)
	}
	if _, err := st.Get(idle.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatal("idle session should be gone")
	}
	if _, err := st.Get(active.ID); err != nil {
		t.Fatalf("active session: %v", err)
	}
}

func TestSessionStoreJanitorStops(t *testing.T) {
	st := newTestStore(t, newDirectory(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestSessionStoreDefaultCenterOverride(t *testing.T) {
	center := domain.Coordinate{Lat: 6.2442, Lng: -75.5812}
	st, err := NewSessionStore(SessionDeps{Searcher: newDirectory(), DefaultCenter: center})
	if err != nil {
		t.Fatalf("session store: %v", err)
	}

	if v := st.Create().View(); v.Viewport.Center != center {
		t.Fatalf("center = %v, want %v", v.Viewport.Center, center)
	}
}
