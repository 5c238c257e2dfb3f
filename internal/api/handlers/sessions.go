package handlers

import (
	"directory-map-service/internal/adapters/geolocation"
	"directory-map-service/internal/api/dto"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/ports"
	"directory-map-service/internal/services"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// SessionHandler exposes the map discovery session: one session per open map,
// one endpoint per user action. Every mutating endpoint answers with the full
// session view so the client can re-render from a single response.
type SessionHandler struct {
	Store *services.SessionStore
	// Fallback used when the client reports no geolocation capability. May be nil.
	IPLocator *geolocation.IPLocator
}

// Create opens a session and performs the first load: the unfiltered results
// and a short location probe using whatever position the client reported.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSessionRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	locator, ok := h.locatorFor(w, r, req.ReportedPosition)
	if !ok {
		return
	}

	s := h.Store.Create()
	v := s.Mount(r.Context(), locator)
	writeJSON(w, r, http.StatusCreated, toSession(v))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toSession(s.View()))
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session(w, r); !ok {
		return
	}
	h.Store.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) SetText(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.TextRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	writeJSON(w, r, http.StatusOK, toSession(s.SetText(r.Context(), req.Text)))
}

func (h *SessionHandler) SetCategory(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.CategoryRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	writeJSON(w, r, http.StatusOK, toSession(s.SetCategory(r.Context(), req.Category)))
}

// NearMe resolves the device position and filters the search around it.
// Location failures are reported in the view, not as an HTTP error.
func (h *SessionHandler) NearMe(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.NearMeRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	locator, ok := h.locatorFor(w, r, req.ReportedPosition)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toSession(s.NearMe(r.Context(), locator, req.HighAccuracy)))
}

func (h *SessionHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.TextRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	writeJSON(w, r, http.StatusOK, toSession(s.SetCustomLocation(r.Context(), req.Text)))
}

func (h *SessionHandler) ClearLocation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toSession(s.ClearLocation(r.Context())))
}

func (h *SessionHandler) SelectSuggestion(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.SuggestionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	writeJSON(w, r, http.StatusOK, toSession(s.SelectSuggestion(r.Context(), req.Name)))
}

func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.SelectionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	v, err := s.Select(req.BusinessID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSession(v))
}

func (h *SessionHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toSession(s.ClearSelection()))
}

func (h *SessionHandler) SearchPanel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.SearchPanelRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	var v services.View
	if req.Open == nil {
		v = s.ToggleSearchPanel()
	} else {
		v = s.SetSearchOpen(*req.Open)
	}
	writeJSON(w, r, http.StatusOK, toSession(v))
}

func (h *SessionHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toSession(s.DismissError()))
}

func (h *SessionHandler) RetrySearch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toSession(s.RetrySearch(r.Context())))
}

// Directions returns an external navigation link to a listed business. A live
// origin is attempted only when requested; failing to get one still yields a
// destination-only link.
func (h *SessionHandler) Directions(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.DirectionsRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if strings.TrimSpace(req.BusinessID) == "" {
		writeError(w, r, http.StatusBadRequest, "business_id is required")
		return
	}

	locator, ok := h.locatorFor(w, r, req.ReportedPosition)
	if !ok {
		return
	}

	link, err := s.Directions(r.Context(), locator, req.BusinessID, req.LiveOrigin)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toDirections(link, s.View()))
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	s, err := h.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return s, true
}

// locatorFor turns the client's report into a Locator. Without a report the
// IP locator, when configured, takes over.
func (h *SessionHandler) locatorFor(w http.ResponseWriter, r *http.Request, p dto.ReportedPosition) (ports.Locator, bool) {
	if (p.Lat == nil) != (p.Lng == nil) {
		writeError(w, r, http.StatusBadRequest, "lat and lng must be given together")
		return nil, false
	}

	reported := geolocation.Reported{ErrorCode: p.ErrorCode}
	if p.Lat != nil {
		reported.Position = &domain.Coordinate{Lat: *p.Lat, Lng: *p.Lng}
	}

	chain := geolocation.Chain{reported}
	if h.IPLocator != nil {
		chain = append(chain, h.IPLocator.ForClient(publicIP(r)))
	}
	return chain, true
}

// publicIP returns the client IP, or "" for private and loopback addresses
// (the locator then resolves the server's own egress address).
func publicIP(r *http.Request) string {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return ""
	}
	return ip.String()
}
