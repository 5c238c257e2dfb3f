package handlers

import (
	"directory-map-service/internal/api/dto"
	"directory-map-service/internal/ports"
	"directory-map-service/internal/services"
	"net/http"
)

// Read-only lookups backing the search panel.
type CatalogHandler struct {
	Categories ports.CategoryLister
	Gazetteer  *services.Gazetteer
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Categories.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "failed to list categories")
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, r, http.StatusOK, dto.ListCategoriesResponse{Categories: cats})
}

// Places returns place suggestions for ?q=, or every known place when q is empty.
func (h *CatalogHandler) Places(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	places := h.Gazetteer.Names()
	if q != "" {
		places = h.Gazetteer.Suggest(q)
	}
	if places == nil {
		places = []string{}
	}
	writeJSON(w, r, http.StatusOK, dto.GazetteerResponse{Places: places})
}
