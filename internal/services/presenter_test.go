package services

import (
	"directory-map-service/internal/domain"
	"testing"
)

func TestPresentMarkers(t *testing.T) {
	results := []domain.Business{
		biz("a", at(4, -74)),
		biz("origin", at(0, 0)),
		biz("nocoord", nil),
		biz("b", at(6, -75)),
	}

	layer := Present(results, nil, "b")

	if len(layer.Markers) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(layer.Markers))
	}
	for _, m := range layer.Markers {
		if m.Business.ID == "origin" || m.Business.ID == "nocoord" {
			t.Fatalf("unexpected marker for %s", m.Business.ID)
		}
		if m.Selected != (m.Business.ID == "b") {
			t.Fatalf("marker %s selected = %v", m.Business.ID, m.Selected)
		}
	}
	if layer.UserMarker != nil {
		t.Fatalf("expected no user marker, got %v", layer.UserMarker)
	}

	if len(layer.List) != 4 {
		t.Fatalf("expected every result listed, got %d", len(layer.List))
	}
	// Without a user location the list keeps result order.
	if layer.List[1].Business.ID != "origin" || layer.List[1].OnMap {
		t.Fatalf("unexpected second entry %+v", layer.List[1])
	}
	for _, e := range layer.List {
		if e.DistanceMeters != nil {
			t.Fatalf("expected no distances without user location, got %v", *e.DistanceMeters)
		}
	}
}

func TestPresentSortsByProximity(t *testing.T) {
	results := []domain.Business{
		{ID: "far", Name: "Lejos", Position: at(6.25, -75.56)},
		{ID: "none", Name: "Sin mapa"},
		{ID: "near-b", Name: "B cerca", Position: at(4.61, -74.07)},
		{ID: "near-a", Name: "A cerca", Position: at(4.61, -74.07)},
	}

	layer := Present(results, at(4.6, -74.07), "")

	want := []string{"near-a", "near-b", "far", "none"}
	for i, id := range want {
		if layer.List[i].Business.ID != id {
			t.Fatalf("position %d = %s, want %s", i, layer.List[i].Business.ID, id)
		}
	}
	if layer.UserMarker == nil || *layer.UserMarker != (domain.Coordinate{Lat: 4.6, Lng: -74.07}) {
		t.Fatalf("unexpected user marker %v", layer.UserMarker)
	}
	if d := layer.List[0].DistanceMeters; d == nil || *d < 1000 || *d > 1200 {
		t.Fatalf("expected about 1.1km, got %v", d)
	}
	if layer.List[3].DistanceMeters != nil {
		t.Fatal("expected no distance for unmapped business")
	}
}

func TestPresentIgnoresInvalidUserLocation(t *testing.T) {
	layer := Present([]domain.Business{biz("a", at(4, -74))}, at(0, 0), "")

	if layer.UserMarker != nil {
		t.Fatalf("expected no user marker for (0,0), got %v", layer.UserMarker)
	}
	if layer.List[0].DistanceMeters != nil {
		t.Fatal("expected no distance for invalid user location")
	}
}

func TestSelect(t *testing.T) {
	results := []domain.Business{biz("a", at(4, -74))}
	ui := domain.UIState{SelectedID: "a"}

	if Select(&ui, results, "missing") {
		t.Fatal("expected unknown id to be rejected")
	}
	if ui.SelectedID != "a" {
		t.Fatalf("selection changed to %q", ui.SelectedID)
	}

	ui.SelectedID = ""
	if !Select(&ui, results, "a") || ui.SelectedID != "a" {
		t.Fatalf("expected a selected, got %q", ui.SelectedID)
	}
}
