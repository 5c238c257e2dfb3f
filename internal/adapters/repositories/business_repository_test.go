package repositories

import (
	"context"
	"database/sql"
	"directory-map-service/internal/platform/db"
	"directory-map-service/internal/ports"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSeeds = `[
  {"id": "b1", "name": "Café Andino", "category": "Cafés", "city": "Bogotá", "address": "Cra 7 # 12-30", "lat": 4.6010, "lng": -74.0700, "verified": true},
  {"id": "b2", "name": "Panadería La 19", "description": "pan artesanal", "category": "Panaderías", "city": "Bogotá", "lat": 4.6050, "lng": -74.0690, "verified": true},
  {"id": "b3", "name": "Taller 100%", "category": "Talleres", "city": "Medellín", "lat": 6.2442, "lng": -75.5812, "verified": true},
  {"id": "b4", "name": "Café sin verificar", "category": "Cafés", "city": "Bogotá", "lat": 4.6011, "lng": -74.0701, "verified": false},
  {"id": "b5", "name": "Ferretería Sin Mapa", "category": "Ferreterías", "city": "Cali", "verified": true}
]`

func newTestRepository(t *testing.T) *BusinessRepository {
	t.Helper()
	return newSeededRepository(t, testSeeds)
}

func newSeededRepository(t *testing.T, seeds string) *BusinessRepository {
	t.Helper()

	conn, err := db.OpenSqlite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := InitSchema(conn); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	path := filepath.Join(t.TempDir(), "businesses.json")
	if err := os.WriteFile(path, []byte(seeds), 0o600); err != nil {
		t.Fatalf("write seeds: %v", err)
	}
	if err := SeedFromJSON(conn, Sqlite, path); err != nil {
		t.Fatalf("seed: %v", err)
	}

	return NewSqliteBusinessRepository(conn, 2)
}

func ids(t *testing.T, repo *BusinessRepository, q ports.SearchQuery) string {
	t.Helper()

	got, err := repo.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("search %+v: %v", q, err)
	}
	out := make([]string, 0, len(got))
	for _, b := range got {
		out = append(out, b.ID)
	}
	return strings.Join(out, ",")
}

func TestSearch_OnlyVerifiedOrderedByName(t *testing.T) {
	repo := newTestRepository(t)

	if got := ids(t, repo, ports.SearchQuery{}); got != "b1,b5,b2,b3" {
		t.Fatalf("expected verified businesses by name, got %s", got)
	}
}

func TestSearch_Filters(t *testing.T) {
	repo := newTestRepository(t)

	tests := []struct {
		name string
		q    ports.SearchQuery
		want string
	}{
		{name: "text in description", q: ports.SearchQuery{Text: "artesanal"}, want: "b2"},
		{name: "text case-insensitive", q: ports.SearchQuery{Text: "PANADER"}, want: "b2"},
		{name: "wildcard is literal", q: ports.SearchQuery{Text: "100%"}, want: "b3"},
		{name: "category", q: ports.SearchQuery{Category: "cafés"}, want: "b1"},
		{name: "place name", q: ports.SearchQuery{Location: "Medell"}, want: "b3"},
		{name: "address", q: ports.SearchQuery{Location: "Cra 7"}, want: "b1"},
		{name: "limit", q: ports.SearchQuery{Limit: 1}, want: "b1"},
		{name: "no match", q: ports.SearchQuery{Text: "zzz"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(t, repo, tt.q); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSearch_NearCoordinateSortsByDistance(t *testing.T) {
	repo := newTestRepository(t)

	got := ids(t, repo, ports.SearchQuery{Location: "4.6049,-74.0691"})
	if got != "b2,b1" {
		t.Fatalf("expected nearest first within radius, got %s", got)
	}

	got = ids(t, repo, ports.SearchQuery{Location: "4.6049,-74.0691", Limit: 1})
	if got != "b2" {
		t.Fatalf("expected limit after distance sort, got %s", got)
	}
}

func TestSearch_MissingCoordinatesScanAsAbsent(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.Search(context.Background(), ports.SearchQuery{Category: "Ferreterías"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one business, got %d", len(got))
	}
	if got[0].Position != nil {
		t.Fatalf("expected nil position, got %+v", got[0].Position)
	}
	if got[0].City != "Cali" || got[0].Description != "" {
		t.Fatalf("unexpected optional fields: %+v", got[0])
	}
}

func TestListCategories(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	want := "Cafés,Ferreterías,Panaderías,Talleres"
	if strings.Join(got, ",") != want {
		t.Fatalf("expected %s, got %v", want, got)
	}
}

func TestSeedFromJSON_Upserts(t *testing.T) {
	repo := newTestRepository(t)

	path := filepath.Join(t.TempDir(), "update.json")
	update := `[{"id": "b1", "name": "Café Andino Centro", "category": "Cafés", "verified": false}]`
	if err := os.WriteFile(path, []byte(update), 0o600); err != nil {
		t.Fatalf("write seeds: %v", err)
	}
	if err := SeedFromJSON(repo.DB, Sqlite, path); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var count int
	if err := repo.DB.QueryRow(`SELECT COUNT(*) FROM businesses`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected upsert to keep 5 rows, got %d", count)
	}
	if got := ids(t, repo, ports.SearchQuery{Category: "Cafés"}); got != "" {
		t.Fatalf("expected unverified b1 hidden, got %s", got)
	}
}

func TestReadSeeds_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty id", body: `[{"id": " ", "name": "x"}]`},
		{name: "empty name", body: `[{"id": "a", "name": ""}]`},
		{name: "half coordinate", body: `[{"id": "a", "name": "x", "lat": 4.6}]`},
		{name: "not json", body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "seed.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := ReadSeeds(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestInitSchema_NilDB(t *testing.T) {
	var conn *sql.DB
	if err := InitSchema(conn); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestSearch_NearCoordinateAcrossAntimeridian(t *testing.T) {
	repo := newSeededRepository(t, `[
  {"id": "e1", "name": "Este", "lat": 10, "lng": 179.99, "verified": true},
  {"id": "w1", "name": "Oeste", "lat": 10, "lng": -179.99, "verified": true},
  {"id": "far", "name": "Lejos", "lat": 10, "lng": 170, "verified": true}
]`)

	if got := ids(t, repo, ports.SearchQuery{Location: "10,179.995"}); got != "e1,w1" {
		t.Fatalf("expected both sides of the antimeridian, got %s", got)
	}
	if got := ids(t, repo, ports.SearchQuery{Location: "10,-179.995"}); got != "w1,e1" {
		t.Fatalf("expected both sides of the antimeridian, got %s", got)
	}
}

func TestLngClause(t *testing.T) {
	tests := []struct {
		name     string
		lng, d   float64
		want     string
		wantArgs []any
	}{
		{name: "inside", lng: -74, d: 1, want: ` AND lng BETWEEN ? AND ?`, wantArgs: []any{-75.0, -73.0}},
		{name: "crosses west", lng: -179.5, d: 1, want: ` AND (lng >= ? OR lng <= ?)`, wantArgs: []any{179.5, -178.5}},
		{name: "crosses east", lng: 179.5, d: 1, want: ` AND (lng >= ? OR lng <= ?)`, wantArgs: []any{178.5, -179.5}},
		{name: "whole circle", lng: 0, d: 180, want: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &argList{d: Sqlite}
			if got := lngClause(a, tt.lng, tt.d); got != tt.want {
				t.Fatalf("clause = %q, want %q", got, tt.want)
			}
			if len(a.args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", a.args, tt.wantArgs)
			}
			for i := range a.args {
				if a.args[i] != tt.wantArgs[i] {
					t.Fatalf("args = %v, want %v", a.args, tt.wantArgs)
				}
			}
		})
	}
}
