package repositories

import (
	"database/sql"
	"directory-map-service/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// InitSchema creates the directory tables. The DDL is valid for both Postgres
// and SQLite.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createBusinessesQuery := `
	CREATE TABLE IF NOT EXISTS businesses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		address TEXT,
		city TEXT,
		phone TEXT,
		opening_hours TEXT,
		category TEXT,
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		image_url TEXT,
		verified BOOLEAN NOT NULL DEFAULT FALSE
	);
	`

	createCategoryIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_businesses_category
	ON businesses(category);
	`

	createPositionIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_businesses_lat_lng
	ON businesses(lat, lng);
	`

	statements := []string{
		createBusinessesQuery,
		createCategoryIndexQuery,
		createPositionIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type BusinessSeed struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	Phone        string   `json:"phone"`
	OpeningHours string   `json:"opening_hours"`
	Category     string   `json:"category"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	ImageURL     string   `json:"image_url"`
	Verified     bool     `json:"verified"`
}

// ReadSeeds parses a JSON array of businesses and validates the required fields.
func ReadSeeds(jsonPath string) ([]BusinessSeed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read seeds: read %q: %w", jsonPath, err)
	}

	var data []BusinessSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("read seeds: parse json: %w", err)
	}

	rows := make([]BusinessSeed, 0, len(data))
	for i, item := range data {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			return nil, fmt.Errorf("read seeds: item at index %d: id cannot be empty", i+1)
		}
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return nil, fmt.Errorf("read seeds: item id=%s: name cannot be empty", item.ID)
		}
		if (item.Lat == nil) != (item.Lng == nil) {
			return nil, fmt.Errorf("read seeds: item id=%s: lat and lng must be given together", item.ID)
		}
		rows = append(rows, item)
	}

	return rows, nil
}

// Business converts a seed into a domain record.
func (s BusinessSeed) Business() domain.Business {
	b := domain.Business{
		ID:           s.ID,
		Name:         s.Name,
		Description:  s.Description,
		Address:      s.Address,
		City:         s.City,
		Phone:        s.Phone,
		OpeningHours: s.OpeningHours,
		Category:     s.Category,
		ImageURL:     s.ImageURL,
	}
	if s.Lat != nil && s.Lng != nil {
		b.Position = &domain.Coordinate{Lat: *s.Lat, Lng: *s.Lng}
	}
	return b
}

// SeedFromJSON upserts the businesses listed in a JSON file.
func SeedFromJSON(db *sql.DB, d Dialect, jsonPath string) error {
	rows, err := ReadSeeds(jsonPath)
	if err != nil {
		return fmt.Errorf("seed businesses: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed businesses: begin tx: %w", err)
	}
	defer tx.Rollback()

	p := d.Placeholder
	query := fmt.Sprintf(`
	INSERT INTO businesses (
		id, name, description, address, city, phone,
		opening_hours, category, lat, lng, image_url, verified
	)
	VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		description = EXCLUDED.description,
		address = EXCLUDED.address,
		city = EXCLUDED.city,
		phone = EXCLUDED.phone,
		opening_hours = EXCLUDED.opening_hours,
		category = EXCLUDED.category,
		lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		image_url = EXCLUDED.image_url,
		verified = EXCLUDED.verified;
	`, p(1), p(2), p(3), p(4), p(5), p(6), p(7), p(8), p(9), p(10), p(11), p(12))

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed businesses: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range rows {
		if _, err := stmt.Exec(
			b.ID, b.Name, nullString(b.Description), nullString(b.Address), nullString(b.City),
			nullString(b.Phone), nullString(b.OpeningHours), nullString(b.Category),
			nullFloat(b.Lat), nullFloat(b.Lng), nullString(b.ImageURL), b.Verified,
		); err != nil {
			return fmt.Errorf("seed businesses: insert id=%s: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed businesses: commit tx: %w", err)
	}

	return nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
