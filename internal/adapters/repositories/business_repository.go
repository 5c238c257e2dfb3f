package repositories

import (
	"context"
	"database/sql"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/platform/obs"
	"directory-map-service/internal/ports"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

const defaultNearRadiusKm = 5.0

// SQL backed business directory. Only verified businesses are searchable.
// The same queries run on Postgres and SQLite; Dialect supplies the differences.
type BusinessRepository struct {
	DB           *sql.DB
	Dialect      Dialect
	NearRadiusKm float64
}

var _ ports.Directory = (*BusinessRepository)(nil)

func NewPostgresBusinessRepository(db *sql.DB, nearRadiusKm float64) *BusinessRepository {
	return newBusinessRepository(db, Postgres, nearRadiusKm)
}

func NewSqliteBusinessRepository(db *sql.DB, nearRadiusKm float64) *BusinessRepository {
	return newBusinessRepository(db, Sqlite, nearRadiusKm)
}

func newBusinessRepository(db *sql.DB, d Dialect, nearRadiusKm float64) *BusinessRepository {
	if nearRadiusKm <= 0 {
		nearRadiusKm = defaultNearRadiusKm
	}
	return &BusinessRepository{DB: db, Dialect: d, NearRadiusKm: nearRadiusKm}
}

// Search returns the verified businesses matching every non-empty criterion.
// A "lat,lng" location restricts results to NearRadiusKm around the point,
// nearest first; any other location matches city or address.
func (r *BusinessRepository) Search(ctx context.Context, q ports.SearchQuery) (_ []domain.Business, err error) {
	defer obs.Time(ctx, "BusinessRepository.Search")(&err)

	if r.DB == nil {
		return nil, errors.New("business search: db is nil")
	}

	query, args, near := r.buildSearch(q)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("business search: query %s: %w", r.Dialect.Name, err)
	}
	defer rows.Close()

	out := make([]domain.Business, 0)
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("business search: scan row: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("business search: iterate rows: %w", err)
	}

	if near != nil {
		out = withinRadius(out, *near, r.NearRadiusKm*1000)
		if q.Limit > 0 && len(out) > q.Limit {
			out = out[:q.Limit]
		}
	}

	return out, nil
}

func (r *BusinessRepository) ListCategories(ctx context.Context) (_ []string, err error) {
	defer obs.Time(ctx, "BusinessRepository.ListCategories")(&err)

	if r.DB == nil {
		return nil, errors.New("list categories: db is nil")
	}

	rows, err := r.DB.QueryContext(ctx, `
	SELECT DISTINCT category
	FROM businesses
	WHERE verified AND category IS NOT NULL AND category <> ''
	ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: query: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("list categories: scan row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: iterate rows: %w", err)
	}

	return out, nil
}

// buildSearch renders the search statement. near is set when the location
// is a coordinate; the SQL then selects a bounding box and the caller trims
// to the exact radius.
func (r *BusinessRepository) buildSearch(q ports.SearchQuery) (string, []any, *domain.Coordinate) {
	a := &argList{d: r.Dialect}
	like := r.Dialect.Like

	var sb strings.Builder
	sb.WriteString(`
	SELECT id, name, description, address, city, phone,
		opening_hours, category, lat, lng, image_url
	FROM businesses
	WHERE verified`)

	if text := strings.TrimSpace(q.Text); text != "" {
		p := containsPattern(text)
		fmt.Fprintf(&sb, ` AND (name %[1]s %[2]s ESCAPE '\' OR description %[1]s %[3]s ESCAPE '\' OR category %[1]s %[4]s ESCAPE '\')`,
			like, a.add(p), a.add(p), a.add(p))
	}

	if cat := strings.TrimSpace(q.Category); cat != "" {
		fmt.Fprintf(&sb, ` AND LOWER(category) = LOWER(%s)`, a.add(cat))
	}

	var near *domain.Coordinate
	if loc := strings.TrimSpace(q.Location); loc != "" {
		if c, err := domain.ParseCoordinate(loc); err == nil {
			near = &c
			dLat, dLng := boxDegrees(c, r.NearRadiusKm)
			fmt.Fprintf(&sb, ` AND lat BETWEEN %s AND %s`,
				a.add(math.Max(c.Lat-dLat, -90)), a.add(math.Min(c.Lat+dLat, 90)))
			sb.WriteString(lngClause(a, c.Lng, dLng))
		} else {
			p := containsPattern(loc)
			fmt.Fprintf(&sb, ` AND (city %[1]s %[2]s ESCAPE '\' OR address %[1]s %[3]s ESCAPE '\')`,
				like, a.add(p), a.add(p))
		}
	}

	sb.WriteString(` ORDER BY name, id`)
	if near == nil && q.Limit > 0 {
		fmt.Fprintf(&sb, ` LIMIT %s`, a.add(q.Limit))
	}

	return sb.String(), a.args, near
}

// boxDegrees converts a radius into latitude and longitude half-spans around c.
// A longitude span of 180 or more means every longitude qualifies.
func boxDegrees(c domain.Coordinate, radiusKm float64) (float64, float64) {
	const kmPerDegree = 111.32
	dLat := radiusKm / kmPerDegree
	cos := math.Cos(c.Lat * math.Pi / 180)
	if cos < 0.01 {
		return dLat, 180
	}
	return dLat, radiusKm / (kmPerDegree * cos)
}

// lngClause restricts longitude to [lng-dLng, lng+dLng], split in two ranges
// when the span crosses the antimeridian.
func lngClause(a *argList, lng, dLng float64) string {
	lo, hi := lng-dLng, lng+dLng
	switch {
	case dLng >= 180:
		return ""
	case lo < -180:
		return fmt.Sprintf(` AND (lng >= %s OR lng <= %s)`, a.add(lo+360), a.add(hi))
	case hi > 180:
		return fmt.Sprintf(` AND (lng >= %s OR lng <= %s)`, a.add(lo), a.add(hi-360))
	default:
		return fmt.Sprintf(` AND lng BETWEEN %s AND %s`, a.add(lo), a.add(hi))
	}
}

func withinRadius(list []domain.Business, center domain.Coordinate, radiusMeters float64) []domain.Business {
	type hit struct {
		b    domain.Business
		dist float64
	}

	hits := make([]hit, 0, len(list))
	for _, b := range list {
		c, ok := b.Coordinate()
		if !ok {
			continue
		}
		if d := domain.DistanceMeters(center, c); d <= radiusMeters {
			hits = append(hits, hit{b: b, dist: d})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]domain.Business, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.b)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBusiness(row rowScanner) (domain.Business, error) {
	var b domain.Business
	var desc, addr, city, phone, hours, cat, img sql.NullString
	var lat, lng sql.NullFloat64

	if err := row.Scan(&b.ID, &b.Name, &desc, &addr, &city, &phone, &hours, &cat, &lat, &lng, &img); err != nil {
		return domain.Business{}, err
	}

	b.Description = desc.String
	b.Address = addr.String
	b.City = city.String
	b.Phone = phone.String
	b.OpeningHours = hours.String
	b.Category = cat.String
	b.ImageURL = img.String
	if lat.Valid && lng.Valid {
		b.Position = &domain.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
	}

	return b, nil
}
