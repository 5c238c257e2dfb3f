package catalog

import (
	"context"
	"directory-map-service/internal/adapters/repositories"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/ports"
	"fmt"
	"sort"
	"strings"

	"github.com/asim/quadtree"
)

const defaultNearRadiusKm = 5.0

// In-memory business directory. Located businesses are indexed in a
// quadtree for near-me queries; the catalog is immutable once built and
// safe for concurrent reads.
type Catalog struct {
	all          []domain.Business
	tree         *quadtree.QuadTree
	categories   []string
	nearRadiusKm float64
}

var _ ports.Directory = (*Catalog)(nil)

// New builds a catalog from the given businesses, sorted by name.
func New(businesses []domain.Business, nearRadiusKm float64) *Catalog {
	if nearRadiusKm <= 0 {
		nearRadiusKm = defaultNearRadiusKm
	}

	center := quadtree.NewPoint(0, 0, nil)
	half := quadtree.NewPoint(90, 180, nil)
	boundary := quadtree.NewAABB(center, half)

	c := &Catalog{
		all:          make([]domain.Business, len(businesses)),
		tree:         quadtree.New(boundary, 0, nil),
		nearRadiusKm: nearRadiusKm,
	}
	copy(c.all, businesses)
	sort.SliceStable(c.all, func(i, j int) bool { return byName(c.all[i], c.all[j]) })

	seen := map[string]struct{}{}
	for i := range c.all {
		b := &c.all[i]
		if pos, ok := b.Coordinate(); ok {
			c.tree.Insert(quadtree.NewPoint(pos.Lat, pos.Lng, b))
		}
		if b.Category == "" {
			continue
		}
		if _, ok := seen[b.Category]; !ok {
			seen[b.Category] = struct{}{}
			c.categories = append(c.categories, b.Category)
		}
	}
	sort.Strings(c.categories)

	return c
}

// Load builds a catalog from a seed file. Unverified businesses are skipped.
func Load(path string, nearRadiusKm float64) (*Catalog, error) {
	seeds, err := repositories.ReadSeeds(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	list := make([]domain.Business, 0, len(seeds))
	for _, s := range seeds {
		if s.Verified {
			list = append(list, s.Business())
		}
	}

	return New(list, nearRadiusKm), nil
}

func (c *Catalog) Len() int { return len(c.all) }

// Search applies every non-empty criterion. A "lat,lng" location returns the
// businesses within the near radius, nearest first.
func (c *Catalog) Search(ctx context.Context, q ports.SearchQuery) ([]domain.Business, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}

	text := strings.ToLower(strings.TrimSpace(q.Text))
	category := strings.TrimSpace(q.Category)
	location := strings.TrimSpace(q.Location)

	candidates := c.all
	if near, err := domain.ParseCoordinate(location); err == nil {
		candidates = c.near(near)
		location = ""
	}
	location = strings.ToLower(location)

	out := make([]domain.Business, 0)
	for _, b := range candidates {
		if text != "" && !containsAny(text, b.Name, b.Description, b.Category) {
			continue
		}
		if category != "" && !strings.EqualFold(category, b.Category) {
			continue
		}
		if location != "" && !containsAny(location, b.City, b.Address) {
			continue
		}
		out = append(out, b)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}

	return out, nil
}

func (c *Catalog) ListCategories(ctx context.Context) ([]string, error) {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out, nil
}

func (c *Catalog) near(center domain.Coordinate) []domain.Business {
	radius := c.nearRadiusKm * 1000

	origin := quadtree.NewPoint(center.Lat, center.Lng, nil)
	half := origin.HalfPoint(radius)
	boxes := []*quadtree.AABB{quadtree.NewAABB(origin, half)}

	// The tree spans -180..180; a box crossing the antimeridian is mirrored.
	_, dLng := half.Coordinates()
	switch {
	case center.Lng+dLng > 180:
		boxes = append(boxes, quadtree.NewAABB(quadtree.NewPoint(center.Lat, center.Lng-360, nil), half))
	case center.Lng-dLng < -180:
		boxes = append(boxes, quadtree.NewAABB(quadtree.NewPoint(center.Lat, center.Lng+360, nil), half))
	}

	type hit struct {
		b    domain.Business
		dist float64
	}

	var points []*quadtree.Point
	for _, box := range boxes {
		points = append(points, c.tree.Search(box)...)
	}

	hits := make([]hit, 0)
	for _, pt := range points {
		b, ok := pt.Data().(*domain.Business)
		if !ok {
			continue
		}
		pos, _ := b.Coordinate()
		// The search box is approximate.
		if d := domain.DistanceMeters(center, pos); d <= radius {
			hits = append(hits, hit{b: *b, dist: d})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return byName(hits[i].b, hits[j].b)
	})

	out := make([]domain.Business, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.b)
	}
	return out
}

func byName(a, b domain.Business) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}

func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
