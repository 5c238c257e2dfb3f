package repositories

import (
	"context"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/platform/obs"
	"directory-map-service/internal/ports"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GeoJSON point; coordinates are [lng, lat].
type mongoLocation struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type mongoBusiness struct {
	ID           string         `bson:"_id"`
	Name         string         `bson:"name"`
	Description  string         `bson:"description,omitempty"`
	Address      string         `bson:"address,omitempty"`
	City         string         `bson:"city,omitempty"`
	Phone        string         `bson:"phone,omitempty"`
	OpeningHours string         `bson:"opening_hours,omitempty"`
	Category     string         `bson:"category,omitempty"`
	Location     *mongoLocation `bson:"location,omitempty"`
	ImageURL     string         `bson:"image_url,omitempty"`
	Verified     bool           `bson:"verified"`
}

func (m mongoBusiness) toDomain() domain.Business {
	b := domain.Business{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		Address:      m.Address,
		City:         m.City,
		Phone:        m.Phone,
		OpeningHours: m.OpeningHours,
		Category:     m.Category,
		ImageURL:     m.ImageURL,
	}
	if m.Location != nil && len(m.Location.Coordinates) == 2 {
		b.Position = &domain.Coordinate{Lat: m.Location.Coordinates[1], Lng: m.Location.Coordinates[0]}
	}
	return b
}

func mongoFromSeed(s BusinessSeed) mongoBusiness {
	m := mongoBusiness{
		ID:           s.ID,
		Name:         s.Name,
		Description:  strings.TrimSpace(s.Description),
		Address:      strings.TrimSpace(s.Address),
		City:         strings.TrimSpace(s.City),
		Phone:        strings.TrimSpace(s.Phone),
		OpeningHours: strings.TrimSpace(s.OpeningHours),
		Category:     strings.TrimSpace(s.Category),
		ImageURL:     strings.TrimSpace(s.ImageURL),
		Verified:     s.Verified,
	}
	// A 2dsphere index rejects out-of-range points, so only valid pairs are stored.
	if s.Lat != nil && s.Lng != nil {
		c := domain.Coordinate{Lat: *s.Lat, Lng: *s.Lng}
		if c.Valid() && c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180 {
			m.Location = &mongoLocation{Type: "Point", Coordinates: []float64{c.Lng, c.Lat}}
		}
	}
	return m
}

// MongoDB backed business directory. Positions are stored as GeoJSON points
// under a 2dsphere index so near-me queries come back nearest first.
type MongoBusinessRepository struct {
	Collection   *mongo.Collection
	NearRadiusKm float64
}

var _ ports.Directory = (*MongoBusinessRepository)(nil)

func NewMongoBusinessRepository(coll *mongo.Collection, nearRadiusKm float64) *MongoBusinessRepository {
	if nearRadiusKm <= 0 {
		nearRadiusKm = defaultNearRadiusKm
	}
	return &MongoBusinessRepository{Collection: coll, NearRadiusKm: nearRadiusKm}
}

// EnsureIndexes creates the geo and category indexes.
func (r *MongoBusinessRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}
	return nil
}

// SeedIfEmpty loads the seed file into an empty collection and reports how
// many businesses were inserted.
func (r *MongoBusinessRepository) SeedIfEmpty(ctx context.Context, jsonPath string) (int, error) {
	count, err := r.Collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongo seed: count documents: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	seeds, err := ReadSeeds(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("mongo seed: %w", err)
	}
	if len(seeds) == 0 {
		return 0, nil
	}

	docs := make([]any, 0, len(seeds))
	for _, s := range seeds {
		docs = append(docs, mongoFromSeed(s))
	}
	if _, err := r.Collection.InsertMany(ctx, docs); err != nil {
		return 0, fmt.Errorf("mongo seed: insert: %w", err)
	}
	return len(docs), nil
}

func (r *MongoBusinessRepository) Search(ctx context.Context, q ports.SearchQuery) (_ []domain.Business, err error) {
	defer obs.Time(ctx, "MongoBusinessRepository.Search")(&err)

	if r.Collection == nil {
		return nil, errors.New("mongo search: collection is nil")
	}

	filter, near := mongoSearchFilter(q, r.NearRadiusKm*1000)

	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	// $nearSphere already orders by distance.
	if !near {
		opts.SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	}

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo search: find: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoBusiness
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo search: decode: %w", err)
	}

	out := make([]domain.Business, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MongoBusinessRepository) ListCategories(ctx context.Context) (_ []string, err error) {
	defer obs.Time(ctx, "MongoBusinessRepository.ListCategories")(&err)

	if r.Collection == nil {
		return nil, errors.New("mongo list categories: collection is nil")
	}

	values, err := r.Collection.Distinct(ctx, "category", bson.M{"verified": true})
	if err != nil {
		return nil, fmt.Errorf("mongo list categories: distinct: %w", err)
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

// mongoSearchFilter renders the query filter. near reports whether the
// location is a coordinate, in which case results are distance ordered.
func mongoSearchFilter(q ports.SearchQuery, radiusMeters float64) (bson.D, bool) {
	filter := bson.D{{Key: "verified", Value: true}}
	var and bson.A

	if text := strings.TrimSpace(q.Text); text != "" {
		re := containsRegex(text)
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"name": re},
			bson.M{"description": re},
			bson.M{"category": re},
		}})
	}

	if cat := strings.TrimSpace(q.Category); cat != "" {
		filter = append(filter, bson.E{Key: "category", Value: bson.M{
			"$regex":   "^" + regexp.QuoteMeta(cat) + "$",
			"$options": "i",
		}})
	}

	near := false
	if loc := strings.TrimSpace(q.Location); loc != "" {
		if c, err := domain.ParseCoordinate(loc); err == nil {
			near = true
			filter = append(filter, bson.E{Key: "location", Value: bson.M{
				"$nearSphere": bson.M{
					"$geometry":    bson.M{"type": "Point", "coordinates": bson.A{c.Lng, c.Lat}},
					"$maxDistance": radiusMeters,
				},
			}})
		} else {
			re := containsRegex(loc)
			and = append(and, bson.M{"$or": bson.A{
				bson.M{"city": re},
				bson.M{"address": re},
			}})
		}
	}

	if len(and) > 0 {
		filter = append(filter, bson.E{Key: "$and", Value: and})
	}
	return filter, near
}

func containsRegex(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}
