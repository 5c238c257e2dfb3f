package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Immutable geographic coordinate (latitude, longitude).
type Coordinate struct {
	Lat float64
	Lng float64
}

// Valid reports whether both fields are finite and the pair is not (0, 0).
// Invalid coordinates never reach the viewport or the map markers.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) {
		return false
	}
	if math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	return !(c.Lat == 0 && c.Lng == 0)
}

// String serialises the coordinate as "lat,lng", the form used for near-me location queries.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// ParseCoordinate parses a "lat,lng" pair. Whitespace around either number is ignored.
func ParseCoordinate(s string) (Coordinate, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return Coordinate{}, fmt.Errorf("parse coordinate %q: missing comma: %w", s, ErrInvalidCoordinate)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parse coordinate %q: latitude: %w", s, ErrInvalidCoordinate)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parse coordinate %q: longitude: %w", s, ErrInvalidCoordinate)
	}

	c := Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return Coordinate{}, fmt.Errorf("parse coordinate %q: %w", s, ErrInvalidCoordinate)
	}
	return c, nil
}

// LooksLikeCoordinate reports whether s parses as a valid "lat,lng" pair.
func LooksLikeCoordinate(s string) bool {
	_, err := ParseCoordinate(s)
	return err == nil
}

// Great-circle distance in meters between two coordinates.
func DistanceMeters(a, b Coordinate) float64 {
	const earthRadius = 6371000.0

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}
