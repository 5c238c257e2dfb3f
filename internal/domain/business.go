package domain

// Represents a listed business as returned by the directory.
// Every field except ID and Name is optional; Position is nil when the
// business was never geolocated.
type Business struct {
	ID           string
	Name         string
	Description  string
	Address      string
	City         string
	Phone        string
	OpeningHours string
	Category     string
	Position     *Coordinate
	ImageURL     string
}

// Return the business coordinate when it is present and valid.
func (b Business) Coordinate() (Coordinate, bool) {
	if b.Position == nil || !b.Position.Valid() {
		return Coordinate{}, false
	}
	return *b.Position, true
}

// FindBusiness returns the business with the given ID, if present.
func FindBusiness(list []Business, id string) (Business, bool) {
	for _, b := range list {
		if b.ID == id {
			return b, true
		}
	}
	return Business{}, false
}
