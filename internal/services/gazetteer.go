package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Gazetteer is an immutable, ordered list of known place names used for
// location autocomplete. Matching is a linear, case-insensitive substring scan.
type Gazetteer struct {
	names []string
	lower []string
}

// Colombian municipalities offered by default.
var defaultPlaces = []string{
	"Bogotá",
	"Medellín",
	"Cali",
	"Barranquilla",
	"Cartagena",
	"Cúcuta",
	"Bucaramanga",
	"Pereira",
	"Santa Marta",
	"Ibagué",
	"Manizales",
	"Villavicencio",
	"Pasto",
	"Neiva",
	"Armenia",
	"Popayán",
	"Montería",
	"Valledupar",
	"Sincelejo",
	"Tunja",
	"Riohacha",
	"Quibdó",
	"Florencia",
	"Yopal",
	"Soacha",
	"Bello",
	"Itagüí",
	"Envigado",
	"Soledad",
	"Chía",
	"Zipaquirá",
	"Facatativá",
	"Girardot",
	"Palmira",
	"Buenaventura",
	"Tuluá",
	"Rionegro",
	"Dosquebradas",
	"Floridablanca",
	"Sogamoso",
	"Duitama",
}

func NewGazetteer(names []string) *Gazetteer {
	g := &Gazetteer{
		names: make([]string, 0, len(names)),
		lower: make([]string, 0, len(names)),
	}

	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		g.names = append(g.names, n)
		g.lower = append(g.lower, key)
	}
	return g
}

// DefaultGazetteer returns the built-in place list.
func DefaultGazetteer() *Gazetteer {
	return NewGazetteer(defaultPlaces)
}

// LoadGazetteer reads a JSON array of place names from path.
// An empty path yields the default gazetteer.
func LoadGazetteer(path string) (*Gazetteer, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultGazetteer(), nil
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load gazetteer: read %q: %w", path, err)
	}

	var names []string
	if err := json.Unmarshal(bytes, &names); err != nil {
		return nil, fmt.Errorf("load gazetteer: parse json: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("load gazetteer: %q contains no place names", path)
	}

	return NewGazetteer(names), nil
}

// Suggest returns, in gazetteer order, every place whose name contains text
// (case-insensitive). Blank input yields no suggestions.
func (g *Gazetteer) Suggest(text string) []string {
	q := strings.ToLower(strings.TrimSpace(text))
	if q == "" {
		return nil
	}

	var out []string
	for i, l := range g.lower {
		if strings.Contains(l, q) {
			out = append(out, g.names[i])
		}
	}
	return out
}

// Match returns the canonical entry equal to text ignoring case.
func (g *Gazetteer) Match(text string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(text))
	if q == "" {
		return "", false
	}
	for i, l := range g.lower {
		if l == q {
			return g.names[i], true
		}
	}
	return "", false
}

func (g *Gazetteer) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}
