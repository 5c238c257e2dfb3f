package directory

import (
	"context"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/ports"
	"strings"
	"sync"
)

// MockDirectory is an in-process Directory for tests and demos. Results are
// looked up by the exact (Text, Category, Location) triple; unknown triples
// return Default. Err, when set, fails every search.
type MockDirectory struct {
	mu         sync.Mutex
	responses  map[string][]domain.Business
	Default    []domain.Business
	Err        error
	Categories []string
	Calls      []ports.SearchQuery

	// Hook runs before a search returns; tests use it to hold a response back.
	Hook func(q ports.SearchQuery)
}

func NewMockDirectory() *MockDirectory {
	return &MockDirectory{responses: make(map[string][]domain.Business)}
}

func mockKey(text, category, location string) string {
	return strings.Join([]string{text, category, location}, "|")
}

// On registers the results returned for a query triple.
func (m *MockDirectory) On(text, category, location string, results []domain.Business) *MockDirectory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[mockKey(text, category, location)] = results
	return m
}

func (m *MockDirectory) SetErr(err error) {
	m.mu.Lock()
	m.Err = err
	m.mu.Unlock()
}

func (m *MockDirectory) Search(ctx context.Context, q ports.SearchQuery) ([]domain.Business, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, q)
	hook := m.Hook
	err := m.Err
	res, ok := m.responses[mockKey(q.Text, q.Category, q.Location)]
	if !ok {
		res = m.Default
	}
	m.mu.Unlock()

	if hook != nil {
		hook(q)
	}
	if err != nil {
		return nil, err
	}
	if q.Limit > 0 && len(res) > q.Limit {
		res = res[:q.Limit]
	}
	return append([]domain.Business(nil), res...), nil
}

func (m *MockDirectory) ListCategories(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]string(nil), m.Categories...), nil
}

// CallCount returns how many searches were issued.
func (m *MockDirectory) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
