package catalog

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync"

	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

// MemoryStore is an in-process Store, used by tests of the packages that
// sit on top of catalog.
type MemoryStore struct {
	mu     sync.RWMutex
	brands map[string]*models.Brand
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{brands: make(map[string]*models.Brand)}
}

// List returns brands matching filter ordered by sort order, then name.
func (m *MemoryStore) List(_ context.Context, filter Filter) ([]models.Brand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Brand
	for _, b := range m.brands {
		if !Matches(b, filter) {
			continue
		}
		out = append(out, *b.Clone())
	}
	SortBrands(out)
	return out, nil
}

// Get returns a copy of the brand or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, id string) (*models.Brand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.brands[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

// Create stores a copy of brand.
func (m *MemoryStore) Create(_ context.Context, brand *models.Brand) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.brands[brand.ID] = brand.Clone()
	return nil
}

// Update replaces the stored brand.
func (m *MemoryStore) Update(_ context.Context, brand *models.Brand) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.brands[brand.ID]; !ok {
		return ErrNotFound
	}
	m.brands[brand.ID] = brand.Clone()
	return nil
}

// Delete removes the brand.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.brands[id]; !ok {
		return ErrNotFound
	}
	delete(m.brands, id)
	return nil
}

// UpdateLogo sets the brand's logo URL.
func (m *MemoryStore) UpdateLogo(_ context.Context, id, logoURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.brands[id]
	if !ok {
		return ErrNotFound
	}
	b.LogoURL = logoURL
	return nil
}

// Reorder gives each listed brand its 1-based position as sort order.
func (m *MemoryStore) Reorder(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if _, ok := m.brands[id]; !ok {
			return ErrNotFound
		}
	}
	for i, id := range ids {
		m.brands[id].SortOrder = i + 1
	}
	return nil
}

// Matches reports whether brand passes filter.
func Matches(brand *models.Brand, filter Filter) bool {
	if filter.SharedOnly && !brand.IsShared {
		return false
	}
	if !brand.IsShared {
		if filter.OwnerID == nil || brand.OwnerID == nil || *brand.OwnerID != *filter.OwnerID {
			return false
		}
	}
	if filter.Region != nil && brand.Region != nil && *brand.Region != *filter.Region {
		return false
	}
	return true
}

// SortBrands orders brands for display: shared templates by sort order,
// then everything by name.
func SortBrands(brands []models.Brand) {
	slices.SortStableFunc(brands, func(a, b models.Brand) int {
		if a.IsShared != b.IsShared {
			if a.IsShared {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(sortKey(a), sortKey(b)); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

// sortKey puts brands without a sort order last.
func sortKey(b models.Brand) int {
	if b.SortOrder <= 0 {
		return math.MaxInt
	}
	return b.SortOrder
}
