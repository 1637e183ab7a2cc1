package history

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

// MemoryStore is an in-process Store, used by tests of the packages that
// sit on top of history.
type MemoryStore struct {
	mu      sync.RWMutex
	meals   map[string]*models.MealRecord
	numbers map[int64]int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		meals:   make(map[string]*models.MealRecord),
		numbers: make(map[int64]int64),
	}
}

// Create stores a copy of rec and assigns the next per-user meal number.
func (m *MemoryStore) Create(_ context.Context, rec *models.MealRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.numbers[rec.UserID]++
	rec.UserMealNumber = m.numbers[rec.UserID]
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.Date
	}
	m.meals[rec.ID] = cloneRecord(rec)
	return nil
}

// GetByID returns the meal or ErrNotFound.
func (m *MemoryStore) GetByID(_ context.Context, id string) (*models.MealRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.meals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// GetByUserAndNumber returns the user's meal with the given number.
func (m *MemoryStore) GetByUserAndNumber(_ context.Context, userID, number int64) (*models.MealRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.meals {
		if rec.UserID == userID && rec.UserMealNumber == number {
			return cloneRecord(rec), nil
		}
	}
	return nil, ErrNotFound
}

// ListByUser returns the user's meals matching filter, newest first.
func (m *MemoryStore) ListByUser(_ context.Context, userID int64, filter Filter) ([]models.MealRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.MealRecord
	for _, rec := range m.meals {
		if rec.UserID == userID && filter.Matches(rec) {
			out = append(out, *cloneRecord(rec))
		}
	}
	slices.SortFunc(out, func(a, b models.MealRecord) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.UserMealNumber, a.UserMealNumber)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Delete removes the meal.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.meals[id]; !ok {
		return ErrNotFound
	}
	delete(m.meals, id)
	return nil
}

func cloneRecord(rec *models.MealRecord) *models.MealRecord {
	c := *rec
	c.Items = slices.Clone(rec.Items)
	return &c
}
